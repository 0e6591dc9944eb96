// Package fsevent delivers filesystem change notifications for watched
// directories in the order the kernel reports them.
package fsevent

import (
	"errors"
	"strings"
)

// Op is a set of change kinds carried by an Event.
type Op uint32

const (
	Access Op = 1 << iota
	Create
	CloseWrite
	// Other marks any kind this package does not name.
	Other
)

var opNames = []struct {
	op   Op
	name string
}{
	{Access, "ACCESS"},
	{Create, "CREATE"},
	{CloseWrite, "CLOSE_WRITE"},
	{Other, "OTHER"},
}

// Has reports whether every kind in o is set in op.
func (op Op) Has(o Op) bool { return op&o == o }

func (op Op) String() string {
	if op == 0 {
		return "NONE"
	}
	var parts []string
	for _, n := range opNames {
		if op.Has(n.op) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Event is one change inside a watched directory. Name is the entry name
// relative to Dir and is empty when the kernel attaches none. It holds the
// raw bytes and may not be valid UTF-8.
type Event struct {
	Dir  string
	Name string
	Op   Op
}

var (
	ErrUnsupported = errors.New("filesystem notifications are not supported on this platform")
	ErrClosed      = errors.New("event source closed")

	// ErrOverflow means the kernel dropped events; transitions may be lost.
	ErrOverflow = errors.New("event queue overflowed")

	// ErrWatchLost means a watched directory went away and is no longer observed.
	ErrWatchLost = errors.New("watch lost")
)

// Source is a blocking stream of filesystem events.
type Source interface {
	// Add watches dir for the kinds in ops.
	Add(dir string, ops Op) error
	// Read blocks until at least one batch of events is available.
	// After Close it returns ErrClosed. A lost watch or dropped events
	// are reported as ErrWatchLost or ErrOverflow.
	Read() ([]Event, error)
	// Close stops the source and unblocks a pending Read. Safe to call
	// multiple times.
	Close() error
}

// New opens the platform event source.
func New() (Source, error) {
	return newSource()
}
