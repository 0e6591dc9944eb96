// Package power takes sleep inhibition locks from the operating system.
package power

import "errors"

const (
	BackendLogind         = "logind"
	BackendSystemdInhibit = "systemd-inhibit"

	// DefaultWho is the application name reported to the power manager.
	DefaultWho = "Steam"
)

// ErrUnsupported is returned by New when no inhibition mechanism exists
// for the current platform.
var ErrUnsupported = errors.New("sleep inhibition is not supported on this platform")

// Inhibitor prevents the system from sleeping while downloads are active.
type Inhibitor interface {
	// Acquire takes a new sleep lock described by why. Every call returns an
	// independent lock owned by the caller, who must Release it.
	Acquire(why string) (*Lock, error)

	// Close releases the connection to the power manager. Locks already
	// handed out stay valid until released.
	Close() error
}

// Options selects and configures the inhibition backend.
type Options struct {
	Backend string
	Who     string
}

// New returns an Inhibitor for the configured backend.
// See inhibit_linux.go, inhibit_other.go.
func New(opts Options) (Inhibitor, error) {
	if opts.Backend == "" {
		opts.Backend = BackendLogind
	}
	if opts.Who == "" {
		opts.Who = DefaultWho
	}
	return newInhibitor(opts)
}
