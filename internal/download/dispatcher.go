// Package download turns Steam's download state files into sleep inhibition
// locks: one lock per app while it downloads, released when it stops.
package download

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/steamwake/steamwake/internal/fsevent"
	"github.com/steamwake/steamwake/internal/power"
)

// statePrefix starts the names of the files Steam touches in
// steamapps/downloading while an app downloads: state_<appid>_<depot>...
const statePrefix = "state_"

// ErrMalformedID is returned for a state file whose app ID is not a
// non-negative integer.
var ErrMalformedID = errors.New("malformed app id")

// NameResolver finds display names for app IDs.
type NameResolver interface {
	Resolve(appid uint64) (name string, ok bool, err error)
	Forget(appid uint64)
}

// Dispatcher applies download transitions. It is driven by a single
// goroutine and does no locking of its own.
type Dispatcher struct {
	names     NameResolver
	inhibitor power.Inhibitor
	locks     map[uint64]*power.Lock
	logger    *slog.Logger
}

// NewDispatcher returns a Dispatcher with no active downloads.
func NewDispatcher(names NameResolver, inhibitor power.Inhibitor, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		names:     names,
		inhibitor: inhibitor,
		locks:     make(map[uint64]*power.Lock),
		logger:    logger,
	}
}

// Process applies the transition carried by ev, if any. Events for other
// files are ignored. The returned error is fatal for the event loop.
func (d *Dispatcher) Process(ev fsevent.Event) error {
	appid, ok, err := parseStateName(ev.Name)
	if err != nil || !ok {
		return err
	}

	switch ev.Op {
	case fsevent.Access, fsevent.Create:
		d.logger.Info("Download started", "appid", appid, "file", ev.Name, "op", ev.Op.String(), "dir", ev.Dir)
		return d.start(appid)
	case fsevent.CloseWrite:
		d.logger.Info("Download stopped", "appid", appid, "file", ev.Name, "op", ev.Op.String(), "dir", ev.Dir)
		d.stop(appid)
	}
	return nil
}

func (d *Dispatcher) start(appid uint64) error {
	name, ok, err := d.names.Resolve(appid)
	if err != nil {
		return fmt.Errorf("resolve app %d: %w", appid, err)
	}
	if !ok {
		d.logger.Debug("No manifest found, not inhibiting", "appid", appid)
		return nil
	}

	lock, err := d.inhibitor.Acquire("Downloading " + name)
	if err != nil {
		return fmt.Errorf("inhibit sleep for app %d: %w", appid, err)
	}
	// The new lock is held before the old one goes, so there is no gap.
	if prev, ok := d.locks[appid]; ok {
		d.release(appid, prev)
	}
	d.locks[appid] = lock
	d.logger.Debug("Holding sleep lock", "appid", appid, "name", name)
	return nil
}

func (d *Dispatcher) stop(appid uint64) {
	if lock, ok := d.locks[appid]; ok {
		delete(d.locks, appid)
		d.release(appid, lock)
	}
	d.names.Forget(appid)
}

func (d *Dispatcher) release(appid uint64, lock *power.Lock) {
	if err := lock.Release(); err != nil {
		d.logger.Warn("Failed to release sleep lock", "appid", appid, "error", err)
	}
}

// Active returns the app IDs currently holding a lock, in ascending order.
func (d *Dispatcher) Active() []uint64 {
	return slices.Sorted(maps.Keys(d.locks))
}

// Close releases every held lock.
func (d *Dispatcher) Close() error {
	var errs []error
	for _, appid := range d.Active() {
		if err := d.locks[appid].Release(); err != nil {
			errs = append(errs, fmt.Errorf("release app %d: %w", appid, err))
		}
		delete(d.locks, appid)
	}
	return errors.Join(errs...)
}

// parseStateName extracts the app ID from a state file name. ok is false for
// names that are not state files at all.
func parseStateName(name string) (appid uint64, ok bool, err error) {
	if name == "" || !utf8.ValidString(name) || !strings.HasPrefix(name, statePrefix) {
		return 0, false, nil
	}
	fields := strings.Split(name, "_")
	appid, err = strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w in %q: %w", ErrMalformedID, name, err)
	}
	return appid, true, nil
}
