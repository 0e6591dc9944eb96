package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/steamwake/steamwake/internal/fsevent"
)

// WatchOps are the change kinds the dispatcher acts on.
const WatchOps = fsevent.Access | fsevent.Create | fsevent.CloseWrite

const downloadingDir = "steamapps/downloading"

// Dirs returns the download staging directory of every library root.
func Dirs(roots []string) []string {
	dirs := make([]string, 0, len(roots))
	for _, root := range roots {
		dirs = append(dirs, filepath.Join(root, downloadingDir))
	}
	return dirs
}

// EventReader yields batches of filesystem events.
type EventReader interface {
	Read() ([]fsevent.Event, error)
}

// Run feeds every batch from events to d, in delivery order, until an error
// occurs. Once ctx is done, a closed source ends the loop cleanly.
func Run(ctx context.Context, events EventReader, d *Dispatcher) error {
	for {
		batch, err := events.Read()
		if err != nil {
			if errors.Is(err, fsevent.ErrClosed) && ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read filesystem events: %w", err)
		}
		for _, ev := range batch {
			if err := d.Process(ev); err != nil {
				return err
			}
		}
	}
}
