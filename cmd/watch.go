package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/steamwake/steamwake/internal/download"
	"github.com/steamwake/steamwake/internal/fsevent"
	"github.com/steamwake/steamwake/internal/manifest"
	"github.com/steamwake/steamwake/internal/power"
)

func init() {
	addLibraryFlag(watchCmd)
	watchCmd.Flags().StringVar(&flagBackend, "backend", "", "Inhibit backend: logind or systemd-inhibit (default: logind)")
	watchCmd.Flags().StringVar(&flagWho, "who", "", "Application name shown on the sleep lock (default: Steam)")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Hold a sleep lock while Steam downloads",
	Long: `Watches steamapps/downloading in every Steam library. When Steam starts
writing an app's state file a sleep lock tagged with the game's name is taken;
when the file is closed after writing, the lock is released.

Runs until interrupted. Any unexpected condition stops the daemon with a
non-zero exit status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		a.out.Banner(version)

		roots := a.locator().Roots()
		a.out.List("Libraries", roots)
		a.out.KeyValue("Backend", a.cfg.Backend)
		a.out.Separator()

		source, err := fsevent.New()
		if err != nil {
			return fmt.Errorf("open event source: %w", err)
		}
		defer source.Close()

		for _, dir := range download.Dirs(roots) {
			if err := source.Add(dir, download.WatchOps); err != nil {
				return err
			}
			a.log.Debug("Watching download directory", "dir", dir)
		}
		if len(roots) == 0 {
			a.out.Warn("No Steam libraries found, nothing to watch")
		} else {
			a.out.Success("Watching %d download directories", len(roots))
		}

		inhibitor, err := power.New(power.Options{Backend: a.cfg.Backend, Who: a.cfg.Who})
		if err != nil {
			return fmt.Errorf("sleep inhibitor: %w", err)
		}
		defer inhibitor.Close()

		d := download.NewDispatcher(manifest.NewResolver(roots), inhibitor, a.log)
		defer func() {
			if err := d.Close(); err != nil {
				a.log.Warn("Failed to release sleep locks", "error", err)
			}
		}()

		// Handle graceful shutdown
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return download.Run(ctx, source, d)
		})
		g.Go(func() error {
			<-ctx.Done()
			return source.Close()
		})

		a.out.Info("Waiting for downloads...")
		if err := g.Wait(); err != nil {
			return err
		}
		a.out.Warn("Shutting down...")
		return nil
	},
}
