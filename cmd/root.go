package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/steamwake/steamwake/internal/config"
	"github.com/steamwake/steamwake/internal/library"
	"github.com/steamwake/steamwake/internal/logging"
	"github.com/steamwake/steamwake/internal/ui"
)

var (
	flagConfig   string
	flagEnvFile  string
	flagLogLevel string
	flagNoColor  bool

	flagLibrary string
	flagBackend string
	flagWho     string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $XDG_CONFIG_HOME/steamwake/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Dotenv file to load before reading the environment (default: .env if present)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
}

var rootCmd = &cobra.Command{
	Use:   "steamwake",
	Short: "Keep this machine awake while Steam downloads",
	Long: `steamwake watches the download staging directories of every Steam library
and takes a systemd-logind sleep lock for each app that is downloading. The
lock is released as soon as the download pauses or finishes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.New(os.Stderr, !flagNoColor && logging.ColorEnabled(os.Stderr)).Error("%v", err)
		os.Exit(1)
	}
}

func addLibraryFlag(c *cobra.Command) {
	c.Flags().StringVar(&flagLibrary, "library", "", "Use this Steam library root instead of discovering them")
}

// app is what every subcommand starts from.
type app struct {
	cfg *config.Config
	log *slog.Logger
	out *ui.Printer
}

func setup() (*app, error) {
	cfg, err := config.Load(config.Overrides{
		ConfigPath: flagConfig,
		EnvFile:    flagEnvFile,
		Library:    flagLibrary,
		Backend:    flagBackend,
		Who:        flagWho,
		LogLevel:   flagLogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return &app{
		cfg: cfg,
		log: logging.Setup(logging.Config{
			Level:   level,
			Colored: !flagNoColor && logging.ColorEnabled(os.Stdout),
		}),
		out: ui.New(os.Stderr, !flagNoColor && logging.ColorEnabled(os.Stderr)),
	}, nil
}

func (r *app) locator() library.Locator {
	return library.Locator{Override: r.cfg.Library, Logger: r.log}
}
