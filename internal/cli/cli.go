package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/econcal/internal/config"
	"github.com/pfrederiksen/econcal/internal/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitPartial = 2 // scrape finished but some fetch units failed
)

// errPartial is returned by scrape when at least one unit failed
var errPartial = errors.New("some fetch units failed")

var (
	flagConfig   string
	flagLogLevel string
	flagVerbose  bool
	flagOutput   string
	flagTimezone string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "econcal",
		Short: "Keep a local, incrementally updated copy of the economic calendar",
		Long: `A CLI tool to scrape the Forex Factory economic calendar into a CSV store.
Each run resumes after the latest stored event, so repeated runs only fetch
what is missing. Stored events can be listed, filtered and exported.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging (same as --log-level debug)")
	cmd.PersistentFlags().StringVar(&flagOutput, "output", "", "CSV store path (default \"forex_factory_cache.csv\")")
	cmd.PersistentFlags().StringVar(&flagTimezone, "timezone", "", "IANA timezone of the calendar (default \"Asia/Tehran\")")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}

// loadConfig builds the effective configuration for a command: defaults, then
// the config file, then flags the user set. It also installs the logger.
func loadConfig(cmd *cobra.Command, override config.Config, adjust ...func(*config.Config)) (config.Config, *time.Location, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, nil, err
	}

	override.Output = flagOutput
	override.Timezone = flagTimezone
	override.LogLevel = flagLogLevel
	if err := cfg.Override(override); err != nil {
		return config.Config{}, nil, fmt.Errorf("applying flags: %w", err)
	}
	for _, fn := range adjust {
		fn(&cfg)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, loc, nil
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	stop()
	if errors.Is(err, errPartial) {
		os.Exit(ExitPartial)
	}
	os.Exit(ExitError)
}
