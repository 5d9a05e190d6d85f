package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/econcal/internal/config"
	"github.com/pfrederiksen/econcal/internal/event"
	"github.com/pfrederiksen/econcal/internal/filter"
	"github.com/pfrederiksen/econcal/internal/incremental"
	"github.com/pfrederiksen/econcal/internal/logger"
	"github.com/pfrederiksen/econcal/internal/metrics"
	"github.com/pfrederiksen/econcal/internal/scraper"
	"github.com/pfrederiksen/econcal/internal/storage"
)

type scrapeFlags struct {
	from        string
	to          string
	dateRange   string
	mode        string
	details     bool
	baseURL     string
	rate        float64
	maxRetries  int
	metricsFile string
	format      string
}

func newScrapeCmd() *cobra.Command {
	f := &scrapeFlags{}

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch calendar days missing from the store",
		Long: `Fetch the requested date range, skipping days the store already covers.
Each day (or month with --mode month) is merged into the store as soon as it is
fetched, so an interrupted run loses at most the unit in progress.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.from, "from", "", "First day to fetch, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last day to fetch, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.dateRange, "range", "", "Days to fetch: YYYY-MM-DD, YYYY-MM-DD..YYYY-MM-DD or jan.2025")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Fetch unit: day or month (default \"day\")")
	cmd.Flags().BoolVar(&f.details, "details", false, "Also fetch each event's detail panel")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "Calendar site base URL")
	cmd.Flags().Float64Var(&f.rate, "rate", 0, "Page loads per second (default 0.5)")
	cmd.Flags().IntVar(&f.maxRetries, "max-retries", 0, "Retries per page load (default 3)")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().StringVar(&f.format, "format", "text", "Summary format: text or json")

	return cmd
}

func runScrape(cmd *cobra.Command, f *scrapeFlags) error {
	format := OutputFormat(strings.ToLower(f.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", f.format)
	}

	cfg, loc, err := loadConfig(cmd, config.Config{
		Mode:        f.mode,
		BaseURL:     f.baseURL,
		MetricsFile: f.metricsFile,
	}, func(c *config.Config) {
		// set flags win even when zero
		flags := cmd.Flags()
		if flags.Changed("details") {
			c.Details = f.details
		}
		if flags.Changed("rate") {
			c.RatePerSecond = f.rate
		}
		if flags.Changed("max-retries") {
			c.MaxRetries = f.maxRetries
		}
	})
	if err != nil {
		return err
	}

	from, to, err := scrapeWindow(f, loc, time.Now())
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.Output)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	session, err := scraper.NewSession(scraper.Options{
		BaseURL:       cfg.BaseURL,
		UserAgent:     cfg.UserAgent,
		Timeout:       cfg.Timeout,
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
		MaxRetries:    cfg.MaxRetries,
		Backoff:       cfg.Backoff,
		MaxBackoff:    cfg.MaxBackoff,
		Details:       cfg.Details,
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	defer session.Close()

	m := metrics.New()
	orch := incremental.New(store, session, m, incremental.Options{
		Mode:     cfg.Mode,
		Location: loc,
	})

	summary, runErr := orch.Run(cmd.Context(), from, to)

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("Could not write metrics", logger.Fields{"path": cfg.MetricsFile}, err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("scraping: %w", runErr)
	}

	if err := writeSummary(cmd.OutOrStdout(), &ScrapeResult{
		Store:   store.Path(),
		From:    from.Format("2006-01-02"),
		To:      to.Format("2006-01-02"),
		Summary: summary,
	}, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if summary.FailedUnits > 0 {
		return fmt.Errorf("%w: %d of %d", errPartial, summary.FailedUnits, summary.Units)
	}
	return nil
}

// scrapeWindow resolves the requested days. --range wins over --from/--to;
// missing ends default to today in loc.
func scrapeWindow(f *scrapeFlags, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	if f.dateRange != "" {
		if f.from != "" || f.to != "" {
			return time.Time{}, time.Time{}, fmt.Errorf("--range cannot be combined with --from or --to")
		}
		from, to, err := filter.ParseDateRange(f.dateRange, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return event.StartOfDay(*from, loc), event.StartOfDay(*to, loc), nil
	}

	today := event.StartOfDay(now, loc)
	from, to := today, today

	var err error
	if f.from != "" {
		if from, err = filter.ParseDate(f.from, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if f.to != "" {
		if to, err = filter.ParseDate(f.to, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from (%s) is after --to (%s)", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return from, to, nil
}

// openStore opens the configured store for reading commands. A missing file is
// reported rather than created.
func openStore(cfg config.Config) (*storage.Storage, error) {
	store, err := storage.Open(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	if _, err := os.Stat(store.Path()); err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}
