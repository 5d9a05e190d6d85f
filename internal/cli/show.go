package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/econcal/internal/config"
	"github.com/pfrederiksen/econcal/internal/event"
	"github.com/pfrederiksen/econcal/internal/filter"
)

// filterFlags are shared by the commands that read the store
type filterFlags struct {
	from       string
	to         string
	dateRange  string
	currencies []string
	impacts    []string
	search     []string
}

func (ff *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ff.from, "from", "", "Only events on or after this day, YYYY-MM-DD")
	cmd.Flags().StringVar(&ff.to, "to", "", "Only events on or before this day, YYYY-MM-DD")
	cmd.Flags().StringVar(&ff.dateRange, "range", "", "Only events in YYYY-MM-DD, YYYY-MM-DD..YYYY-MM-DD or jan.2025")
	cmd.Flags().StringSliceVar(&ff.currencies, "currency", nil, "Only these currencies (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&ff.impacts, "impact", nil, "Only impacts containing this text, e.g. high")
	cmd.Flags().StringSliceVar(&ff.search, "search", nil, "Only events whose name contains this text")
}

// build turns the flags into a Filter, reading dates in loc
func (ff *filterFlags) build(loc *time.Location) (*filter.Filter, error) {
	f := filter.NewFilter()
	f.Currencies = append(f.Currencies, ff.currencies...)
	f.Impacts = append(f.Impacts, ff.impacts...)
	f.Search = append(f.Search, ff.search...)

	if ff.dateRange != "" {
		if ff.from != "" || ff.to != "" {
			return nil, fmt.Errorf("--range cannot be combined with --from or --to")
		}
		from, to, err := filter.ParseDateRange(ff.dateRange, loc)
		if err != nil {
			return nil, err
		}
		f.DateFrom, f.DateTo = from, to
		return f, nil
	}

	if ff.from != "" {
		from, err := filter.ParseDate(ff.from, loc)
		if err != nil {
			return nil, err
		}
		f.DateFrom = &from
	}
	if ff.to != "" {
		to, err := filter.ParseDate(ff.to, loc)
		if err != nil {
			return nil, err
		}
		end := filter.EndOfDay(to)
		f.DateTo = &end
	}
	return f, nil
}

// loadEvents reads the store and applies the filter flags
func loadEvents(cmd *cobra.Command, ff *filterFlags) ([]*event.Event, *filter.Filter, error) {
	cfg, loc, err := loadConfig(cmd, config.Config{})
	if err != nil {
		return nil, nil, err
	}

	f, err := ff.build(loc)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	return f.Apply(store.ReadAll()), f, nil
}

func newShowCmd() *cobra.Command {
	ff := &filterFlags{}
	var format, sortOrder string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List stored events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat := OutputFormat(strings.ToLower(format))
			if outFormat != FormatText && outFormat != FormatJSON && outFormat != FormatTable {
				return fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'table')", format)
			}
			order := SortOrder(strings.ToLower(sortOrder))
			if !order.valid() {
				return fmt.Errorf("invalid sort: %s (must be 'date', 'currency', 'impact' or 'event')", sortOrder)
			}

			events, f, err := loadEvents(cmd, ff)
			if err != nil {
				return err
			}

			// sort a copy; the store order stays untouched
			sorted := make([]*event.Event, len(events))
			copy(sorted, events)
			sortEvents(sorted, order)

			result := &OutputResult{
				GeneratedAt: time.Now().UTC(),
				Filter:      f.String(),
				Events:      sorted,
				EventCount:  len(sorted),
			}
			if err := WriteOutput(cmd.OutOrStdout(), result, outFormat, flagVerbose); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or table")
	cmd.Flags().StringVar(&sortOrder, "sort", "date", "Sort by: date, currency, impact or event")

	return cmd
}
