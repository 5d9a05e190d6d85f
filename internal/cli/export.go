package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/econcal/internal/calendar"
	"github.com/pfrederiksen/econcal/internal/export"
	"github.com/pfrederiksen/econcal/internal/logger"
)

const (
	exportICS    = "ics"
	exportSQLite = "sqlite"
)

func newExportCmd() *cobra.Command {
	ff := &filterFlags{}
	var format, out, name string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored events to iCalendar or SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != exportICS && format != exportSQLite {
				return fmt.Errorf("invalid format: %s (must be '%s' or '%s')", format, exportICS, exportSQLite)
			}
			if out == "" {
				return fmt.Errorf("--out is required")
			}

			events, _, err := loadEvents(cmd, ff)
			if err != nil {
				return err
			}

			switch format {
			case exportICS:
				ics := calendar.GenerateICS(events, name, time.Now())
				if ics == "" {
					return fmt.Errorf("no events to export")
				}
				if err := os.WriteFile(out, []byte(ics), 0644); err != nil {
					return fmt.Errorf("writing %s: %w", out, err)
				}
			case exportSQLite:
				n, err := export.WriteSQLite(cmd.Context(), out, events)
				if err != nil {
					return err
				}
				logger.Debug("SQLite export rows changed", logger.Fields{"rows": n})
			}

			logger.Info("Exported events", logger.Fields{
				"format": format,
				"path":   out,
				"events": len(events),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d events to %s\n", len(events), out)
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVar(&format, "format", exportICS, "Export format: ics or sqlite")
	cmd.Flags().StringVar(&out, "out", "", "Output file (required)")
	cmd.Flags().StringVar(&name, "name", "Economic Calendar", "Calendar name for ics exports")

	return cmd
}
