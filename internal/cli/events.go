package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskforge/internal/observability"
	"github.com/valter-silva-au/taskforge/pkg/models"
)

var eventsFlags struct {
	eventType string
	since     string
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the mutation audit trail",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Events == nil {
			return fmt.Errorf("audit log not initialized")
		}

		filter := observability.EventFilter{Type: eventsFlags.eventType}
		if eventsFlags.since != "" {
			since, ok := models.ParseRecordDate(eventsFlags.since)
			if !ok {
				return fmt.Errorf("--since %q is not a valid date", eventsFlags.since)
			}
			filter.Since = &since
		}

		events, err := Events.Read(filter)
		if err != nil {
			return fmt.Errorf("reading audit log: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No events found.")
			return nil
		}
		for _, e := range events {
			line := fmt.Sprintf("%s  %-18s %s",
				dimStyle.Render(e.Time.Format(time.RFC3339)), e.Type, e.Message)
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsFlags.eventType, "type", "", "filter by event type")
	eventsCmd.Flags().StringVar(&eventsFlags.since, "since", "", "only events after this date (YYYY-MM-DD)")
	rootCmd.AddCommand(eventsCmd)
}
