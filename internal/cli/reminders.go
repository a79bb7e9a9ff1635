package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/gym-console/internal/models"
)

func newRemindersCmd(app *App) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "List reminders queued for a day and their delivery state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			at := app.Now()
			if day != "" {
				parsed, err := time.Parse(models.DateLayout, day)
				if err != nil {
					return fmt.Errorf("invalid --day %q, expected %s", day, models.DateLayout)
				}
				at = parsed
			}

			ledger, err := app.OpenLedger(cmd.Context())
			if err != nil {
				return fmt.Errorf("open reminder ledger: %w", err)
			}
			defer ledger.Close()

			dispatches, err := ledger.ListDispatches(cmd.Context(), at)
			if err != nil {
				return err
			}
			if len(dispatches) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No reminders")
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "USER\tKIND\tDAYS LEFT\tPUBLISHED\tDELIVERED")
			for _, d := range dispatches {
				delivered := "-"
				if d.DeliveredAt != nil {
					delivered = d.DeliveredAt.Format(time.RFC3339) + " via " + d.Channel
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", d.UserID, d.Kind, d.DaysLeft, d.PublishedAt.Format(time.RFC3339), delivered)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "day in YYYY-MM-DD, today by default")
	return cmd
}
