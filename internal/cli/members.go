package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/gym-console/internal/classifier"
	"github.com/magabrotheeeer/gym-console/internal/lib/whatsapp"
)

func (a *App) classify(cmd *cobra.Command) (classifier.Result, error) {
	ctx := cmd.Context()
	users, err := a.Source.ListUsers(ctx)
	if err != nil {
		return classifier.Result{}, fmt.Errorf("fetch users: %w", err)
	}
	memberships, err := a.Source.ListMemberships(ctx)
	if err != nil {
		return classifier.Result{}, fmt.Errorf("fetch memberships: %w", err)
	}
	return classifier.Classify(users, memberships, a.Now()), nil
}

func newStatusCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show member counts by status and the plan distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := app.classify(cmd)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"total_users":            res.TotalUsers,
					"active":                 len(res.Active),
					"expiring_soon":          len(res.ExpiringSoon),
					"expired":                len(res.Expired),
					"unknown":                len(res.Unknown),
					"pending_payment":        len(res.PendingPayment),
					"new_members_this_month": res.NewMembersThisMonth,
					"distribution":           res.Histogram(),
				})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Total users\t%d\n", res.TotalUsers)
			fmt.Fprintf(tw, "Active\t%d\n", len(res.Active))
			fmt.Fprintf(tw, "Expiring soon\t%d\n", len(res.ExpiringSoon))
			fmt.Fprintf(tw, "Expired\t%d\n", len(res.Expired))
			if len(res.Unknown) > 0 {
				fmt.Fprintf(tw, "Unknown due date\t%d\n", len(res.Unknown))
			}
			fmt.Fprintf(tw, "Pending payment\t%d\n", len(res.PendingPayment))
			fmt.Fprintf(tw, "New this month\t%d\n", res.NewMembersThisMonth)
			for _, pc := range res.Histogram() {
				fmt.Fprintf(tw, "Plan %s\t%d\n", pc.Plan, pc.Count)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func expiringList(r classifier.Result) []classifier.Member { return r.ExpiringSoon }

func expiredList(r classifier.Result) []classifier.Member { return r.Expired }

func newListCmd(app *App, use, short string, pick func(classifier.Result) []classifier.Member) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := app.classify(cmd)
			if err != nil {
				return err
			}
			members := pick(res)
			if limit > 0 && len(members) > limit {
				members = members[:limit]
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), members)
			}
			if len(members) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No members")
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPLAN\tDAYS LEFT\tMOBILE")
			for _, m := range members {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", m.User.ID, m.User.FullName, m.User.MembershipName(), m.DaysLeft, m.User.MobileNumber)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most N members")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newWhatsAppCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whatsapp <user-id>",
		Short: "Print a WhatsApp link with a reminder for the member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			users, err := app.Source.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch users: %w", err)
			}
			for _, u := range users {
				if u.ID != id {
					continue
				}
				link, err := whatsapp.MemberLink(app.GymName, classifier.Evaluate(u, app.Now()))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), link)
				return err
			}
			return fmt.Errorf("user %d not found", id)
		},
	}
}
