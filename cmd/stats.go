package cmd

import (
	"github.com/spf13/cobra"

	"github.com/khrees2412/coldreach/pkg/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View outreach statistics",
	Long:  "Display how many of your emails are in each status, and your response and offer rates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		stats, err := a.Tracker.Stats(cmd.Context(), user.ID)
		if err != nil {
			return err
		}

		if stats.Total == 0 {
			cmd.Println("No saved emails yet. Save some with 'coldreach generate <url> --save'")
			return nil
		}

		cmd.Println(titleStyle.Render("Outreach Statistics"))

		cmd.Printf("\n%s\n", labelStyle.Render("Overview"))
		cmd.Printf("  Total Emails: %d\n", stats.Total)
		cmd.Printf("  Sent: %d\n", stats.Sent)

		if stats.Sent > 0 {
			cmd.Printf("\n%s\n", labelStyle.Render("Response Rate"))
			cmd.Printf("  Response Rate: %.1f%%\n", stats.ResponseRate)
			cmd.Printf("  Offer Rate: %.1f%%\n", stats.OfferRate)
		}

		cmd.Printf("\n%s\n", labelStyle.Render("Status Breakdown"))
		for _, status := range models.Statuses {
			count := stats.ByStatus[status]
			if count == 0 {
				continue
			}
			percentage := float64(count) / float64(stats.Total) * 100
			cmd.Printf("  %s: %d (%.1f%%)\n", getStatusLabel(status), count, percentage)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
