package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/khrees2412/coldreach/internal/tracker"
	"github.com/khrees2412/coldreach/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View tracked emails",
	Long:  "View and manage the status of the emails you saved with 'generate --save'",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		var filter models.Status
		if f, _ := cmd.Flags().GetString("filter"); f != "" {
			if filter, err = tracker.ParseStatus(f); err != nil {
				return err
			}
		}

		drafts, err := a.Tracker.List(cmd.Context(), user.ID, filter)
		if err != nil {
			return fmt.Errorf("fetch drafts: %w", err)
		}

		if len(drafts) == 0 {
			if filter != "" {
				cmd.Printf("No emails with status '%s'\n", filter)
				return nil
			}
			cmd.Println("No saved emails yet. Save some with 'coldreach generate <url> --save'")
			return nil
		}

		cmd.Println(titleStyle.Render("Your Outreach"))

		groups := make(map[models.Status][]*models.EmailDraft)
		for _, d := range drafts {
			groups[d.Status] = append(groups[d.Status], d)
		}

		for _, status := range models.Statuses {
			group := groups[status]
			if len(group) == 0 {
				continue
			}

			cmd.Printf("\n%s (%d)\n", labelStyle.Render(getStatusLabel(status)), len(group))
			for _, d := range group {
				cmd.Printf("  • %s\n", d.Job.Role)
				cmd.Printf("    %s %d | %s | Created: %s\n",
					labelStyle.Render("ID:"),
					d.ID,
					mutedStyle.Render(d.SourceURL),
					d.CreatedAt.Format("Jan 2"))
				if d.Notes != "" {
					cmd.Printf("    %s %s\n", labelStyle.Render("Notes:"), d.Notes)
				}
			}
		}

		cmd.Printf("\n%s %d\n", labelStyle.Render("Total:"), len(drafts))
		return nil
	},
}

var showStatusCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDraftID(args[0])
		if err != nil {
			return err
		}
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		draft, err := a.Tracker.Get(cmd.Context(), user.ID, id)
		if err != nil {
			return draftError(id, err)
		}

		printDraft(cmd, draft)
		return nil
	},
}

var updateStatusCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Move a saved email to a new status",
	Args:  cobra.ExactArgs(1),
	Example: `  coldreach status update 1 --status applied
  coldreach status update 5 --status rejected --notes "Position filled"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDraftID(args[0])
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetString("status")
		notes, _ := cmd.Flags().GetString("notes")
		if raw == "" {
			return errors.New("status is required. Use --status flag")
		}
		status, err := tracker.ParseStatus(raw)
		if err != nil {
			return err
		}

		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		draft, err := a.Tracker.Move(cmd.Context(), user.ID, id, status, notes)
		if err != nil {
			return draftError(id, err)
		}

		cmd.Printf("✓ %s is now: %s\n", draft.Job.Role, getStatusLabel(draft.Status))
		if notes != "" {
			cmd.Printf("  Notes: %s\n", notes)
		}
		return nil
	},
}

var deleteStatusCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDraftID(args[0])
		if err != nil {
			return err
		}
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		if err := a.Tracker.Delete(cmd.Context(), user.ID, id); err != nil {
			return draftError(id, err)
		}
		cmd.Printf("✓ Deleted #%d\n", id)
		return nil
	},
}

func parseDraftID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q: must be a positive number", s)
	}
	return id, nil
}

func draftError(id int64, err error) error {
	if errors.Is(err, tracker.ErrNotFound) {
		return fmt.Errorf("no saved email with ID %d. Run 'coldreach status' to list them", id)
	}
	return err
}

func printDraft(cmd *cobra.Command, d *models.EmailDraft) {
	cmd.Println(titleStyle.Render(fmt.Sprintf("#%d %s", d.ID, d.Job.Role)))
	cmd.Printf("%s %s\n", labelStyle.Render("Status:"), getStatusLabel(d.Status))
	cmd.Printf("%s %s\n", labelStyle.Render("Source:"), valueStyle.Render(d.SourceURL))
	if d.Notes != "" {
		cmd.Printf("%s %s\n", labelStyle.Render("Notes:"), valueStyle.Render(d.Notes))
	}
	cmd.Println()
	cmd.Println(d.Email)
}

func getStatusLabel(status models.Status) string {
	labels := map[models.Status]string{
		models.StatusDraft:     "📝 Draft",
		models.StatusApplied:   "✅ Applied",
		models.StatusInterview: "💼 Interview",
		models.StatusOffered:   "🎉 Offered",
		models.StatusRejected:  "❌ Rejected",
		models.StatusAccepted:  "🏆 Accepted",
	}
	if label, ok := labels[status]; ok {
		return label
	}
	return string(status)
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.AddCommand(showStatusCmd)
	statusCmd.AddCommand(updateStatusCmd)
	statusCmd.AddCommand(deleteStatusCmd)

	statusCmd.Flags().String("filter", "", "Filter by status (draft, applied, interview, offered, rejected, accepted)")

	updateStatusCmd.Flags().String("status", "", "New status (applied, interview, offered, rejected, accepted)")
	updateStatusCmd.Flags().String("notes", "", "Add notes to the email")
}
