package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/khrees2412/coldreach/internal/app"
	"github.com/khrees2412/coldreach/internal/tracker"
	"github.com/khrees2412/coldreach/pkg/models"
)

const (
	promptQuit = "Quit"
	promptBack = "Back to list"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and update saved emails interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}
		err = runTUI(cmd, a, user)
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		return err
	},
}

func runTUI(cmd *cobra.Command, a *app.App, user *models.User) error {
	for {
		drafts, err := a.Tracker.List(cmd.Context(), user.ID, "")
		if err != nil {
			return err
		}
		if len(drafts) == 0 {
			cmd.Println("No saved emails yet. Save some with 'coldreach generate <url> --save'")
			return nil
		}

		items := make([]string, 0, len(drafts)+1)
		for _, d := range drafts {
			items = append(items, fmt.Sprintf("#%d %s [%s]", d.ID, d.Job.Role, d.Status))
		}
		items = append(items, promptQuit)

		idx, _, err := (&promptui.Select{Label: "Saved emails", Items: items, Size: 12}).Run()
		if err != nil {
			return err
		}
		if idx == len(drafts) {
			return nil
		}

		if err := displayDraftDetails(cmd, a, user, drafts[idx]); err != nil {
			return err
		}
	}
}

func displayDraftDetails(cmd *cobra.Command, a *app.App, user *models.User, draft *models.EmailDraft) error {
	for {
		cmd.Println("\n" + strings.Repeat("=", 60))
		printDraft(cmd, draft)

		var options []string
		for _, next := range tracker.NextStatuses(draft.Status) {
			options = append(options, "Move to "+string(next))
		}
		options = append(options, promptBack)

		_, choice, err := (&promptui.Select{Label: "Options", Items: options}).Run()
		if err != nil {
			return err
		}
		if choice == promptBack {
			return nil
		}

		status, err := tracker.ParseStatus(strings.TrimPrefix(choice, "Move to "))
		if err != nil {
			return err
		}
		notes, err := (&promptui.Prompt{Label: "Notes (optional)", Default: draft.Notes}).Run()
		if err != nil {
			return err
		}

		moved, err := a.Tracker.Move(cmd.Context(), user.ID, draft.ID, status, strings.TrimSpace(notes))
		if err != nil {
			cmd.Println(errorStyle.Render("Error:"), err)
			continue
		}
		cmd.Println(successStyle.Render("✓ Moved to " + getStatusLabel(moved.Status)))
		draft = moved
	}
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
