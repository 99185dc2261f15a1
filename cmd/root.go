package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/khrees2412/coldreach/internal/app"
	"github.com/khrees2412/coldreach/pkg/models"
)

// application is closed by Execute once the command returns
var application *app.App

var rootCmd = &cobra.Command{
	Use:   "coldreach",
	Short: "Cold emails for the jobs on a careers page",
	Long: `Coldreach reads a careers page, extracts every job posting on it and drafts
a cold email for each one, citing the portfolio projects that best match
the skills the job asks for. Drafts can be saved and tracked through your
outreach pipeline.`,
	Version:      "0.1.0",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if application != nil {
			return nil
		}

		debug, _ := cmd.Flags().GetBool("debug")
		jsonLogs, _ := cmd.Flags().GetBool("json")

		a, err := app.NewApp(cmd.Context(), app.Options{Debug: debug, JSONLogs: jsonLogs})
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		application = a

		cmd.SetContext(app.SetAppInContext(cmd.Context(), a))
		return nil
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	if application != nil {
		application.Close()
	}
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

func getApp(cmd *cobra.Command) *app.App {
	if a := app.GetAppFromContext(cmd.Context()); a != nil {
		return a
	}
	return application
}

// currentUser resolves the profile selected by --user, active_user or the only profile.
func currentUser(cmd *cobra.Command) (*app.App, *models.User, error) {
	a := getApp(cmd)
	email, _ := cmd.Flags().GetString("user")
	user, err := a.ResolveUser(cmd.Context(), email)
	if err != nil {
		return nil, nil, err
	}
	return a, user, nil
}

func init() {
	rootCmd.PersistentFlags().String("user", "", "email of the profile to act as (defaults to active_user)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "write logs as JSON")
}
