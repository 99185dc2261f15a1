package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khrees2412/coldreach/internal/ai"
	"github.com/khrees2412/coldreach/internal/app"
	"github.com/khrees2412/coldreach/internal/outreach"
	"github.com/khrees2412/coldreach/pkg/models"
)

var generateCmd = &cobra.Command{
	Use:   "generate <url>",
	Short: "Draft a cold email for every job posted at a URL",
	Args:  cobra.MaximumNArgs(1),
	Example: `  coldreach generate https://careers.example.com/jobs/123
  coldreach generate https://careers.example.com/jobs --save
  coldreach generate https://careers.example.com/jobs --top-k 3
  coldreach generate --batch urls.txt --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		save, _ := cmd.Flags().GetBool("save")
		topK, _ := cmd.Flags().GetInt("top-k")
		batchFile, _ := cmd.Flags().GetString("batch")

		var urls []string
		switch {
		case batchFile != "":
			var err error
			if urls, err = readBatchFile(batchFile); err != nil {
				return err
			}
		case len(args) == 1:
			urls = []string{strings.TrimSpace(args[0])}
		default:
			return errors.New("a URL or --batch file is required")
		}

		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}
		if topK > 0 {
			a.Config.TopK = topK
		}

		orchestrator, err := a.Orchestrator(cmd.Context())
		if err != nil {
			return err
		}

		if len(urls) == 1 {
			return generateFor(cmd, a, orchestrator, user, urls[0], save)
		}

		successCount, failCount := 0, 0
		for _, url := range urls {
			if err := generateFor(cmd, a, orchestrator, user, url, save); err != nil {
				if cmd.Context().Err() != nil {
					return cmd.Context().Err()
				}
				cmd.Printf("  ✗ %s: %v\n", url, err)
				failCount++
				continue
			}
			successCount++
		}

		cmd.Printf("\n%s %d succeeded, %d failed\n", labelStyle.Render("Batch complete:"), successCount, failCount)
		return nil
	},
}

func generateFor(cmd *cobra.Command, a *app.App, orchestrator *outreach.Orchestrator, user *models.User, url string, save bool) error {
	cmd.Printf("Reading %s as %s...\n", url, user.Email)

	results, err := orchestrator.Process(cmd.Context(), url, user)
	if err != nil {
		var inputErr *outreach.InputError
		var extractErr *ai.ExtractionError
		switch {
		case errors.As(err, &inputErr):
			return fmt.Errorf("could not read that page, check the URL: %w", err)
		case errors.As(err, &extractErr):
			return fmt.Errorf("%w (try the URL of a single job posting)", err)
		}
		return err
	}

	if len(results) == 0 {
		cmd.Println("No job postings found on that page.")
		return nil
	}

	for i, r := range results {
		cmd.Println(titleStyle.Render(fmt.Sprintf("Job %d/%d: %s", i+1, len(results), r.Job.Role)))
		if r.Job.Experience != "" {
			cmd.Printf("%s %s\n", labelStyle.Render("Experience:"), valueStyle.Render(r.Job.Experience))
		}
		if len(r.Job.Skills) > 0 {
			cmd.Printf("%s %s\n", labelStyle.Render("Skills:"), valueStyle.Render(strings.Join(r.Job.Skills, ", ")))
		}
		if len(r.Links) > 0 {
			cmd.Printf("%s %s\n", labelStyle.Render("Portfolio:"), valueStyle.Render(strings.Join(r.Links, ", ")))
		}
		cmd.Println()
		cmd.Println(r.Email)

		if save {
			draft, err := a.Tracker.Record(cmd.Context(), user.ID, url, r.Job, r.Email)
			if err != nil {
				return err
			}
			cmd.Println(successStyle.Render(fmt.Sprintf("\n✓ Saved as draft #%d", draft.ID)))
		}
	}

	if !save {
		cmd.Println(mutedStyle.Render("\nTo track these emails, run again with --save"))
	}
	return nil
}

// readBatchFile returns the URLs in path, one per line. Blank lines and
// lines starting with # are skipped.
func readBatchFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading batch file: %w", err)
	}

	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs found in %s", path)
	}
	return urls, nil
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().Bool("save", false, "save the generated emails as drafts in the tracker")
	generateCmd.Flags().Int("top-k", 0, "portfolio links to retrieve per skill (defaults to top_k)")
	generateCmd.Flags().String("batch", "", "read URLs from a file, one per line")
}
