package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khrees2412/coldreach/pkg/models"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Manage the portfolio links cited in your emails",
}

var listPortfolioCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed portfolio entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		entries, err := a.Portfolio.List(cmd.Context(), user.ID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			cmd.Println("No portfolio entries. Add one with 'coldreach portfolio add <techstack> <link>'")
			return nil
		}

		cmd.Println(titleStyle.Render("Portfolio"))
		for _, e := range entries {
			cmd.Printf("  • %s\n    %s\n", e.Techstack, mutedStyle.Render(e.Link))
		}
		if len(entries) != len(user.Portfolio) {
			cmd.Println(mutedStyle.Render("\nIndex differs from your profile. Run 'coldreach portfolio sync'"))
		}
		return nil
	},
}

var addPortfolioCmd = &cobra.Command{
	Use:     "add <techstack> <link>",
	Short:   "Add a tech-stack/link pair to your portfolio",
	Args:    cobra.ExactArgs(2),
	Example: `  coldreach portfolio add "React, Node.js, MongoDB" https://example.com/react-portfolio`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		item := models.PortfolioItem{Techstack: strings.TrimSpace(args[0]), Link: strings.TrimSpace(args[1])}
		for _, existing := range user.Portfolio {
			if existing == item {
				cmd.Println("That item is already in your portfolio.")
				return nil
			}
		}
		user.Portfolio = append(user.Portfolio, item)

		result, err := a.SaveProfile(cmd.Context(), user)
		if err != nil {
			return err
		}
		cmd.Println(successStyle.Render("✓ Portfolio item added"))
		printSync(cmd, result)
		return nil
	},
}

var removePortfolioCmd = &cobra.Command{
	Use:   "remove <link>",
	Short: "Remove every portfolio item pointing at a link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		link := strings.TrimSpace(args[0])
		kept := make([]models.PortfolioItem, 0, len(user.Portfolio))
		for _, item := range user.Portfolio {
			if item.Link != link {
				kept = append(kept, item)
			}
		}
		if len(kept) == len(user.Portfolio) {
			return fmt.Errorf("no portfolio item links to %s", link)
		}
		user.Portfolio = kept

		result, err := a.SaveProfile(cmd.Context(), user)
		if err != nil {
			return err
		}
		cmd.Println(successStyle.Render("✓ Portfolio item removed"))
		printSync(cmd, result)
		return nil
	},
}

var syncPortfolioCmd = &cobra.Command{
	Use:   "sync",
	Short: "Re-index your portfolio",
	Long:  "Index any portfolio items missing from the search index and drop entries no longer in your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		result, err := a.SyncProfile(cmd.Context(), user)
		if err != nil {
			return err
		}
		printSync(cmd, result)
		return nil
	},
}

var queryPortfolioCmd = &cobra.Command{
	Use:     "query <skill>...",
	Short:   "Show the links that would be cited for a set of skills",
	Args:    cobra.MinimumNArgs(1),
	Example: `  coldreach portfolio query React "Machine Learning"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		topK, _ := cmd.Flags().GetInt("top-k")
		if topK <= 0 {
			topK = a.Config.TopK
		}

		links := a.Portfolio.QueryRelevantLinks(cmd.Context(), user.ID, args, topK)
		if len(links) == 0 {
			cmd.Println("No matching portfolio links.")
			return nil
		}
		for i, link := range links {
			cmd.Printf("%d. %s\n", i+1, link)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
	portfolioCmd.AddCommand(listPortfolioCmd)
	portfolioCmd.AddCommand(addPortfolioCmd)
	portfolioCmd.AddCommand(removePortfolioCmd)
	portfolioCmd.AddCommand(syncPortfolioCmd)
	portfolioCmd.AddCommand(queryPortfolioCmd)

	queryPortfolioCmd.Flags().Int("top-k", 0, "links to retrieve per skill (defaults to top_k)")
}
