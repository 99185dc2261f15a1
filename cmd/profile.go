package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/khrees2412/coldreach/internal/app"
	"github.com/khrees2412/coldreach/internal/config"
	"github.com/khrees2412/coldreach/pkg/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginTop(1).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

const (
	promptAddItem    = "Add a portfolio item"
	promptRemoveItem = "Remove a portfolio item"
	promptDone       = "Done"
)

var validate = validator.New()

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage sender profiles",
	Long:  "Create and update the sender details and portfolio used to write your emails",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a profile with an interactive wizard",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd)

		cmd.Println(titleStyle.Render("Welcome to coldreach! Let's set up your profile."))

		user := &models.User{}
		if err := promptFields(user); err != nil {
			return err
		}

		existing, err := a.Users.GetUserByEmail(cmd.Context(), user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			cmd.Println("A profile for that email already exists. Use 'coldreach profile edit' to change it.")
			return nil
		}

		if err := promptPortfolio(user); err != nil {
			return err
		}

		result, err := a.SaveProfile(cmd.Context(), user)
		if err != nil {
			return err
		}
		if err := config.Set("active_user", user.Email); err != nil {
			return fmt.Errorf("profile saved but could not make it active: %w", err)
		}

		cmd.Println(titleStyle.Render("✓ Profile created successfully!"))
		printSync(cmd, result)
		cmd.Println("Next steps:")
		cmd.Println("  1. Configure your AI API key: coldreach config set --key gemini_key --value YOUR_KEY")
		cmd.Println("  2. Draft emails for a careers page: coldreach generate <url>")
		return nil
	},
}

var showProfileCmd = &cobra.Command{
	Use:   "show",
	Short: "Display your profile information",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		cmd.Println(titleStyle.Render("Your Profile"))
		cmd.Printf("%s %s\n", labelStyle.Render("Name:"), valueStyle.Render(user.Name))
		cmd.Printf("%s %s\n", labelStyle.Render("Email:"), valueStyle.Render(user.Email))
		cmd.Printf("%s %s\n", labelStyle.Render("Position:"), valueStyle.Render(user.Position))
		cmd.Printf("%s %s\n", labelStyle.Render("Company:"), valueStyle.Render(user.Company))
		if user.Email == a.Config.ActiveUser {
			cmd.Println(mutedStyle.Render("(active profile)"))
		}

		if len(user.Portfolio) > 0 {
			cmd.Println(labelStyle.Render("\nPortfolio:"))
			for _, item := range user.Portfolio {
				cmd.Printf("  • %s\n    %s\n", item.Techstack, mutedStyle.Render(item.Link))
			}
		}
		return nil
	},
}

var editProfileCmd = &cobra.Command{
	Use:   "edit",
	Short: "Interactively edit your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		cmd.Println(titleStyle.Render("Edit Profile"))
		cmd.Println("Press Enter to keep the current value")

		if err := promptFields(user); err != nil {
			return err
		}
		if err := promptPortfolio(user); err != nil {
			return err
		}

		result, err := a.SaveProfile(cmd.Context(), user)
		if err != nil {
			return err
		}

		cmd.Println(successStyle.Render("\n✓ Profile updated successfully!"))
		printSync(cmd, result)
		return nil
	},
}

var setProfileCmd = &cobra.Command{
	Use:   "set",
	Short: "Update a profile field",
	Example: `  coldreach profile set --name "Mohan"
  coldreach profile set --position "Business Development Executive" --company AtliQ`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, user, err := currentUser(cmd)
		if err != nil {
			return err
		}

		previousEmail := user.Email
		updated := false
		for flag, field := range map[string]*string{
			"name":     &user.Name,
			"email":    &user.Email,
			"position": &user.Position,
			"company":  &user.Company,
		} {
			if v, _ := cmd.Flags().GetString(flag); v != "" {
				*field = v
				updated = true
			}
		}

		if !updated {
			cmd.Println("No fields to update. Use flags like --name, --position, etc.")
			return nil
		}

		if _, err := a.SaveProfile(cmd.Context(), user); err != nil {
			return err
		}
		if previousEmail == a.Config.ActiveUser && user.Email != previousEmail {
			if err := config.Set("active_user", user.Email); err != nil {
				return err
			}
		}
		cmd.Println(successStyle.Render("✓ Profile updated successfully!"))
		return nil
	},
}

var useProfileCmd = &cobra.Command{
	Use:   "use <email>",
	Short: "Make a profile the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd)

		user, err := a.Users.GetUserByEmail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("%w for %s", app.ErrNoProfile, args[0])
		}

		if err := config.Set("active_user", user.Email); err != nil {
			return err
		}
		cmd.Printf("✓ Now acting as %s (%s)\n", user.Name, user.Email)
		return nil
	},
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd)

		users, err := a.Users.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			cmd.Println("No profiles yet. Run 'coldreach profile init' to create one.")
			return nil
		}

		cmd.Println(titleStyle.Render("Profiles"))
		for _, u := range users {
			marker := " "
			if u.Email == a.Config.ActiveUser {
				marker = "*"
			}
			cmd.Printf("%s %s %s\n", marker, labelStyle.Render(u.Email), valueStyle.Render(fmt.Sprintf("%s, %s at %s", u.Name, u.Position, u.Company)))
		}
		return nil
	},
}

// promptFields asks for each sender field, offering the current value as default.
func promptFields(user *models.User) error {
	fields := []struct {
		label string
		value *string
		rule  string
	}{
		{"Full Name", &user.Name, "required"},
		{"Email", &user.Email, "required,email"},
		{"Position", &user.Position, "required"},
		{"Company", &user.Company, "required"},
	}

	for _, f := range fields {
		rule := f.rule
		prompt := promptui.Prompt{
			Label:   f.label,
			Default: *f.value,
			Validate: func(input string) error {
				return validate.Var(strings.TrimSpace(input), rule)
			},
		}
		v, err := prompt.Run()
		if err != nil {
			return err
		}
		*f.value = strings.TrimSpace(v)
	}
	return nil
}

// promptPortfolio lets the user add and remove tech-stack/link pairs until Done.
func promptPortfolio(user *models.User) error {
	for {
		items := []string{promptAddItem}
		if len(user.Portfolio) > 0 {
			items = append(items, promptRemoveItem)
		}
		items = append(items, promptDone)

		sel := promptui.Select{
			Label: fmt.Sprintf("Portfolio (%d items)", len(user.Portfolio)),
			Items: items,
		}
		_, choice, err := sel.Run()
		if err != nil {
			return err
		}

		switch choice {
		case promptAddItem:
			item, err := promptItem()
			if err != nil {
				return err
			}
			user.Portfolio = append(user.Portfolio, item)
		case promptRemoveItem:
			labels := make([]string, len(user.Portfolio))
			for i, item := range user.Portfolio {
				labels[i] = fmt.Sprintf("%s (%s)", item.Techstack, item.Link)
			}
			idx, _, err := (&promptui.Select{Label: "Remove which item?", Items: labels}).Run()
			if err != nil {
				return err
			}
			user.Portfolio = append(user.Portfolio[:idx], user.Portfolio[idx+1:]...)
		default:
			return nil
		}
	}
}

func promptItem() (models.PortfolioItem, error) {
	techstack, err := (&promptui.Prompt{
		Label: "Tech stack (e.g. React, Node.js, MongoDB)",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("tech stack is required")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return models.PortfolioItem{}, err
	}

	link, err := (&promptui.Prompt{
		Label: "Link",
		Validate: func(input string) error {
			return validate.Var(strings.TrimSpace(input), "required,url|fqdn")
		},
	}).Run()
	if err != nil {
		return models.PortfolioItem{}, err
	}

	return models.PortfolioItem{Techstack: strings.TrimSpace(techstack), Link: strings.TrimSpace(link)}, nil
}

func printSync(cmd *cobra.Command, result app.ProfileSync) {
	cmd.Printf("%s %d added, %d unchanged, %d removed", labelStyle.Render("Portfolio index:"),
		result.Inserted, result.Existing, result.Pruned)
	if result.Failed > 0 {
		cmd.Print(errorStyle.Render(fmt.Sprintf(", %d failed (run with --debug for details)", result.Failed)))
	}
	cmd.Println()
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(initCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(editProfileCmd)
	profileCmd.AddCommand(setProfileCmd)
	profileCmd.AddCommand(useProfileCmd)
	profileCmd.AddCommand(listProfilesCmd)

	// Flags for set command
	setProfileCmd.Flags().String("name", "", "Update name")
	setProfileCmd.Flags().String("email", "", "Update email")
	setProfileCmd.Flags().String("position", "", "Update position")
	setProfileCmd.Flags().String("company", "", "Update company")
}
