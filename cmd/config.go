package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/khrees2412/coldreach/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  "View and update configuration settings",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(titleStyle.Render("Configuration"))
		cmd.Printf("%s %s\n\n", labelStyle.Render("Config File:"), config.GetConfigPath())

		for _, key := range config.ValidKeys {
			value := config.Get(key)
			switch {
			case config.IsSecret(key) && value != "":
				value = "✓ Configured"
			case config.IsSecret(key):
				value = "✗ Not configured"
			case value == "":
				value = mutedStyle.Render("(unset)")
			}
			cmd.Printf("%s %s\n", labelStyle.Render(key+":"), value)
		}
	},
}

var setConfigCmd = &cobra.Command{
	Use:   "set",
	Short: "Update a configuration value",
	Example: `  coldreach config set --key gemini_key --value AIza...
  coldreach config set --key ai_provider --value ollama
  coldreach config set --key default_model --value llama3.2
  coldreach config set --key cache_backend --value redis
  coldreach config set --key redis_url --value redis://localhost:6379/0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		value, _ := cmd.Flags().GetString("value")

		if key == "" {
			return errors.New("--key is required")
		}

		if err := config.Set(key, value); err != nil {
			return err
		}

		cmd.Printf("✓ Configuration updated: %s\n", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(setConfigCmd)

	// Flags for set command
	setConfigCmd.Flags().String("key", "", "Configuration key")
	setConfigCmd.Flags().String("value", "", "Configuration value")
}
