// Command screams is a command-line client for the Screams API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	outputFmt  string
)

var rootCmd = &cobra.Command{
	Use:   "screams",
	Short: "Screams CLI - post, like and comment from the terminal",
	Long: `Screams CLI provides command-line access to a Screams server.
Log in once with "screams login"; the token is kept in the config file.`,
	SilenceUsage: true,
}

func init() {
	// Assigned here rather than in the literal: initConfig reads rootCmd's flags
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := initConfig(configPath); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}
		return nil
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/screams/cli.toml)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	rootCmd.PersistentFlags().String("api", "", "API server URL (overrides api.base_url)")
	rootCmd.PersistentFlags().String("token", "", "ID token (overrides auth.token and SCREAMS_AUTH_TOKEN)")

	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, passwordCmd, verifyCmd)
	rootCmd.AddCommand(screamsCmd, meCmd, userCmd, profileCmd, notificationsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
