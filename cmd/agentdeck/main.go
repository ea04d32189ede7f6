// ABOUTME: CLI entry point: root command, global flags, subcommand registration
// ABOUTME: serve runs the daemon; hooks/logs/projects are local management commands

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/log"
)

var (
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "agentdeck",
	Short: "Hook pipeline and management console for coding-assistant events",
	Long: `agentdeck runs user- and project-scoped hooks against coding-assistant
lifecycle events. PreToolUse events are evaluated synchronously and may
block the pending action; all other events are queued and processed in
arrival order.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagVerbose {
			log.SetLevel(log.LevelDebug)
		}
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "settings file (default ~/.agentdeck/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hooksCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(projectsCmd)
}

func loadSettings() (config.Settings, error) {
	path := flagConfig
	if path == "" {
		path = config.SettingsFile()
	}
	return config.LoadSettings(path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
