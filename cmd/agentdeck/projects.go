// ABOUTME: projects subcommands: list, add, remove registered projects
// ABOUTME: Edits the YAML registry; the daemon picks changes up on restart

package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/registry"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage the project registry",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsAddCmd)
	projectsCmd.AddCommand(projectsRemoveCmd)
}

func openRegistry() (*registry.FileRegistry, error) {
	return registry.Load(config.RegistryFile())
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	RunE: func(_ *cobra.Command, _ []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		projects := reg.Projects()
		if len(projects) == 0 {
			fmt.Println("No registered projects.")
			return nil
		}
		names := make([]string, 0, len(projects))
		for name := range projects {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%-24s %s\n", name, projects[name].Path)
		}
		return nil
	},
}

var projectsAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Register a project directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[1])
		if err != nil {
			return err
		}
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		if err := reg.Add(args[0], path); err != nil {
			return err
		}
		fmt.Printf("Registered %s -> %s\n", args[0], path)
		return nil
	},
}

var projectsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a project from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		if err := reg.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}
