// ABOUTME: hooks subcommands: list, show, create, enable, disable, delete
// ABOUTME: Operates directly on hook directories; --project selects project scope

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/internal/hook"
	"github.com/agentdeck/agentdeck/internal/hookstore"
)

var flagHookProject string

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage hook files",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	hooksCmd.PersistentFlags().StringVarP(&flagHookProject, "project", "p", "", "project path (default: user scope)")

	hooksCmd.AddCommand(hooksListCmd)
	hooksCmd.AddCommand(hooksShowCmd)
	hooksCmd.AddCommand(hooksCreateCmd)
	hooksCmd.AddCommand(hooksEnableCmd)
	hooksCmd.AddCommand(hooksDisableCmd)
	hooksCmd.AddCommand(hooksDeleteCmd)
}

func hookScope() (hook.Scope, string) {
	if flagHookProject != "" {
		return hook.ScopeProject, flagHookProject
	}
	return hook.ScopeUser, ""
}

// openHookStore loads the selected scope into a fresh store. The CLI does
// not watch; it reads the directories as they are right now.
func openHookStore() (*hookstore.Store, hook.Scope, string, error) {
	scope, project := hookScope()
	store := hookstore.New()
	if err := store.LoadAll(scope, project); err != nil {
		return nil, scope, project, err
	}
	return store, scope, project, nil
}

var hooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hooks in the selected scope",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, scope, project, err := openHookStore()
		if err != nil {
			return err
		}

		enabled := store.AllEnabled(scope, project)
		if len(enabled) == 0 {
			fmt.Println("No enabled hooks.")
		}
		for _, h := range enabled {
			fmt.Printf("%-24s %-16s %-20s %s\n", h.FileName, h.Event, h.Pattern, h.Description)
		}

		disabled, err := store.Disabled(scope, project)
		if err != nil {
			return err
		}
		for _, name := range disabled {
			fmt.Printf("%-24s (disabled)\n", name)
		}
		return nil
	},
}

var hooksShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a hook's metadata and source",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, scope, project, err := openHookStore()
		if err != nil {
			return err
		}
		h, ok := store.Get(scope, project, args[0])
		if !ok {
			return fmt.Errorf("hook %q not found in %s scope", args[0], scope)
		}

		fmt.Printf("Name:    %s\n", h.Name)
		fmt.Printf("File:    %s\n", h.FileName)
		fmt.Printf("Event:   %s\n", h.Event)
		fmt.Printf("Pattern: %s\n", h.Pattern)
		if h.Description != "" {
			fmt.Printf("About:   %s\n", h.Description)
		}
		if h.Author != "" {
			fmt.Printf("Author:  %s\n", h.Author)
		}
		fmt.Println()
		fmt.Println(h.Source)
		return nil
	},
}

var hooksCreateCmd = &cobra.Command{
	Use:   "create <name> [source-file]",
	Short: "Create a hook from a source file or stdin",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		var (
			source []byte
			err    error
		)
		if len(args) == 2 {
			source, err = os.ReadFile(args[1])
		} else {
			source, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}

		store, scope, project, err := openHookStore()
		if err != nil {
			return err
		}
		if err := store.Create(scope, project, args[0], string(source)); err != nil {
			return err
		}
		fmt.Printf("Created %s hook %s\n", scope, args[0])
		return nil
	},
}

var hooksEnableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Move a hook out of the disabled directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, scope, project, err := openHookStore()
		if err != nil {
			return err
		}
		if err := store.Enable(scope, project, args[0]); err != nil {
			return err
		}
		fmt.Printf("Enabled %s\n", args[0])
		return nil
	},
}

var hooksDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Move a hook into the disabled directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, scope, project, err := openHookStore()
		if err != nil {
			return err
		}
		if err := store.Disable(scope, project, args[0]); err != nil {
			return err
		}
		fmt.Printf("Disabled %s\n", args[0])
		return nil
	},
}

var hooksDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a hook file permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, scope, project, err := openHookStore()
		if err != nil {
			return err
		}
		if err := store.Delete(scope, project, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}
