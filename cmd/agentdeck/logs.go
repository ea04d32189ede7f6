// ABOUTME: logs subcommand: query the durable execution log
// ABOUTME: Supports recent, per-hook, and fuzzy text queries

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/logstore"
)

var (
	flagLogCount int
	flagLogHook  string
	flagLogQuery string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show hook execution history",
	RunE: func(_ *cobra.Command, _ []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		dbPath := settings.LogDBPath
		if dbPath == "" {
			dbPath = config.LogDBFile()
		}

		logs, err := logstore.Open(dbPath, settings.LogCap)
		if err != nil {
			return err
		}
		defer logs.Close()

		var entries []logstore.Entry
		switch {
		case flagLogHook != "":
			entries, err = logs.ByHook(flagLogHook, flagLogCount)
		case flagLogQuery != "":
			entries, err = logs.Search(flagLogQuery, flagLogCount)
		default:
			entries, err = logs.Recent(flagLogCount)
		}
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No log entries.")
			return nil
		}
		for _, e := range entries {
			ts := time.UnixMilli(e.TimestampMs).Format("2006-01-02 15:04:05")
			status := "ok"
			if !e.Success {
				status = "FAIL"
			}
			fmt.Printf("%s  %-4s %-20s %4dms", ts, status, e.HookName, e.DurationMs)
			if e.Error != "" {
				fmt.Printf("  %s", e.Error)
			} else if e.Result != "" {
				fmt.Printf("  %s", e.Result)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().IntVarP(&flagLogCount, "count", "n", 50, "maximum entries to show")
	logsCmd.Flags().StringVar(&flagLogHook, "hook", "", "filter by hook id")
	logsCmd.Flags().StringVarP(&flagLogQuery, "query", "q", "", "fuzzy text query")
}
