package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize with the studio server",
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Push pending changes and pull remote updates now",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app.SyncNow(cmd.Context())
		h, err := app.QueueHealth(cmd.Context())
		if err != nil {
			return err
		}
		if h.Pending == 0 {
			color.Green("Sync complete; queue is empty")
			return nil
		}
		color.Yellow("Sync pass finished with %d change(s) still pending", h.Pending)
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity and queue state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if app.Online() {
			color.Green("Server: reachable")
		} else {
			color.Red("Server: unreachable (working offline)")
		}
		h, err := app.QueueHealth(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Pending changes: %d\n", h.Pending)
		if h.Pending > 0 {
			fmt.Printf("Oldest pending:  %s\n", h.OldestPendingAge.Round(time.Second))
		}
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncRunCmd, syncStatusCmd)
}
