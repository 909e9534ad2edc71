package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the pending change queue and failed side effects",
}

var queuePendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List changes waiting to be pushed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		entries, err := app.Store().PendingEntries(cmd.Context())
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%-14s %-36s %-6s attempts=%d enqueued=%s\n",
				e.EntityType, e.EntityID, e.Action, e.Attempts,
				e.EnqueuedAt.Format(time.RFC3339))
		}
		fmt.Printf("%d pending change(s)\n", len(entries))
		return nil
	},
}

var queueFollowupsCmd = &cobra.Command{
	Use:   "followups",
	Short: "List side effects that failed and await a manual retry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		list, err := app.FollowUps(cmd.Context())
		if err != nil {
			return err
		}
		for _, f := range list {
			color.Yellow("#%d booking=%s effect=%s at=%s",
				f.ID, f.BookingID, f.Effect, f.CreatedAt.Format(time.RFC3339))
			fmt.Printf("    %s\n", f.Error)
		}
		if len(list) == 0 {
			color.Green("No failed side effects")
		}
		return nil
	},
}

var queueResolveCmd = &cobra.Command{
	Use:   "resolve <followup-id>",
	Short: "Mark a failed side effect as handled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("parse follow-up id: %w", err)
		}
		if err := app.Store().ResolveFollowUp(cmd.Context(), id); err != nil {
			return err
		}
		color.Green("Follow-up #%d resolved", id)
		return nil
	},
}

func init() {
	queueCmd.AddCommand(queuePendingCmd, queueFollowupsCmd, queueResolveCmd)
}
