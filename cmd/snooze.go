package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var snoozeCmd = &cobra.Command{
	Use:   "snooze <task-id>",
	Short: "Push a task later in its day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		ctx := cmd.Context()
		if _, err := env.svc.ApplyCloseoutIfNeeded(ctx, time.Now()); err != nil {
			return err
		}

		minutes, _ := cmd.Flags().GetInt("minutes")
		if err := env.svc.Snooze(ctx, args[0], minutes); err != nil {
			return err
		}
		fmt.Printf("Snoozed %s by %d minutes\n", args[0], minutes)
		return nil
	},
}

func init() {
	snoozeCmd.Flags().Int("minutes", 30, "How far to push the task")
}
