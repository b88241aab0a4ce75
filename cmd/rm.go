package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <task-id>",
	Short: "Delete a one-off task",
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
		if err := env.svc.DeleteTask(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}
