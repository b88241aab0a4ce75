package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hedging-my-bets/petprogress/internal/state"
)

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Retitle or reschedule a one-off task",
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

		doc, err := env.svc.Document()
		if err != nil {
			return err
		}
		task := doc.TaskByID(args[0])
		if task == nil {
			return fmt.Errorf("no one-off task %s", args[0])
		}

		title := task.Title
		if v, _ := cmd.Flags().GetString("title"); v != "" {
			title = v
		}
		tod := task.TimeOfDay
		if v, _ := cmd.Flags().GetString("at"); v != "" {
			tod, err = state.ParseTimeOfDay(v)
			if err != nil {
				return err
			}
		}

		if err := env.svc.UpdateTask(ctx, args[0], title, tod); err != nil {
			return err
		}
		fmt.Printf("Updated %q at %s\n", title, tod)
		return nil
	},
}

func init() {
	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().String("at", "", "New scheduled time, HH:MM")
}
