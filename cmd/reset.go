package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all tasks and progression",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("this erases everything; re-run with --yes to confirm")
		}
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		if err := env.svc.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Back to the egg.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
