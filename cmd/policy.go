package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Show or change behavior settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		doc, err := env.svc.Document()
		if err != nil {
			return err
		}
		p := doc.Policy
		fmt.Printf("grace window:     ±%d minutes\n", p.GraceMinutes)
		if p.LateCutoffMinutes > 0 {
			fmt.Printf("late tier cutoff: %d minutes\n", p.LateCutoffMinutes)
		} else {
			fmt.Println("late tier cutoff: disabled")
		}
		fmt.Printf("day reset:        %s\n", p.ResetTimeOfDay)
		fmt.Printf("rollover:         %v\n", p.RolloverEnabled)
		return nil
	},
}

var policySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change behavior settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		doc, err := env.svc.Document()
		if err != nil {
			return err
		}
		p := doc.Policy
		if cmd.Flags().Changed("grace") {
			p.GraceMinutes, _ = cmd.Flags().GetInt("grace")
		}
		if cmd.Flags().Changed("late-cutoff") {
			p.LateCutoffMinutes, _ = cmd.Flags().GetInt("late-cutoff")
		}
		if cmd.Flags().Changed("rollover") {
			p.RolloverEnabled, _ = cmd.Flags().GetBool("rollover")
		}

		if err := env.svc.UpdatePolicy(cmd.Context(), p); err != nil {
			return err
		}
		fmt.Println("Policy updated")
		return nil
	},
}

func init() {
	policySetCmd.Flags().Int("grace", 30, "Grace window in minutes (0-720)")
	policySetCmd.Flags().Int("late-cutoff", 0, "Reduced-award cutoff in minutes, 0 disables")
	policySetCmd.Flags().Bool("rollover", false, "Carry incomplete tasks to the next day")
	policyCmd.AddCommand(policySetCmd)
}
