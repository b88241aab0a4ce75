package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "petprogress",
	Short: "Task tracker with a companion that grows when you finish on time",
	Long: "PetProgress — a personal task tracker whose virtual companion evolves\n" +
		"through stages as you complete tasks on time, and regresses when you\n" +
		"let days slip.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("data", "", "Path to the shared data directory (overrides PETPROGRESS_DATA env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to the config file")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(snoozeCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(widgetCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(versionCmd)
}
