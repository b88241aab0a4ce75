package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hedging-my-bets/petprogress/internal/calendar"
	"github.com/hedging-my-bets/petprogress/internal/tasks"
	"github.com/hedging-my-bets/petprogress/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the companion and today's tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd)
	},
}

func init() {
	listCmd.Flags().String("day", "", "Day to list, YYYY-MM-DD (default today)")
	listCmd.Flags().Bool("ids", false, "Show task ids")
}

// runList backs both `list` and the bare root command.
func runList(cmd *cobra.Command) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	ctx := cmd.Context()
	now := time.Now()
	if _, err := env.svc.ApplyCloseoutIfNeeded(ctx, now); err != nil {
		return err
	}
	if _, err := env.svc.ReconcileWidgetActions(ctx, now); err != nil {
		return err
	}

	loc := env.svc.Location()
	day, _ := cmd.Flags().GetString("day")
	if day == "" {
		day = calendar.DayKey(now, loc)
	} else if !calendar.ValidDayKey(day) {
		return fmt.Errorf("invalid day %q, want YYYY-MM-DD", day)
	}

	doc, err := env.svc.Document()
	if err != nil {
		return err
	}
	list, err := tasks.Materialize(doc, day)
	if err != nil {
		return err
	}

	prog := env.svc.Progression()
	fmt.Println(ui.RenderStatus(prog.StageIndex, prog.StageXP, env.svc.Stages(), ui.MoodIdle))
	fmt.Println()
	fmt.Println(ui.RenderTaskList(list, calendar.MinutesSinceMidnight(now, loc), doc.Policy.GraceMinutes))

	if ids, _ := cmd.Flags().GetBool("ids"); ids {
		fmt.Println()
		for _, m := range list {
			fmt.Printf("%s  %s\n", m.ID, m.Title)
		}
	}
	return nil
}
