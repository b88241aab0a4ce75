package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hedging-my-bets/petprogress/internal/calendar"
	"github.com/hedging-my-bets/petprogress/internal/tasks"
	"github.com/hedging-my-bets/petprogress/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show progression and recent completion rates",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		prog := env.svc.Progression()
		fmt.Println(ui.RenderStatus(prog.StageIndex, prog.StageXP, env.svc.Stages(), ui.MoodIdle))
		fmt.Println()

		doc, err := env.svc.Document()
		if err != nil {
			return err
		}
		loc := env.svc.Location()
		days, _ := cmd.Flags().GetInt("days")

		day := calendar.DayKey(now, loc)
		for i := 0; i < days; i++ {
			list, err := tasks.Materialize(doc, day)
			if err != nil {
				return err
			}
			done := 0
			for _, m := range list {
				if m.Completed {
					done++
				}
			}
			if len(list) > 0 {
				bar := ui.ProgressBar{
					Label:       day,
					Percent:     float64(done) / float64(len(list)),
					ShowPercent: true,
					Width:       40,
				}
				fmt.Println(bar.View())
			} else {
				fmt.Printf("%s  —\n", day)
			}
			day, err = calendar.PrevDayKey(day, loc)
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("days", 7, "How many days back to report")
}
