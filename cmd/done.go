package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hedging-my-bets/petprogress/internal/ui"
)

var doneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
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

		res, err := env.svc.MarkDone(ctx, args[0], now)
		if err != nil {
			return err
		}

		switch {
		case res.OnTime:
			fmt.Printf("On time! +%d points (%d total)\n", res.Awarded, res.PointsAfter)
		case res.LateTier:
			fmt.Printf("A bit late. +%d points (%d total)\n", res.Awarded, res.PointsAfter)
		default:
			fmt.Printf("Done, but outside the window. %d points\n", res.PointsAfter)
		}

		mood := ui.MoodIdle
		if res.StageAfter > res.StageBefore {
			mood = ui.MoodCelebrating
			fmt.Printf("Your companion evolved into %s!\n", env.svc.Stages()[res.StageAfter].Name)
		}
		fmt.Println(ui.RenderStatus(res.StageAfter, res.PointsAfter, env.svc.Stages(), mood))
		return nil
	},
}
