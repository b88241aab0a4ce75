package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hedging-my-bets/petprogress/internal/ui"
	"github.com/hedging-my-bets/petprogress/internal/ui/theme"
	"github.com/hedging-my-bets/petprogress/internal/widget"
)

// widgetCmd groups the narrow-surface operations: a paged view over
// the day summary with one-tap done/skip. Useful for status bars and
// quick keybindings; every subcommand reconciles the day first.
var widgetCmd = &cobra.Command{
	Use:   "widget",
	Short: "Compact one-task-at-a-time view",
}

func init() {
	widgetCmd.AddCommand(widgetShowCmd)
	widgetCmd.AddCommand(widgetDoneCmd)
	widgetCmd.AddCommand(widgetSkipCmd)
	widgetCmd.AddCommand(widgetNextCmd)
	widgetCmd.AddCommand(widgetPrevCmd)
}

func openOps(cmd *cobra.Command) (*widget.Ops, *appEnv, error) {
	env, err := openEnv(cmd)
	if err != nil {
		return nil, nil, err
	}
	return widget.NewOps(env.st, env.svc), env, nil
}

func printView(v *widget.View) {
	s := v.Summary
	fmt.Println(ui.RenderPet(s.StageName))
	fmt.Printf("%s  %s\n", theme.Title.Render(s.StageName), theme.Subtitle.Render(fmt.Sprintf("%d pts", s.Points)))

	if len(s.Tasks) == 0 {
		fmt.Println(theme.Hint.Render("nothing scheduled today"))
		return
	}
	task := s.Tasks[v.Index]
	marker := theme.Pending.Render("·")
	if task.Completed {
		marker = theme.Done.Render("✓")
	}
	fmt.Printf("%s %s  %s  (%d/%d)\n", marker, task.TimeOfDay, task.Title, v.Index+1, len(s.Tasks))
}

var widgetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the task under the cursor",
	RunE: func(cmd *cobra.Command, args []string) error {
		ops, env, err := openOps(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		view, err := ops.Show(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		printView(view)
		return nil
	},
}

var widgetDoneCmd = &cobra.Command{
	Use:   "done",
	Short: "Complete the next pending task",
	RunE: func(cmd *cobra.Command, args []string) error {
		ops, env, err := openOps(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		task, err := ops.MarkNextDone(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Done: %s %s\n", task.TimeOfDay, task.Title)
		return nil
	},
}

var widgetSkipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Step past the next pending task without completing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ops, env, err := openOps(cmd)
		if err != nil {
			return err
		}
		defer env.close()
		return ops.SkipNext(cmd.Context(), time.Now())
	},
}

var widgetNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Move the cursor forward",
	RunE: func(cmd *cobra.Command, args []string) error {
		ops, env, err := openOps(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		view, err := ops.GoToNext(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		printView(view)
		return nil
	},
}

var widgetPrevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Move the cursor back",
	RunE: func(cmd *cobra.Command, args []string) error {
		ops, env, err := openOps(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		view, err := ops.GoToPrevious(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		printView(view)
		return nil
	},
}
