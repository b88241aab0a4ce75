package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hedging-my-bets/petprogress/internal/calendar"
	"github.com/hedging-my-bets/petprogress/internal/state"
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long: "Add a one-off task for a day, or a recurring series with --daily\n" +
		"or --weekly.",
	Args: cobra.MinimumNArgs(1),
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

		title := strings.Join(args, " ")
		at, _ := cmd.Flags().GetString("at")
		tod, err := state.ParseTimeOfDay(at)
		if err != nil {
			return err
		}

		daily, _ := cmd.Flags().GetBool("daily")
		weekly, _ := cmd.Flags().GetString("weekly")

		switch {
		case daily && weekly != "":
			return fmt.Errorf("--daily and --weekly are mutually exclusive")
		case daily:
			series, err := env.svc.AddSeries(ctx, title, tod, state.RepeatRule{Kind: state.RepeatDaily})
			if err != nil {
				return err
			}
			fmt.Printf("Added daily series %q at %s (%s)\n", series.Title, series.TimeOfDay, series.ID)
		case weekly != "":
			days, err := parseWeekdays(weekly)
			if err != nil {
				return err
			}
			series, err := env.svc.AddSeries(ctx, title, tod, state.RepeatRule{Kind: state.RepeatWeekly, Weekdays: days})
			if err != nil {
				return err
			}
			fmt.Printf("Added weekly series %q at %s (%s)\n", series.Title, series.TimeOfDay, series.ID)
		default:
			day, _ := cmd.Flags().GetString("day")
			if day == "" {
				day = calendar.DayKey(now, env.svc.Location())
			}
			task, err := env.svc.AddTask(ctx, title, day, tod)
			if err != nil {
				return err
			}
			fmt.Printf("Added %q on %s at %s (%s)\n", task.Title, task.DayKey, task.TimeOfDay, task.ID)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().String("at", "09:00", "Scheduled time, HH:MM")
	addCmd.Flags().String("day", "", "Day for a one-off task, YYYY-MM-DD (default today)")
	addCmd.Flags().Bool("daily", false, "Repeat every day")
	addCmd.Flags().String("weekly", "", "Repeat on weekdays, e.g. mon,wed,fri")
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if len(name) > 3 {
			name = name[:3]
		}
		wd, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		out = append(out, wd)
	}
	return out, nil
}
