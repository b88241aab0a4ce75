package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"

	"github.com/hedging-my-bets/petprogress/internal/widget"
)

// daemonCmd keeps the document fresh without anyone opening the app:
// it runs the closeout and republishes the day summary on every hour
// boundary, and reconciles widget actions as soon as their mirror file
// changes.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background reconciler",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tick := func() {
			now := time.Now()
			if _, err := env.svc.ApplyCloseoutIfNeeded(ctx, now); err != nil {
				slog.Error("closeout failed", "error", err)
				return
			}
			if n, err := env.svc.ReconcileWidgetActions(ctx, now); err != nil {
				slog.Error("reconcile failed", "error", err)
			} else if n > 0 {
				slog.Info("reconciled widget actions", "count", n)
			}
			if err := env.svc.WriteDaySummary(ctx, now); err != nil {
				slog.Error("summary refresh failed", "error", err)
			}
		}
		tick()

		// The scheduler runs in the working timezone, so the top of
		// the hour tracks DST transitions.
		sched, err := gocron.NewScheduler(gocron.WithLocation(env.svc.Location()))
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		if _, err := sched.NewJob(
			gocron.CronJob("0 * * * *", false),
			gocron.NewTask(tick),
		); err != nil {
			return fmt.Errorf("schedule hourly job: %w", err)
		}
		sched.Start()
		defer func() {
			if err := sched.Shutdown(); err != nil {
				slog.Warn("scheduler shutdown failed", "error", err)
			}
		}()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(env.st.MirrorDir()); err != nil {
			return fmt.Errorf("watch mirror dir: %w", err)
		}

		actionsPath := env.st.MirrorPath(widget.ActionsKey)

		// Mirror writes land as a temp-file rename; debounce so one
		// user action triggers one reconcile.
		var debounce *time.Timer
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		slog.Info("daemon running", "dir", env.st.Dir())
		for {
			select {
			case <-ctx.Done():
				slog.Info("daemon stopping")
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Name != actionsPath || !ev.Op.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, tick)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				slog.Warn("watcher error", "error", err)
			}
		}
	},
}
