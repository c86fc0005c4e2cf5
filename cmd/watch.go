package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"

	"github.com/bnema/fasttrack-cli/internal/adapters/httpserver"
	"github.com/bnema/fasttrack-cli/internal/application"
	"github.com/bnema/fasttrack-cli/internal/logfields"
	"github.com/bnema/fasttrack-cli/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

func newWatchCmd(app *app) *cobra.Command {
	var listen string
	var syncEvery time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stay in the foreground and send milestone and hydration notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, app, listen, syncEvery)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Serve the local status API on this address (default watch.listen)")
	cmd.Flags().DurationVar(&syncEvery, "sync", 5*time.Minute, "Re-sync with the server this often (0 disables)")

	return cmd
}

func runWatch(ctx context.Context, app *app, listen string, syncEvery time.Duration) (err error) {
	outcome := app.session.InitializeFromRemote(ctx)
	app.logger.Info("Watching fast", logfields.Outcome(string(outcome)))

	cron, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	defer func() {
		if shutdownErr := cron.Shutdown(); shutdownErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown scheduler: %w", shutdownErr))
		}
	}()

	milestones := application.NewMilestoneScheduler(cron, app.session, app.gateway, app.clock, application.MilestoneConfig{
		Interval: app.cfg.Milestones.PollInterval,
		Hours:    app.cfg.Milestones.Hours,
	}, app.options()...)
	reminders := application.NewReminderScheduler(cron, app.hydration, app.gateway, app.clock, application.ReminderConfig{
		Interval:    app.cfg.Reminders.Interval,
		ActiveHours: app.cfg.Reminders.ActiveHours,
		Threshold:   app.cfg.Reminders.Threshold,
	}, app.options()...)

	if err := milestones.Start(ctx); err != nil {
		return err
	}
	if err := reminders.Start(ctx); err != nil {
		return errors.Join(err, milestones.Stop())
	}

	if syncEvery > 0 {
		if _, err := cron.NewJob(
			gocron.DurationJob(syncEvery),
			gocron.NewTask(func() { app.session.Resync(ctx) }),
			gocron.WithName("remote-sync"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return errors.Join(fmt.Errorf("schedule remote sync: %w", err), milestones.Stop(), reminders.Stop())
		}
	}

	cron.Start()

	var server *httpserver.Server
	if listen == "" {
		listen = app.cfg.Watch.Listen
	}
	if listen != "" {
		server = httpserver.NewServer(listen, httpserver.NewRouter(httpserver.Deps{
			Status:     app.session,
			Reconciler: app.session,
			Hydration:  app.hydration,
			Metrics:    metrics.HTTPHandler(app.registry),
			Logger:     app.logger,
		}), app.logger)
		if _, err := server.Start(); err != nil {
			return errors.Join(err, milestones.Stop(), reminders.Stop())
		}
	}

	<-ctx.Done()
	app.logger.Info("Stopping watch")

	errs := []error{milestones.Stop(), reminders.Stop()}
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		errs = append(errs, server.Shutdown(shutdownCtx))
	}

	return errors.Join(errs...)
}
