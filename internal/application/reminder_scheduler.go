package application

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/logfields"
	"github.com/bnema/fasttrack-cli/internal/ports"
)

const (
	DefaultReminderInterval  = 2 * time.Hour
	DefaultReminderThreshold = 0.8
)

var DefaultActiveHours = domain.ActiveHours{StartHour: 8, EndHour: 22}

type HydrationSource interface {
	TodayHydration(ctx context.Context, now time.Time) (domain.HydrationStatus, error)
}

type ReminderConfig struct {
	Interval    time.Duration
	ActiveHours domain.ActiveHours
	Threshold   float64
}

// ReminderScheduler nudges about hydration every interval while the user is
// behind on the daily goal. It does not remember earlier reminders.
type ReminderScheduler struct {
	source  HydrationSource
	gateway *NotificationGateway
	clock   ports.Clock
	window  domain.ActiveHours
	ratio   float64
	job     *periodicJob
	observability
}

func NewReminderScheduler(cron gocron.Scheduler, source HydrationSource, gateway *NotificationGateway, clock ports.Clock, cfg ReminderConfig, opts ...Option) *ReminderScheduler {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultReminderInterval
	}

	window := cfg.ActiveHours
	if window.EndHour <= window.StartHour {
		window = DefaultActiveHours
	}

	ratio := cfg.Threshold
	if ratio <= 0 || ratio > 1 {
		ratio = DefaultReminderThreshold
	}

	obs := newObservability(opts)

	return &ReminderScheduler{
		source:        source,
		gateway:       gateway,
		clock:         clock,
		window:        window,
		ratio:         ratio,
		observability: obs,
		job:           &periodicJob{cron: cron, name: "hydration-reminders", interval: interval, logger: obs.logger},
	}
}

func (r *ReminderScheduler) Start(ctx context.Context) error {
	return r.job.start(ctx, func(ctx context.Context) { r.Tick(ctx) })
}

func (r *ReminderScheduler) Stop() error {
	return r.job.stop()
}

func (r *ReminderScheduler) Running() bool {
	return r.job.running()
}

// Tick reports whether a reminder was requested.
func (r *ReminderScheduler) Tick(ctx context.Context) bool {
	now := r.clock.Now()
	if !r.window.Contains(now.Hour()) {
		return false
	}

	status, err := r.source.TodayHydration(ctx, now)
	if err != nil {
		r.logger.Warn("Read hydration status failed", logfields.Error(err))
		return false
	}
	if status.GoalML <= 0 || status.Fraction() >= r.ratio {
		return false
	}

	r.logger.Info("Hydration below goal",
		logfields.Hydration(status.ConsumedML),
		logfields.Goal(status.GoalML))
	r.recorder.IncHydrationReminder()
	r.gateway.Notify(ctx, domain.HydrationReminderNotification(status))

	return true
}
