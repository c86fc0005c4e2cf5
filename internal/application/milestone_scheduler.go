package application

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/logfields"
	"github.com/bnema/fasttrack-cli/internal/ports"
)

const DefaultMilestoneInterval = time.Minute

// SessionSnapshotter is the read side of SessionState that schedulers depend on.
type SessionSnapshotter interface {
	Snapshot() domain.FastSession
}

type MilestoneConfig struct {
	Interval time.Duration
	Hours    []int
}

// MilestoneScheduler fires each threshold at most once per session lifetime.
// The fired set lives in memory only.
type MilestoneScheduler struct {
	session    SessionSnapshotter
	gateway    *NotificationGateway
	clock      ports.Clock
	thresholds []int
	job        *periodicJob
	observability

	mu         sync.Mutex
	sessionKey string
	fired      map[int]struct{}
}

func NewMilestoneScheduler(cron gocron.Scheduler, session SessionSnapshotter, gateway *NotificationGateway, clock ports.Clock, cfg MilestoneConfig, opts ...Option) *MilestoneScheduler {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	thresholds := domain.NormalizeMilestoneHours(cfg.Hours)
	if len(thresholds) == 0 {
		thresholds = domain.DefaultMilestoneHours()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultMilestoneInterval
	}

	obs := newObservability(opts)

	return &MilestoneScheduler{
		session:       session,
		gateway:       gateway,
		clock:         clock,
		thresholds:    thresholds,
		observability: obs,
		job:           &periodicJob{cron: cron, name: "milestones", interval: interval, logger: obs.logger},
		fired:         map[int]struct{}{},
	}
}

func (m *MilestoneScheduler) Start(ctx context.Context) error {
	return m.job.start(ctx, func(ctx context.Context) { m.Tick(ctx) })
}

func (m *MilestoneScheduler) Stop() error {
	return m.job.stop()
}

func (m *MilestoneScheduler) Running() bool {
	return m.job.running()
}

// Tick re-reads the session and returns the thresholds it fired, ascending.
func (m *MilestoneScheduler) Tick(ctx context.Context) []int {
	snapshot := m.session.Snapshot()
	now := m.clock.Now()

	m.mu.Lock()
	if !snapshot.Status.InProgress() {
		m.resetLocked("")
		m.mu.Unlock()
		m.recorder.SetFastElapsed(0)
		return nil
	}

	if key := snapshot.Key(); key != m.sessionKey {
		m.resetLocked(key)
	}

	elapsed := snapshot.Elapsed(now)
	hours := elapsed.Hours()

	var due []int
	for _, threshold := range m.thresholds {
		if float64(threshold) > hours {
			break
		}
		if _, ok := m.fired[threshold]; ok {
			continue
		}
		m.fired[threshold] = struct{}{}
		due = append(due, threshold)
	}
	m.mu.Unlock()

	m.recorder.SetFastElapsed(elapsed)

	for _, threshold := range due {
		m.logger.Info("Milestone reached",
			logfields.FastID(string(snapshot.ID)),
			logfields.Threshold(threshold))
		m.recorder.IncMilestoneFired(threshold)
		m.gateway.Notify(ctx, domain.MilestoneNotification(threshold))
	}

	return due
}

func (m *MilestoneScheduler) resetLocked(key string) {
	m.sessionKey = key
	if len(m.fired) > 0 {
		m.fired = map[int]struct{}{}
	}
}
