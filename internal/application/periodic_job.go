package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/bnema/fasttrack-cli/internal/logfields"
)

var errNilCron = errors.New("gocron scheduler is nil")

// periodicJob owns one gocron job handle. The gocron scheduler itself is shared
// and started/shut down by the host.
type periodicJob struct {
	cron     gocron.Scheduler
	name     string
	interval time.Duration
	logger   *slog.Logger

	mu sync.Mutex
	id uuid.UUID
}

func (j *periodicJob) start(ctx context.Context, tick func(context.Context)) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.id != uuid.Nil {
		return nil
	}
	if j.cron == nil {
		return errNilCron
	}
	if j.interval <= 0 {
		return fmt.Errorf("%s: interval must be positive, got %s", j.name, j.interval)
	}

	job, err := j.cron.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			tick(ctx)
		}),
		gocron.WithName(j.name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", j.name, err)
	}

	j.id = job.ID()
	j.logger.Info("Scheduled periodic check",
		logfields.Scheduler(j.name),
		logfields.JobID(j.id.String()),
		slog.Duration("interval", j.interval))

	return nil
}

func (j *periodicJob) stop() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.id == uuid.Nil {
		return nil
	}

	id := j.id
	j.id = uuid.Nil

	if err := j.cron.RemoveJob(id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		return fmt.Errorf("remove %s job: %w", j.name, err)
	}

	j.logger.Info("Stopped periodic check", logfields.Scheduler(j.name), logfields.JobID(id.String()))
	return nil
}

func (j *periodicJob) running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.id != uuid.Nil
}
