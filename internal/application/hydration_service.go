package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/ports"
)

const DefaultHydrationGoalML = 2500

type HydrationService struct {
	repo   ports.HydrationRepository
	clock  ports.Clock
	goalML int
}

var _ HydrationSource = (*HydrationService)(nil)

func NewHydrationService(repo ports.HydrationRepository, clock ports.Clock, goalML int) *HydrationService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if goalML < 0 {
		goalML = 0
	}

	return &HydrationService{repo: repo, clock: clock, goalML: goalML}
}

func (s *HydrationService) LogIntake(ctx context.Context, amountML int) (domain.HydrationStatus, error) {
	if amountML <= 0 {
		return domain.HydrationStatus{}, fmt.Errorf("%w: %d", domain.ErrInvalidAmount, amountML)
	}

	now := s.clock.Now()
	if err := s.repo.Append(ctx, domain.HydrationEntry{At: now, AmountML: amountML}); err != nil {
		return domain.HydrationStatus{}, fmt.Errorf("save hydration entry: %w", err)
	}

	return s.TodayHydration(ctx, now)
}

func (s *HydrationService) Today(ctx context.Context) (domain.HydrationStatus, error) {
	return s.TodayHydration(ctx, s.clock.Now())
}

func (s *HydrationService) TodayHydration(ctx context.Context, now time.Time) (domain.HydrationStatus, error) {
	day := domain.StartOfDay(now)
	entries, err := s.repo.ListBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return domain.HydrationStatus{}, fmt.Errorf("list hydration entries: %w", err)
	}

	status := domain.HydrationStatus{Day: day, GoalML: s.goalML}
	for _, entry := range entries {
		status.ConsumedML += entry.AmountML
	}

	return status, nil
}
