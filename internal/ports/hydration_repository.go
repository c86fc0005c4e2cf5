package ports

import (
	"context"
	"time"

	"github.com/bnema/fasttrack-cli/internal/domain"
)

type HydrationRepository interface {
	Append(ctx context.Context, entry domain.HydrationEntry) error
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.HydrationEntry, error)
}
