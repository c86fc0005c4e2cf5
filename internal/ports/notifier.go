package ports

import (
	"context"

	"github.com/bnema/fasttrack-cli/internal/domain"
)

type Notifier interface {
	RequestPermission(ctx context.Context) (bool, error)
	Send(ctx context.Context, notification domain.Notification) (bool, error)
}
