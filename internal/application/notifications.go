package application

import (
	"context"
	"sync"

	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/logfields"
	"github.com/bnema/fasttrack-cli/internal/ports"
)

// NotificationGateway decides whether a notification reaches the delivery
// channel. Missing permission and delivery failures never surface as errors.
type NotificationGateway struct {
	notifier ports.Notifier
	observability

	mu      sync.Mutex
	granted bool
}

func NewNotificationGateway(notifier ports.Notifier, opts ...Option) *NotificationGateway {
	return &NotificationGateway{
		notifier:      notifier,
		observability: newObservability(opts),
	}
}

func (g *NotificationGateway) Notify(ctx context.Context, notification domain.Notification) bool {
	if g == nil || g.notifier == nil {
		return false
	}

	if !g.ensurePermission(ctx) {
		g.logger.Debug("Notification permission not granted", logfields.Tag(notification.Tag))
		g.recorder.IncNotification(notification.Tag, false)
		return false
	}

	delivered, err := g.notifier.Send(ctx, notification)
	if err != nil {
		g.logger.Warn("Notification delivery failed",
			logfields.Tag(notification.Tag),
			logfields.Error(err))
		delivered = false
	}
	g.recorder.IncNotification(notification.Tag, delivered)

	return delivered
}

// ensurePermission caches a granted answer; a refusal is asked again next time.
func (g *NotificationGateway) ensurePermission(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.granted {
		return true
	}

	granted, err := g.notifier.RequestPermission(ctx)
	if err != nil {
		g.logger.Warn("Notification permission request failed", logfields.Error(err))
		return false
	}
	g.granted = granted

	return granted
}
