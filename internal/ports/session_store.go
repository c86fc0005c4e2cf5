package ports

import (
	"context"

	"github.com/bnema/fasttrack-cli/internal/domain"
)

// RemoteSessionStore is the backend of record for fasts. FetchActiveSession
// returns nil without error when no fast is running.
type RemoteSessionStore interface {
	FetchActiveSession(ctx context.Context) (*domain.RemoteSession, error)
	CreateSession(ctx context.Context, req domain.CreateSessionRequest) (domain.RemoteSession, error)
	EndSession(ctx context.Context, id domain.FastID, notes, mood string) (domain.EndSessionResult, error)
	PauseSession(ctx context.Context, id domain.FastID) error
	ResumeSession(ctx context.Context, id domain.FastID) error
}
