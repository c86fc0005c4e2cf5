package application

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/ports"
	"github.com/stretchr/testify/mock"
)

var _ ports.RemoteSessionStore = (*mockRemoteStore)(nil)

type mockRemoteStore struct {
	mock.Mock
}

func (m *mockRemoteStore) FetchActiveSession(ctx context.Context) (*domain.RemoteSession, error) {
	args := m.Called(ctx)
	session, _ := args.Get(0).(*domain.RemoteSession)
	return session, args.Error(1)
}

func (m *mockRemoteStore) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (domain.RemoteSession, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.RemoteSession), args.Error(1)
}

func (m *mockRemoteStore) EndSession(ctx context.Context, id domain.FastID, notes, mood string) (domain.EndSessionResult, error) {
	args := m.Called(ctx, id, notes, mood)
	return args.Get(0).(domain.EndSessionResult), args.Error(1)
}

func (m *mockRemoteStore) PauseSession(ctx context.Context, id domain.FastID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRemoteStore) ResumeSession(ctx context.Context, id domain.FastID) error {
	return m.Called(ctx, id).Error(0)
}

type recordingNotifier struct {
	mu        sync.Mutex
	granted   bool
	sendErr   error
	asked     int
	delivered []domain.Notification
}

func (n *recordingNotifier) RequestPermission(context.Context) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.asked++
	return n.granted, nil
}

func (n *recordingNotifier) Send(_ context.Context, notification domain.Notification) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return false, n.sendErr
	}
	n.delivered = append(n.delivered, notification)
	return true, nil
}

func (n *recordingNotifier) tags() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	tags := make([]string, 0, len(n.delivered))
	for _, notification := range n.delivered {
		tags = append(tags, notification.Tag)
	}
	return tags
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(now time.Time) *manualClock {
	return &manualClock{now: now}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *manualClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type staticSnapshot struct {
	mu      sync.Mutex
	session domain.FastSession
}

func (s *staticSnapshot) Snapshot() domain.FastSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *staticSnapshot) set(session domain.FastSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

type inMemoryHydrationRepo struct {
	entries []domain.HydrationEntry
	err     error
}

func (r *inMemoryHydrationRepo) Append(_ context.Context, entry domain.HydrationEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *inMemoryHydrationRepo) ListBetween(_ context.Context, from, to time.Time) ([]domain.HydrationEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.HydrationEntry
	for _, entry := range r.entries {
		if !entry.At.Before(from) && entry.At.Before(to) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGateway(notifier *recordingNotifier) *NotificationGateway {
	return NewNotificationGateway(notifier, WithLogger(discardLogger()))
}
