package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/logfields"
	"github.com/bnema/fasttrack-cli/internal/ports"
)

const DefaultStaleAfter = 7 * 24 * time.Hour

const (
	opFetch  = "fetch"
	opCreate = "create"
	opEnd    = "end"
	opPause  = "pause"
	opResume = "resume"
)

var ErrMissingFastID = errors.New("remote store returned a fast without an id")

type SessionConfig struct {
	DefaultProtocol domain.Protocol
	StaleAfter      time.Duration
}

// SessionState owns the in-memory FastSession and keeps it reconciled with the
// remote store. Start waits for the remote; pause and resume are applied locally
// first; end always returns to idle.
type SessionState struct {
	remote     ports.RemoteSessionStore
	gateway    *NotificationGateway
	clock      ports.Clock
	staleAfter time.Duration
	observability

	initializing atomic.Bool
	starting     atomic.Bool

	mu       sync.Mutex
	protocol domain.Protocol
	session  domain.FastSession
}

func NewSessionState(remote ports.RemoteSessionStore, gateway *NotificationGateway, clock ports.Clock, cfg SessionConfig, opts ...Option) *SessionState {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	protocol := cfg.DefaultProtocol
	if protocol.Name == "" {
		protocol = domain.DefaultProtocol()
	}

	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}

	return &SessionState{
		remote:        remote,
		gateway:       gateway,
		clock:         clock,
		staleAfter:    staleAfter,
		observability: newObservability(opts),
		protocol:      protocol,
		session:       domain.NewIdleSession(protocol),
	}
}

// InitializeFromRemote replaces local state with the remote view. A fetch error
// leaves the session idle. A call made while another is in flight returns
// ReconcileSkipped without touching the network.
func (s *SessionState) InitializeFromRemote(ctx context.Context) ReconcileOutcome {
	return s.sync(ctx, true)
}

// Resync is InitializeFromRemote for a process that already holds a session:
// a failed fetch keeps the local fast so observers do not see it end and
// restart.
func (s *SessionState) Resync(ctx context.Context) ReconcileOutcome {
	return s.sync(ctx, false)
}

func (s *SessionState) sync(ctx context.Context, resetOnFetchError bool) ReconcileOutcome {
	if !s.initializing.CompareAndSwap(false, true) {
		s.logger.Debug("Reconcile already in flight")
		return ReconcileSkipped
	}
	defer s.initializing.Store(false)

	outcome := s.reconcile(ctx, resetOnFetchError)
	s.recorder.IncReconcile(string(outcome))
	s.logger.Debug("Reconciled fast with remote store", logfields.Outcome(string(outcome)))

	return outcome
}

func (s *SessionState) reconcile(ctx context.Context, resetOnFetchError bool) ReconcileOutcome {
	remote, err := s.remote.FetchActiveSession(ctx)
	s.recorder.IncRemoteCall(opFetch, err == nil)
	if err != nil {
		if !resetOnFetchError {
			s.logger.Warn("Fetch active fast failed, keeping local state", logfields.Error(err))
			return ReconcileFetchFailed
		}
		s.logger.Warn("Fetch active fast failed, continuing without a session", logfields.Error(err))
		s.reset()
		return ReconcileFetchFailed
	}

	if remote == nil {
		s.reset()
		return ReconcileNoSession
	}

	if remote.IsStale(s.clock.Now(), s.staleAfter) {
		s.logger.Warn("Discarding stale remote fast",
			logfields.FastID(string(remote.ID)),
			logfields.StartedAt(remote.StartedAt))
		s.endStaleRemote(ctx, remote.ID)
		s.reset()
		return ReconcileStaleCleared
	}

	session := remote.ToFastSession()

	s.mu.Lock()
	defer s.mu.Unlock()

	if session.TargetHours <= 0 {
		session.TargetHours = s.protocol.FastHours
	}
	if session.Protocol == "" {
		session.Protocol = s.protocol.Name
	} else if protocol, err := domain.ProtocolByName(session.Protocol); err == nil {
		s.protocol = protocol
	}
	s.session = session

	return ReconcileRestored
}

func (s *SessionState) endStaleRemote(ctx context.Context, id domain.FastID) {
	if id == "" {
		return
	}

	_, err := s.remote.EndSession(ctx, id, "", "")
	s.recorder.IncRemoteCall(opEnd, err == nil)
	if err != nil {
		s.logger.Warn("End stale remote fast failed",
			logfields.FastID(string(id)),
			logfields.Error(err))
	}
}

// StartFast creates the fast remotely and adopts the id and start time the
// remote returns. Local state is untouched when the remote call fails. A start
// issued while another is waiting on the remote gets ErrFastInProgress.
func (s *SessionState) StartFast(ctx context.Context, cmd StartFastCommand) (domain.FastSession, error) {
	if cmd.BackdateMinutes < 0 {
		return domain.FastSession{}, domain.ErrInvalidBackdate
	}

	if !s.starting.CompareAndSwap(false, true) {
		return domain.FastSession{}, domain.ErrFastInProgress
	}
	defer s.starting.Store(false)

	s.mu.Lock()
	inProgress := s.session.Status.InProgress()
	protocol := s.protocol
	s.mu.Unlock()

	if inProgress {
		return domain.FastSession{}, domain.ErrFastInProgress
	}

	if name := strings.TrimSpace(cmd.Protocol); name != "" {
		resolved, err := domain.ProtocolByName(name)
		if err != nil {
			return domain.FastSession{}, err
		}
		protocol = resolved
	}

	created, err := s.remote.CreateSession(ctx, domain.CreateSessionRequest{
		Protocol:        protocol.Name,
		TargetHours:     protocol.FastHours,
		BackdateMinutes: cmd.BackdateMinutes,
	})
	s.recorder.IncRemoteCall(opCreate, err == nil)
	if err != nil {
		return domain.FastSession{}, fmt.Errorf("create fast: %w", err)
	}
	if created.ID == "" {
		return domain.FastSession{}, fmt.Errorf("create fast: %w", ErrMissingFastID)
	}

	startedAt := created.StartedAt
	if startedAt.IsZero() {
		startedAt = s.clock.Now().Add(-time.Duration(cmd.BackdateMinutes) * time.Minute)
		s.logger.Warn("Remote start time missing, using local clock", logfields.FastID(string(created.ID)))
	}

	session := domain.FastSession{
		ID:          created.ID,
		Status:      domain.FastActive,
		StartedAt:   startedAt,
		TargetHours: protocol.FastHours,
		Protocol:    protocol.Name,
	}

	s.mu.Lock()
	s.protocol = protocol
	s.session = session
	s.mu.Unlock()

	s.logger.Info("Fast started",
		logfields.FastID(string(session.ID)),
		logfields.Protocol(protocol.Name),
		logfields.StartedAt(startedAt))
	s.gateway.Notify(ctx, domain.FastStartedNotification(protocol.Name, protocol.FastHours))

	return session, nil
}

// EndFast always leaves the state idle. The remote result only decides what the
// caller is told about rewards.
func (s *SessionState) EndFast(ctx context.Context, cmd EndFastCommand) EndResult {
	now := s.clock.Now()

	s.mu.Lock()
	session := s.session
	s.resetLocked()
	s.mu.Unlock()

	if session.ID == "" {
		return EndResult{}
	}

	result := EndResult{ElapsedHours: session.Elapsed(now).Hours()}

	remote, err := s.remote.EndSession(ctx, session.ID, cmd.Notes, cmd.Mood)
	s.recorder.IncRemoteCall(opEnd, err == nil)
	if err != nil {
		s.logger.Warn("End fast failed remotely, local state reset",
			logfields.FastID(string(session.ID)),
			logfields.Error(err))
	} else {
		result.FreezeEarned = remote.FreezeEarned
		result.Streak = remote.Streak
		result.Synced = true
	}

	s.logger.Info("Fast ended",
		logfields.FastID(string(session.ID)),
		logfields.Elapsed(session.Elapsed(now)))

	s.gateway.Notify(ctx, domain.FastCompletedNotification(result.ElapsedHours, result.Streak))
	if result.FreezeEarned {
		s.gateway.Notify(ctx, domain.StreakFreezeNotification(result.Streak))
	}

	return result
}

// PauseFast reports whether a running fast was paused. The remote is told
// afterwards and its failure does not undo the pause.
func (s *SessionState) PauseFast(ctx context.Context) bool {
	s.mu.Lock()
	paused := s.session.Pause(s.clock.Now())
	id := s.session.ID
	s.mu.Unlock()

	if !paused {
		return false
	}

	s.bestEffort(ctx, opPause, id, s.remote.PauseSession)
	return true
}

func (s *SessionState) ResumeFast(ctx context.Context) bool {
	s.mu.Lock()
	additional, resumed := s.session.Resume(s.clock.Now())
	id := s.session.ID
	s.mu.Unlock()

	if !resumed {
		return false
	}

	s.logger.Debug("Fast resumed", logfields.FastID(string(id)), logfields.Elapsed(additional))
	s.bestEffort(ctx, opResume, id, s.remote.ResumeSession)
	return true
}

func (s *SessionState) bestEffort(ctx context.Context, op string, id domain.FastID, call func(context.Context, domain.FastID) error) {
	if id == "" {
		return
	}

	err := call(ctx, id)
	s.recorder.IncRemoteCall(op, err == nil)
	if err != nil {
		s.logger.Warn("Remote fast update failed, keeping local state",
			logfields.Operation(op),
			logfields.FastID(string(id)),
			logfields.Error(err))
	}
}

// SetProtocol only applies while no fast is running; an active fast keeps the
// target it was started with.
func (s *SessionState) SetProtocol(name string) error {
	protocol, err := domain.ProtocolByName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status.InProgress() {
		return domain.ErrFastInProgress
	}

	s.protocol = protocol
	s.session.Protocol = protocol.Name
	s.session.TargetHours = protocol.FastHours

	return nil
}

func (s *SessionState) Protocol() domain.Protocol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protocol
}

// Snapshot returns a copy that is safe to read without the lock.
func (s *SessionState) Snapshot() domain.FastSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.session
	if s.session.PausedAt != nil {
		pausedAt := *s.session.PausedAt
		snapshot.PausedAt = &pausedAt
	}
	return snapshot
}

func (s *SessionState) GetElapsedTime() time.Duration {
	return s.Snapshot().Elapsed(s.clock.Now())
}

func (s *SessionState) GetProgress() float64 {
	return s.Snapshot().Progress(s.clock.Now())
}

func (s *SessionState) GetCurrentZone() (domain.Zone, bool) {
	return s.Snapshot().Zone(s.clock.Now())
}

func (s *SessionState) Status() FastStatusView {
	return NewFastStatusView(s.Snapshot(), s.clock.Now())
}

func (s *SessionState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *SessionState) resetLocked() {
	s.session = domain.NewIdleSession(s.protocol)
}
