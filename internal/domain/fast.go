package domain

import (
	"math"
	"time"
)

type FastID string

type FastStatus string

const (
	FastIdle   FastStatus = "idle"
	FastActive FastStatus = "active"
	FastPaused FastStatus = "paused"
	FastEnded  FastStatus = "ended"
)

// InProgress reports whether elapsed time is meaningful. Idle and Ended both mean
// "no session".
func (s FastStatus) InProgress() bool {
	return s == FastActive || s == FastPaused
}

type FastSession struct {
	ID          FastID
	Status      FastStatus
	StartedAt   time.Time
	TargetHours float64
	Protocol    string
	PausedAt    *time.Time
	PausedTotal time.Duration
}

func NewIdleSession(protocol Protocol) FastSession {
	return FastSession{
		Status:      FastIdle,
		TargetHours: protocol.FastHours,
		Protocol:    protocol.Name,
	}
}

func (f FastSession) Target() time.Duration {
	if f.TargetHours <= 0 || math.IsNaN(f.TargetHours) {
		return 0
	}
	return time.Duration(f.TargetHours * float64(time.Hour))
}

func (f FastSession) Elapsed(now time.Time) time.Duration {
	if !f.Status.InProgress() || f.StartedAt.IsZero() {
		return 0
	}

	reference := now
	if f.PausedAt != nil {
		reference = *f.PausedAt
	}

	elapsed := reference.Sub(f.StartedAt) - f.PausedTotal
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

func (f FastSession) Remaining(now time.Time) time.Duration {
	remaining := f.Target() - f.Elapsed(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (f FastSession) Progress(now time.Time) float64 {
	target := f.Target()
	if !f.Status.InProgress() || target <= 0 {
		return 0
	}

	progress := float64(f.Elapsed(now)) / float64(target) * 100
	if math.IsNaN(progress) || progress < 0 {
		return 0
	}
	return math.Min(progress, 100)
}

func (f FastSession) Zone(now time.Time) (Zone, bool) {
	return ZoneAt(f.Elapsed(now).Hours())
}

// Key identifies one session lifetime so observers can tell a new fast from the
// one they saw last.
func (f FastSession) Key() string {
	if !f.Status.InProgress() {
		return ""
	}
	return string(f.ID) + "@" + f.StartedAt.UTC().Format(time.RFC3339Nano)
}

func (f *FastSession) Pause(at time.Time) bool {
	if f.Status != FastActive {
		return false
	}

	pausedAt := at
	f.PausedAt = &pausedAt
	f.Status = FastPaused
	return true
}

// Resume folds the current pause into PausedTotal. A pause interval that went
// negative because of a clock change counts as zero.
func (f *FastSession) Resume(at time.Time) (time.Duration, bool) {
	if f.Status != FastPaused || f.PausedAt == nil {
		return 0, false
	}

	additional := at.Sub(*f.PausedAt)
	if additional < 0 {
		additional = 0
	}
	f.PausedTotal += additional
	f.PausedAt = nil
	f.Status = FastActive
	return additional, true
}

// RemoteSession is the backend's view of an active fast. A zero StartedAt means
// the backend sent a timestamp that could not be parsed.
type RemoteSession struct {
	ID             FastID
	StartedAt      time.Time
	TargetHours    float64
	Protocol       string
	PausedAt       *time.Time
	PausedDuration time.Duration
}

func (r RemoteSession) IsStale(now time.Time, maxAge time.Duration) bool {
	if r.StartedAt.IsZero() {
		return true
	}
	return now.Sub(r.StartedAt) > maxAge
}

func (r RemoteSession) ToFastSession() FastSession {
	session := FastSession{
		ID:          r.ID,
		Status:      FastActive,
		StartedAt:   r.StartedAt,
		TargetHours: r.TargetHours,
		Protocol:    r.Protocol,
		PausedTotal: r.PausedDuration,
	}
	if session.PausedTotal < 0 {
		session.PausedTotal = 0
	}
	if r.PausedAt != nil && !r.PausedAt.IsZero() {
		pausedAt := *r.PausedAt
		session.PausedAt = &pausedAt
		session.Status = FastPaused
	}
	return session
}

type CreateSessionRequest struct {
	Protocol        string
	TargetHours     float64
	BackdateMinutes int
}

type EndSessionResult struct {
	FreezeEarned bool
	Streak       int
}
