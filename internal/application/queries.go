package application

import (
	"time"

	"github.com/bnema/fasttrack-cli/internal/domain"
)

type EndResult struct {
	FreezeEarned bool
	Streak       int
	ElapsedHours float64
	Synced       bool
}

type FastStatusView struct {
	Session   domain.FastSession
	Elapsed   time.Duration
	Remaining time.Duration
	Progress  float64
	Zone      *domain.Zone
	AsOf      time.Time
}

func NewFastStatusView(session domain.FastSession, now time.Time) FastStatusView {
	view := FastStatusView{
		Session:   session,
		Elapsed:   session.Elapsed(now),
		Remaining: session.Remaining(now),
		Progress:  session.Progress(now),
		AsOf:      now,
	}
	if !session.Status.InProgress() {
		return view
	}
	if zone, ok := session.Zone(now); ok {
		view.Zone = &zone
	}
	return view
}

type StatusPayload struct {
	ID             string     `json:"id,omitempty"`
	Status         string     `json:"status"`
	Protocol       string     `json:"protocol"`
	TargetHours    float64    `json:"target_hours"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	PausedAt       *time.Time `json:"paused_at,omitempty"`
	ElapsedSeconds float64    `json:"elapsed_seconds"`
	RemainingSecs  float64    `json:"remaining_seconds"`
	Progress       float64    `json:"progress_percent"`
	Zone           string     `json:"zone,omitempty"`
	AsOf           time.Time  `json:"as_of"`
}

func (v FastStatusView) Payload() StatusPayload {
	payload := StatusPayload{
		ID:             string(v.Session.ID),
		Status:         string(v.Session.Status),
		Protocol:       v.Session.Protocol,
		TargetHours:    v.Session.TargetHours,
		PausedAt:       v.Session.PausedAt,
		ElapsedSeconds: v.Elapsed.Seconds(),
		RemainingSecs:  v.Remaining.Seconds(),
		Progress:       v.Progress,
		AsOf:           v.AsOf,
	}
	if v.Session.Status.InProgress() && !v.Session.StartedAt.IsZero() {
		startedAt := v.Session.StartedAt
		payload.StartedAt = &startedAt
	}
	if v.Zone != nil {
		payload.Zone = v.Zone.Name
	}
	return payload
}
