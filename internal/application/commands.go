package application

type StartFastCommand struct {
	Protocol        string
	BackdateMinutes int
}

type EndFastCommand struct {
	Notes string
	Mood  string
}

type ReconcileOutcome string

const (
	ReconcileSkipped      ReconcileOutcome = "skipped"
	ReconcileFetchFailed  ReconcileOutcome = "fetch_failed"
	ReconcileNoSession    ReconcileOutcome = "no_session"
	ReconcileStaleCleared ReconcileOutcome = "stale_cleared"
	ReconcileRestored     ReconcileOutcome = "restored"
)
