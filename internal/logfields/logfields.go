package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared across packages.
const (
	KeyFastID     = "fast_id"
	KeyOperation  = "operation"
	KeyOutcome    = "outcome"
	KeyProtocol   = "protocol"
	KeyThreshold  = "threshold_hours"
	KeyTag        = "tag"
	KeyScheduler  = "scheduler"
	KeyJobID      = "job_id"
	KeyElapsed    = "elapsed"
	KeyStartedAt  = "started_at"
	KeyHydration  = "hydration_ml"
	KeyGoal       = "goal_ml"
	KeyListenAddr = "listen_addr"
	KeyError      = "error"
)

func FastID(id string) slog.Attr { return slog.String(KeyFastID, id) }
func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }
func Outcome(o string) slog.Attr { return slog.String(KeyOutcome, o) }
func Protocol(p string) slog.Attr { return slog.String(KeyProtocol, p) }
func Threshold(hours int) slog.Attr { return slog.Int(KeyThreshold, hours) }
func Tag(tag string) slog.Attr { return slog.String(KeyTag, tag) }
func Scheduler(name string) slog.Attr { return slog.String(KeyScheduler, name) }
func JobID(id string) slog.Attr { return slog.String(KeyJobID, id) }
func Elapsed(d time.Duration) slog.Attr { return slog.Duration(KeyElapsed, d) }
func StartedAt(t time.Time) slog.Attr { return slog.Time(KeyStartedAt, t) }
func Hydration(ml int) slog.Attr { return slog.Int(KeyHydration, ml) }
func Goal(ml int) slog.Attr { return slog.Int(KeyGoal, ml) }
func ListenAddr(addr string) slog.Attr { return slog.String(KeyListenAddr, addr) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
