// Package metrics exposes counters for the fasting engine. Recorder is optional;
// NoopRecorder is used when metrics are not configured.
package metrics

import "time"

type Recorder interface {
	IncRemoteCall(operation string, success bool)
	IncReconcile(outcome string)
	IncMilestoneFired(hours int)
	IncNotification(tag string, delivered bool)
	IncHydrationReminder()
	SetFastElapsed(d time.Duration)
}

type NoopRecorder struct{}

func (NoopRecorder) IncRemoteCall(string, bool) {}
func (NoopRecorder) IncReconcile(string) {}
func (NoopRecorder) IncMilestoneFired(int) {}
func (NoopRecorder) IncNotification(string, bool) {}
func (NoopRecorder) IncHydrationReminder() {}
func (NoopRecorder) SetFastElapsed(time.Duration) {}
