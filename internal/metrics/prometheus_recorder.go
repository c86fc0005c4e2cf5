package metrics

import (
	"strconv"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "fasttrack"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	remoteCalls        *prom.CounterVec
	reconciles         *prom.CounterVec
	milestones         *prom.CounterVec
	notifications      *prom.CounterVec
	hydrationReminders prom.Counter
	fastElapsed        prom.Gauge
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder constructs and registers the fasting metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	pr := &PrometheusRecorder{
		remoteCalls: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Remote session store calls by operation and result",
		}, []string{"operation", "result"}),
		reconciles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reconciles_total",
			Help:      "Session reconciliations against the remote store by outcome",
		}, []string{"outcome"}),
		milestones: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "milestones_fired_total",
			Help:      "Milestone notifications fired by threshold",
		}, []string{"threshold_hours"}),
		notifications: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification requests by kind and delivery result",
		}, []string{"kind", "result"}),
		hydrationReminders: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hydration_reminders_total",
			Help:      "Hydration reminders fired",
		}),
		fastElapsed: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "fast_elapsed_seconds",
			Help:      "Elapsed time of the current fast as of the last milestone check",
		}),
	}
	reg.MustRegister(pr.remoteCalls, pr.reconciles, pr.milestones, pr.notifications, pr.hydrationReminders, pr.fastElapsed)
	return pr
}

func (p *PrometheusRecorder) IncRemoteCall(operation string, success bool) {
	if p == nil || p.remoteCalls == nil {
		return
	}
	p.remoteCalls.WithLabelValues(operation, resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) IncReconcile(outcome string) {
	if p == nil || p.reconciles == nil {
		return
	}
	p.reconciles.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncMilestoneFired(hours int) {
	if p == nil || p.milestones == nil {
		return
	}
	p.milestones.WithLabelValues(strconv.Itoa(hours)).Inc()
}

// IncNotification folds per-threshold milestone tags into one "milestone" kind to
// keep label cardinality bounded.
func (p *PrometheusRecorder) IncNotification(tag string, delivered bool) {
	if p == nil || p.notifications == nil {
		return
	}
	kind := tag
	if strings.HasPrefix(tag, "milestone-") {
		kind = "milestone"
	}
	result := "delivered"
	if !delivered {
		result = "suppressed"
	}
	p.notifications.WithLabelValues(kind, result).Inc()
}

func (p *PrometheusRecorder) IncHydrationReminder() {
	if p == nil || p.hydrationReminders == nil {
		return
	}
	p.hydrationReminders.Inc()
}

func (p *PrometheusRecorder) SetFastElapsed(d time.Duration) {
	if p == nil || p.fastElapsed == nil {
		return
	}
	p.fastElapsed.Set(d.Seconds())
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
