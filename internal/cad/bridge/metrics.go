package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================
// Metrics
// ============================================================

type Metrics struct {
	Submitted   prometheus.Counter
	Completed   *prometheus.CounterVec
	QueueDepth  prometheus.Gauge
	TaskSeconds prometheus.Histogram
	WaitSeconds prometheus.Histogram
}

// NewMetrics creates the bridge collectors and registers them on reg when
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cadbridge",
			Subsystem: "bridge",
			Name:      "tasks_submitted_total",
			Help:      "Tasks enqueued for the GUI pump.",
		}),
		Completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cadbridge",
			Subsystem: "bridge",
			Name:      "tasks_completed_total",
			Help:      "Tasks executed by the GUI pump, by outcome.",
		}, []string{"outcome"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cadbridge",
			Subsystem: "bridge",
			Name:      "queue_depth",
			Help:      "Tasks waiting for the next pump tick.",
		}),
		TaskSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cadbridge",
			Subsystem: "bridge",
			Name:      "task_duration_seconds",
			Help:      "Time spent executing a task on the GUI pump.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		WaitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cadbridge",
			Subsystem: "bridge",
			Name:      "task_wait_seconds",
			Help:      "Time a task spent queued before execution.",
			Buckets:   prometheus.LinearBuckets(0.05, 0.1, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Submitted, m.Completed, m.QueueDepth, m.TaskSeconds, m.WaitSeconds)
	}
	return m
}
