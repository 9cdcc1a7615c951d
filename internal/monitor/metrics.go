package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments exported by the subsystem.
type Metrics struct {
	TasksProcessed     *prometheus.CounterVec
	TaskDuration       prometheus.Histogram
	ReasoningMode      *prometheus.CounterVec
	WorkingMemoryItems prometheus.Gauge
	EpisodicTraces     prometheus.Gauge
	CognitiveLoad      prometheus.Gauge
}

// NewMetrics registers the subsystem's instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TasksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cogito",
			Name:      "tasks_processed_total",
			Help:      "Tasks processed, labeled by task type and outcome.",
		}, []string{"task_type", "status"}),
		TaskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cogito",
			Name:      "task_duration_seconds",
			Help:      "End-to-end task processing time.",
			Buckets:   prometheus.DefBuckets,
		}),
		ReasoningMode: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cogito",
			Name:      "reasoning_mode_total",
			Help:      "Reasoning invocations, labeled by mode.",
		}, []string{"mode"}),
		WorkingMemoryItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cogito",
			Name:      "working_memory_items",
			Help:      "Items currently held in working memory.",
		}),
		EpisodicTraces: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cogito",
			Name:      "episodic_traces",
			Help:      "Traces currently held in episodic memory.",
		}),
		CognitiveLoad: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cogito",
			Name:      "cognitive_load",
			Help:      "Working memory load from the latest state snapshot.",
		}),
	}
}
