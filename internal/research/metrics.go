// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the research stage.
type Metrics struct {
	TasksStarted   prometheus.Counter
	TasksCompleted *prometheus.CounterVec
	TasksActive    prometheus.Gauge
	TaskDuration   *prometheus.HistogramVec
	SearchCalls    *prometheus.CounterVec
	Summaries      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered, which tests and one-off runs use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TasksStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "research_tasks_started_total",
			Help: "Total number of research tasks admitted by the scheduler",
		}),
		TasksCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "research_tasks_completed_total",
			Help: "Total number of research tasks completed, by outcome",
		}, []string{"outcome"}),
		TasksActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "research_tasks_active",
			Help: "Number of research tasks currently running",
		}),
		TaskDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "research_stage_duration_seconds",
			Help:    "Duration of research task stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"stage"}),
		SearchCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "research_search_calls_total",
			Help: "Total number of search provider calls, by provider and outcome",
		}, []string{"provider", "outcome"}),
		Summaries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "research_summaries_total",
			Help: "Total number of raw results processed by the summarizer, by outcome",
		}, []string{"outcome"}),
	}
}

func outcomeLabel(failed bool) string {
	if failed {
		return "failed"
	}
	return "success"
}
