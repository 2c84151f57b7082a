package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Tool executions by tool name and outcome ("ok" or "error")
	ToolExecutions *prometheus.CounterVec
	ToolLatency    prometheus.Histogram

	// Task authoring
	TaskCreations prometheus.Counter
	TaskFailures  prometheus.Counter

	// Knowledge lookup
	KnowledgeSearches  prometheus.Counter
	KnowledgeCacheHits prometheus.Counter
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics returns the process-wide metrics instance, initializing it on
// first use. promauto registers with the default registry, so this must only
// ever run once.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ToolExecutions: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "insightdesk_tool_executions_total",
				Help: "Total number of tool executions by tool and outcome",
			}, []string{"tool", "outcome"}),

			ToolLatency: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "insightdesk_tool_duration_seconds",
				Help:    "Tool execution latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			}),

			TaskCreations: promauto.NewCounter(prometheus.CounterOpts{
				Name: "insightdesk_task_creations_total",
				Help: "Total number of analysis tasks created",
			}),

			TaskFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "insightdesk_task_failures_total",
				Help: "Total number of failed task-authoring calls",
			}),

			KnowledgeSearches: promauto.NewCounter(prometheus.CounterOpts{
				Name: "insightdesk_knowledge_searches_total",
				Help: "Total number of knowledge corpus searches",
			}),

			KnowledgeCacheHits: promauto.NewCounter(prometheus.CounterOpts{
				Name: "insightdesk_knowledge_cache_hits_total",
				Help: "Total number of knowledge searches served from cache",
			}),
		}
	})
	return globalMetrics
}
