package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Event pipeline
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_events_published_total",
			Help: "Events published to the broker",
		},
		[]string{"event_type"},
	)
	EventsPublishFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_events_publish_failed_total",
			Help: "Event publishes that failed after commit",
		},
	)
	AuditLogsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_audit_logs_written_total",
			Help: "Audit rows committed with their mutations",
		},
	)

	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(EventsPublished)
	prometheus.MustRegister(EventsPublishFailed)
	prometheus.MustRegister(AuditLogsWritten)
	prometheus.MustRegister(WorkerQueueDepth)
}
