// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_emails_sent_total",
			Help: "Total number of policy emails delivered to the transport",
		},
		[]string{"kind"},
	)

	EmailsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_emails_failed_total",
			Help: "Total number of policy emails the transport rejected",
		},
		[]string{"kind"},
	)

	AcknowledgementsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_acknowledgements_recorded_total",
			Help: "Total number of acknowledgement decisions recorded via link clicks",
		},
		[]string{"decision"},
	)

	EndpointErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_acknowledge_endpoint_errors_total",
			Help: "Total number of rejected acknowledgement requests",
		},
		[]string{"error_code"},
	)

	BatchSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "policy_batch_send_duration_seconds",
			Help: "Duration of cohort batch sends in seconds",
		},
		[]string{"kind"},
	)

	ReminderRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "policy_reminder_runs_total",
			Help: "Total number of reminder scans executed",
		},
	)
)
