package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	attachedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sla",
			Name:      "attached_total",
			Help:      "SLA records attached, partitioned by category.",
		},
		[]string{"category"},
	)

	resolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sla",
			Name:      "resolved_total",
			Help:      "SLA records resolved, partitioned by category and outcome (met, violated).",
		},
		[]string{"category", "outcome"},
	)

	escalationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sla",
			Name:      "escalations_total",
			Help:      "Escalation checkpoints fired, partitioned by category.",
		},
		[]string{"category"},
	)

	activeRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sla",
			Name:      "active_records",
			Help:      "SLA records currently monitored.",
		},
	)

	alertLevels = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sla",
			Name:      "alert_level_records",
			Help:      "Active records at each advisory alert level after the last sweep.",
		},
		[]string{"level"},
	)

	complianceRate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sla",
			Name:      "compliance_rate_percent",
			Help:      "Compliance rate per category over the statistics window.",
		},
		[]string{"category"},
	)

	sweepDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sla",
			Name:      "sweep_seconds",
			Help:      "Compliance sweep latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	failuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sla",
			Name:      "failures_total",
			Help:      "Isolated failures in background work, partitioned by stage.",
		},
		[]string{"stage"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sla",
			Name:      "notifications_total",
			Help:      "Notification deliveries, partitioned by sink and result.",
		},
		[]string{"sink", "result"},
	)
)

// Register attaches the SLA collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		attachedTotal,
		resolvedTotal,
		escalationsTotal,
		activeRecords,
		alertLevels,
		complianceRate,
		sweepDurationSeconds,
		failuresTotal,
		notificationsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func Attached(category string) { attachedTotal.WithLabelValues(category).Inc() }

func Resolved(category, outcome string) { resolvedTotal.WithLabelValues(category, outcome).Inc() }

func Escalated(category string) { escalationsTotal.WithLabelValues(category).Inc() }

func SetActive(n int) { activeRecords.Set(float64(n)) }

func Failure(stage string) { failuresTotal.WithLabelValues(stage).Inc() }

// ObserveSweep records a sweep's duration and the alert-level distribution it found.
func ObserveSweep(duration time.Duration, warning, critical int) {
	if duration < 0 {
		duration = 0
	}
	sweepDurationSeconds.Observe(duration.Seconds())
	alertLevels.WithLabelValues("warning").Set(float64(warning))
	alertLevels.WithLabelValues("critical").Set(float64(critical))
}

// SetComplianceRate publishes a category's rate; categories without data are removed.
func SetComplianceRate(category string, rate *float64) {
	if rate == nil {
		complianceRate.DeleteLabelValues(category)
		return
	}
	complianceRate.WithLabelValues(category).Set(*rate)
}

// Delivery counts a notification delivery attempt.
func Delivery(sink string, err error) {
	result := "success"
	if err != nil {
		result = "failed"
	}
	notificationsTotal.WithLabelValues(sink, result).Inc()
}
