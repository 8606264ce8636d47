// Package metrics provides Prometheus and InfluxDB sinks for sweep and
// reminder telemetry.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/autoshop-crm/reminderd/core/metrics"
)

// PromSink records sweep and reminder events in Prometheus metrics.
type PromSink struct {
	reminders *prometheus.CounterVec
	vehicles  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewPromSink registers the collectors on the provided Prometheus
// registerer. If reg is nil, the default registerer is used. If the
// collectors are already registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reminders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_total",
		Help: "Total number of reminder delivery attempts",
	}, []string{"tenant_id", "delivered"})
	vehicles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_vehicles_total",
		Help: "Vehicles evaluated per sweep outcome",
	}, []string{"tenant_id", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sweep_duration_seconds",
		Help:    "Duration of tenant sweeps",
		Buckets: prometheus.DefBuckets,
	}, []string{"tenant_id"})

	for i, c := range []prometheus.Collector{reminders, vehicles, duration} {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch i {
			case 0:
				reminders = are.ExistingCollector.(*prometheus.CounterVec)
			case 1:
				vehicles = are.ExistingCollector.(*prometheus.CounterVec)
			case 2:
				duration = are.ExistingCollector.(*prometheus.HistogramVec)
			}
		}
	}

	return &PromSink{reminders: reminders, vehicles: vehicles, duration: duration}, nil
}

// RecordSweep records per-outcome vehicle counts and the sweep duration.
func (s *PromSink) RecordSweep(res coremetrics.SweepResult) error {
	for outcome, n := range map[string]int{
		"due":        res.Due,
		"sent":       res.Sent,
		"failed":     res.Failed,
		"suppressed": res.Suppressed,
		"skipped":    res.Skipped,
	} {
		if n > 0 {
			s.vehicles.WithLabelValues(res.TenantID, outcome).Add(float64(n))
		}
	}
	s.duration.WithLabelValues(res.TenantID).Observe(res.Duration.Seconds())
	return nil
}

// RecordReminder increments the delivery attempt counter.
func (s *PromSink) RecordReminder(ev coremetrics.ReminderEvent) error {
	s.reminders.WithLabelValues(ev.TenantID, strconv.FormatBool(ev.Delivered)).Inc()
	return nil
}
