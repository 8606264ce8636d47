package metrics

import coremetrics "github.com/autoshop-crm/reminderd/core/metrics"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSweep forwards the result to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordSweep(res coremetrics.SweepResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordSweep(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordReminder forwards the event to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordReminder(ev coremetrics.ReminderEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordReminder(ev); err != nil {
			return err
		}
	}
	return nil
}
