package metrics

import "time"

// SweepResult summarises one tenant sweep.
type SweepResult struct {
	TenantID   string
	Vehicles   int
	Due        int
	Sent       int
	Failed     int
	Suppressed int
	Skipped    int
	Duration   time.Duration
	Time       time.Time
}

// ReminderEvent records one notification attempt for a vehicle.
type ReminderEvent struct {
	TenantID          string
	VehicleID         string
	CustomerID        string
	PredictedOdometer int64
	DueOdometer       int64
	Delivered         bool
	Time              time.Time
}

// Sink records sweep results for observability purposes.
type Sink interface {
	RecordSweep(res SweepResult) error
	RecordReminder(ev ReminderEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSweep(SweepResult) error      { return nil }
func (NopSink) RecordReminder(ReminderEvent) error { return nil }
