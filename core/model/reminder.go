package model

import "time"

// ReminderRecord tracks a proactive service notification for a vehicle.
//
// Lifecycle: created unsent when a vehicle is first flagged due, reused
// across evaluation cycles until the notification sink confirms delivery,
// then marked sent. At most one unsent record exists per vehicle at any
// time. Records are never deleted here; retention is an external concern.
type ReminderRecord struct {
	ID         string
	TenantID   string
	VehicleID  string
	CustomerID string

	// PredictedOdometer is the projected reading at the evaluation horizon.
	PredictedOdometer int64
	// ServiceDueOdometer is the threshold the prediction crossed.
	ServiceDueOdometer int64

	Sent      bool
	SentAt    *time.Time // present iff Sent
	CreatedAt time.Time
}
