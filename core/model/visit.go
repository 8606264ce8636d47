package model

import (
	"sort"
	"time"
)

// ServiceVisit is one completed maintenance event for a vehicle, derived
// from a finished work order. Visits are immutable once recorded.
type ServiceVisit struct {
	ID        string
	VehicleID string
	// CompletedAt is the work-order completion time; visits are ordered by
	// it for rate estimation.
	CompletedAt time.Time
	// Odometer is the reading taken at intake. It may be absent; only
	// visits with a reading participate in mileage prediction.
	Odometer *int64
}

// HasOdometer reports whether an intake reading was recorded.
func (s ServiceVisit) HasOdometer() bool { return s.Odometer != nil }

// OdometerReading returns a visit odometer pointer, for building fixtures.
func OdometerReading(km int64) *int64 { return &km }

// SortVisitsByCompletion orders visits ascending by completion time.
func SortVisitsByCompletion(visits []ServiceVisit) {
	sort.Slice(visits, func(i, j int) bool {
		return visits[i].CompletedAt.Before(visits[j].CompletedAt)
	})
}
