package model

import "fmt"

// DefaultServiceIntervalKm is the service interval applied to vehicles
// registered without one.
const DefaultServiceIntervalKm = 10000

// Vehicle represents a tracked car belonging to a customer.
type Vehicle struct {
	ID       string
	TenantID string
	OwnerID  string

	Make         string
	Model        string
	LicensePlate string

	// CurrentOdometer is the last known reading in km. It only ever
	// increases; completed visits with a lower reading are ignored.
	CurrentOdometer int64

	// ServiceIntervalKm is the distance between scheduled maintenance
	// events. Vehicles with a non-positive interval are excluded from
	// service-due evaluation.
	ServiceIntervalKm int64
}

// Description returns a short human-readable identification of the vehicle
// used in reminder messages, e.g. "Toyota Corolla (CA1234BB)".
func (v Vehicle) Description() string {
	if v.LicensePlate == "" {
		return fmt.Sprintf("%s %s", v.Make, v.Model)
	}
	return fmt.Sprintf("%s %s (%s)", v.Make, v.Model, v.LicensePlate)
}

// HasServiceInterval reports whether service-due evaluation is defined for
// the vehicle.
func (v Vehicle) HasServiceInterval() bool {
	return v.ServiceIntervalKm > 0
}

// NextServiceThreshold returns the odometer reading at which the next
// scheduled service falls due: the smallest multiple of the service interval
// strictly above the last completed threshold.
// Only valid when HasServiceInterval is true.
func (v Vehicle) NextServiceThreshold() int64 {
	last := v.CurrentOdometer - v.CurrentOdometer%v.ServiceIntervalKm
	return last + v.ServiceIntervalKm
}

// ApplyVisitOdometer updates the current odometer from a visit reading,
// keeping the monotonic non-decreasing invariant. It reports whether the
// vehicle was changed.
func (v *Vehicle) ApplyVisitOdometer(reading int64) bool {
	if reading <= v.CurrentOdometer {
		return false
	}
	v.CurrentOdometer = reading
	return true
}
