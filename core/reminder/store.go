package reminder

import (
	"context"
	"time"

	"github.com/autoshop-crm/reminderd/core/model"
)

// FleetProvider supplies tenant-scoped vehicle and visit data. Vehicles and
// visits are owned by the work-order lifecycle; the sweeper only reads them.
type FleetProvider interface {
	// ListVehicles returns the tenant's vehicles whose service interval is
	// at least minServiceInterval.
	ListVehicles(ctx context.Context, tenantID string, minServiceInterval int64) ([]model.Vehicle, error)
	// ListServiceVisits returns the vehicle's odometer-bearing visits
	// ordered ascending by completion time.
	ListServiceVisits(ctx context.Context, vehicleID string) ([]model.ServiceVisit, error)
	GetVehicle(ctx context.Context, vehicleID string) (model.Vehicle, bool, error)
	GetCustomer(ctx context.Context, customerID string) (model.Customer, bool, error)
}

// ReminderStore persists reminder records. Implementations must guarantee
// at most one unsent record per vehicle, e.g. via a uniqueness constraint.
type ReminderStore interface {
	// FindUnsent returns the vehicle's pending record, if any.
	FindUnsent(ctx context.Context, vehicleID string) (model.ReminderRecord, bool, error)
	// FindRecentSent returns a record sent at or after the cutoff, if any.
	FindRecentSent(ctx context.Context, vehicleID string, cutoff time.Time) (model.ReminderRecord, bool, error)
	// Upsert inserts the record or updates the vehicle's existing unsent
	// record, returning the stored state.
	Upsert(ctx context.Context, rec model.ReminderRecord) (model.ReminderRecord, error)
	// MarkSent transitions the record to sent at the given time.
	MarkSent(ctx context.Context, recordID string, sentAt time.Time) error
}

// TenantDirectory exposes the tenants eligible for reminder sweeps.
type TenantDirectory interface {
	ListActiveWithRemindersEnabled(ctx context.Context) ([]model.Tenant, error)
	GetTenant(ctx context.Context, tenantID string) (model.Tenant, bool, error)
}

// Notifier delivers a rendered reminder to a contact address. The concrete
// transport (SMS gateway, MQTT bridge) lives in infra.
type Notifier interface {
	Notify(ctx context.Context, to, message string) error
}
