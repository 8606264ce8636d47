package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/autoshop-crm/reminderd/core/model"
)

// MemoryStore keeps fleet and reminder data in memory for tests or
// lightweight usage. It implements FleetProvider, ReminderStore and
// TenantDirectory.
type MemoryStore struct {
	mu        sync.Mutex
	tenants   map[string]model.Tenant
	customers map[string]model.Customer
	vehicles  map[string]model.Vehicle
	visits    map[string][]model.ServiceVisit
	reminders map[string]model.ReminderRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants:   map[string]model.Tenant{},
		customers: map[string]model.Customer{},
		vehicles:  map[string]model.Vehicle{},
		visits:    map[string][]model.ServiceVisit{},
		reminders: map[string]model.ReminderRecord{},
	}
}

// AddTenant registers or replaces a tenant.
func (s *MemoryStore) AddTenant(t model.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
}

// AddCustomer registers or replaces a customer.
func (s *MemoryStore) AddCustomer(c model.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

// AddVehicle registers or replaces a vehicle.
func (s *MemoryStore) AddVehicle(v model.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = v
}

// AddVisit appends a completed service visit.
func (s *MemoryStore) AddVisit(v model.ServiceVisit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[v.VehicleID] = append(s.visits[v.VehicleID], v)
}

func (s *MemoryStore) ListVehicles(_ context.Context, tenantID string, minServiceInterval int64) ([]model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.Vehicle
	for _, v := range s.vehicles {
		if v.TenantID == tenantID && v.ServiceIntervalKm >= minServiceInterval {
			res = append(res, v)
		}
	}
	return res, nil
}

func (s *MemoryStore) ListServiceVisits(_ context.Context, vehicleID string) ([]model.ServiceVisit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.ServiceVisit
	for _, v := range s.visits[vehicleID] {
		if v.HasOdometer() {
			res = append(res, v)
		}
	}
	model.SortVisitsByCompletion(res)
	return res, nil
}

func (s *MemoryStore) GetVehicle(_ context.Context, vehicleID string) (model.Vehicle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleID]
	return v, ok, nil
}

func (s *MemoryStore) GetCustomer(_ context.Context, customerID string) (model.Customer, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	return c, ok, nil
}

func (s *MemoryStore) ListActiveWithRemindersEnabled(_ context.Context) ([]model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.Tenant
	for _, t := range s.tenants {
		if t.Active && t.RemindersEnabled {
			res = append(res, t)
		}
	}
	return res, nil
}

func (s *MemoryStore) GetTenant(_ context.Context, tenantID string) (model.Tenant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[tenantID]
	return t, ok, nil
}

func (s *MemoryStore) FindUnsent(_ context.Context, vehicleID string) (model.ReminderRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reminders {
		if r.VehicleID == vehicleID && !r.Sent {
			return r, true, nil
		}
	}
	return model.ReminderRecord{}, false, nil
}

func (s *MemoryStore) FindRecentSent(_ context.Context, vehicleID string, cutoff time.Time) (model.ReminderRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reminders {
		if r.VehicleID == vehicleID && r.Sent && r.SentAt != nil && !r.SentAt.Before(cutoff) {
			return r, true, nil
		}
	}
	return model.ReminderRecord{}, false, nil
}

func (s *MemoryStore) Upsert(_ context.Context, rec model.ReminderRecord) (model.ReminderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !rec.Sent {
		for id, existing := range s.reminders {
			if existing.VehicleID == rec.VehicleID && !existing.Sent && id != rec.ID {
				return model.ReminderRecord{}, fmt.Errorf("unsent reminder already exists for vehicle %s", rec.VehicleID)
			}
		}
	}
	s.reminders[rec.ID] = rec
	return rec, nil
}

func (s *MemoryStore) MarkSent(_ context.Context, recordID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.reminders[recordID]
	if !ok {
		return fmt.Errorf("reminder %s not found", recordID)
	}
	rec.Sent = true
	rec.SentAt = &sentAt
	s.reminders[recordID] = rec
	return nil
}

// Reminders returns a snapshot of all records for a vehicle, for tests.
func (s *MemoryStore) Reminders(vehicleID string) []model.ReminderRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.ReminderRecord
	for _, r := range s.reminders {
		if r.VehicleID == vehicleID {
			res = append(res, r)
		}
	}
	return res
}
