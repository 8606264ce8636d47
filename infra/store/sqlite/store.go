// Package sqlite persists the tenant fleet and reminder records in a
// SQLite database. It backs the FleetProvider, ReminderStore and
// TenantDirectory interfaces consumed by the sweep engine.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/autoshop-crm/reminderd/core/model"
)

// Config defines the database location.
type Config struct {
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "reminderd.db"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS tenants (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    website TEXT NOT NULL DEFAULT '',
    active INTEGER NOT NULL DEFAULT 1,
    reminders_enabled INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS customers (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL REFERENCES tenants(id),
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS vehicles (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL REFERENCES tenants(id),
    owner_id TEXT NOT NULL REFERENCES customers(id),
    make TEXT NOT NULL DEFAULT '',
    model TEXT NOT NULL DEFAULT '',
    license_plate TEXT NOT NULL DEFAULT '',
    current_odometer INTEGER NOT NULL DEFAULT 0,
    service_interval_km INTEGER NOT NULL DEFAULT 10000
);
CREATE TABLE IF NOT EXISTS service_visits (
    id TEXT PRIMARY KEY,
    vehicle_id TEXT NOT NULL REFERENCES vehicles(id),
    completed_at INTEGER NOT NULL,
    odometer INTEGER
);
CREATE INDEX IF NOT EXISTS service_visits_vehicle ON service_visits(vehicle_id, completed_at);
CREATE TABLE IF NOT EXISTS reminders (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL REFERENCES tenants(id),
    vehicle_id TEXT NOT NULL REFERENCES vehicles(id),
    customer_id TEXT NOT NULL REFERENCES customers(id),
    predicted_odometer INTEGER NOT NULL,
    service_due_odometer INTEGER NOT NULL,
    sent INTEGER NOT NULL DEFAULT 0,
    sent_at INTEGER,
    created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS reminders_one_unsent_per_vehicle
    ON reminders(vehicle_id) WHERE sent = 0;
`

// Store wraps a SQLite database holding fleet and reminder data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database and ensures the schema.
func Open(cfg Config) (*Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("store config: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// AddTenant inserts or replaces a tenant.
func (s *Store) AddTenant(ctx context.Context, t model.Tenant) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO tenants
        (id, name, phone, website, active, reminders_enabled)
        VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Phone, t.Website, boolInt(t.Active), boolInt(t.RemindersEnabled))
	return err
}

// AddCustomer inserts or replaces a customer.
func (s *Store) AddCustomer(ctx context.Context, c model.Customer) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO customers
        (id, tenant_id, first_name, last_name, phone)
        VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.TenantID, c.FirstName, c.LastName, c.Phone)
	return err
}

// AddVehicle inserts or replaces a vehicle.
func (s *Store) AddVehicle(ctx context.Context, v model.Vehicle) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO vehicles
        (id, tenant_id, owner_id, make, model, license_plate, current_odometer, service_interval_km)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.TenantID, v.OwnerID, v.Make, v.Model, v.LicensePlate, v.CurrentOdometer, v.ServiceIntervalKm)
	return err
}

// RecordServiceVisit inserts a completed visit and advances the vehicle's
// odometer when the intake reading is higher. The vehicle odometer never
// decreases.
func (s *Store) RecordServiceVisit(ctx context.Context, visit model.ServiceVisit) error {
	if visit.ID == "" {
		visit.ID = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var odo any
	if visit.HasOdometer() {
		odo = *visit.Odometer
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO service_visits
        (id, vehicle_id, completed_at, odometer) VALUES (?, ?, ?, ?)`,
		visit.ID, visit.VehicleID, visit.CompletedAt.Unix(), odo); err != nil {
		return err
	}
	if visit.HasOdometer() {
		if _, err := tx.ExecContext(ctx, `UPDATE vehicles
            SET current_odometer = ? WHERE id = ? AND current_odometer < ?`,
			*visit.Odometer, visit.VehicleID, *visit.Odometer); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListVehicles returns the tenant's vehicles with a service interval of at
// least minServiceInterval.
func (s *Store) ListVehicles(ctx context.Context, tenantID string, minServiceInterval int64) ([]model.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, tenant_id, owner_id, make, model,
        license_plate, current_odometer, service_interval_km
        FROM vehicles WHERE tenant_id = ? AND service_interval_km >= ?`,
		tenantID, minServiceInterval)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Vehicle
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.TenantID, &v.OwnerID, &v.Make, &v.Model,
			&v.LicensePlate, &v.CurrentOdometer, &v.ServiceIntervalKm); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// ListServiceVisits returns the vehicle's odometer-bearing visits ordered
// ascending by completion time.
func (s *Store) ListServiceVisits(ctx context.Context, vehicleID string) ([]model.ServiceVisit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, vehicle_id, completed_at, odometer
        FROM service_visits WHERE vehicle_id = ? AND odometer IS NOT NULL
        ORDER BY completed_at`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.ServiceVisit
	for rows.Next() {
		var (
			v  model.ServiceVisit
			ts int64
			km sql.NullInt64
		)
		if err := rows.Scan(&v.ID, &v.VehicleID, &ts, &km); err != nil {
			return nil, err
		}
		v.CompletedAt = time.Unix(ts, 0).UTC()
		if km.Valid {
			v.Odometer = model.OdometerReading(km.Int64)
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// GetVehicle returns the vehicle, or found=false when unknown.
func (s *Store) GetVehicle(ctx context.Context, vehicleID string) (model.Vehicle, bool, error) {
	var v model.Vehicle
	err := s.db.QueryRowContext(ctx, `SELECT id, tenant_id, owner_id, make, model,
        license_plate, current_odometer, service_interval_km
        FROM vehicles WHERE id = ?`, vehicleID).
		Scan(&v.ID, &v.TenantID, &v.OwnerID, &v.Make, &v.Model,
			&v.LicensePlate, &v.CurrentOdometer, &v.ServiceIntervalKm)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vehicle{}, false, nil
	}
	if err != nil {
		return model.Vehicle{}, false, err
	}
	return v, true, nil
}

// GetCustomer returns the customer, or found=false when unknown.
func (s *Store) GetCustomer(ctx context.Context, customerID string) (model.Customer, bool, error) {
	var c model.Customer
	err := s.db.QueryRowContext(ctx, `SELECT id, tenant_id, first_name, last_name, phone
        FROM customers WHERE id = ?`, customerID).
		Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Customer{}, false, nil
	}
	if err != nil {
		return model.Customer{}, false, err
	}
	return c, true, nil
}

// ListActiveWithRemindersEnabled returns tenants eligible for sweeps.
func (s *Store) ListActiveWithRemindersEnabled(ctx context.Context) ([]model.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, phone, website, active, reminders_enabled
        FROM tenants WHERE active = 1 AND reminders_enabled = 1`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// GetTenant returns the tenant, or found=false when unknown.
func (s *Store) GetTenant(ctx context.Context, tenantID string) (model.Tenant, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, phone, website, active, reminders_enabled
        FROM tenants WHERE id = ?`, tenantID)
	t, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tenant{}, false, nil
	}
	if err != nil {
		return model.Tenant{}, false, err
	}
	return t, true, nil
}

// FindUnsent returns the vehicle's pending reminder, if any.
func (s *Store) FindUnsent(ctx context.Context, vehicleID string) (model.ReminderRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, tenant_id, vehicle_id, customer_id,
        predicted_odometer, service_due_odometer, sent, sent_at, created_at
        FROM reminders WHERE vehicle_id = ? AND sent = 0`, vehicleID)
	return scanReminder(row)
}

// FindRecentSent returns a reminder sent at or after the cutoff, if any.
func (s *Store) FindRecentSent(ctx context.Context, vehicleID string, cutoff time.Time) (model.ReminderRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, tenant_id, vehicle_id, customer_id,
        predicted_odometer, service_due_odometer, sent, sent_at, created_at
        FROM reminders WHERE vehicle_id = ? AND sent = 1 AND sent_at >= ?
        ORDER BY sent_at DESC LIMIT 1`, vehicleID, cutoff.Unix())
	return scanReminder(row)
}

// Upsert inserts the record or refreshes the vehicle's existing unsent
// record. The partial unique index on (vehicle_id) WHERE sent = 0 makes
// concurrent creation safe: the losing insert turns into an update of the
// surviving row.
func (s *Store) Upsert(ctx context.Context, rec model.ReminderRecord) (model.ReminderRecord, error) {
	if rec.Sent {
		return model.ReminderRecord{}, fmt.Errorf("upsert is only valid for unsent reminders")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO reminders
        (id, tenant_id, vehicle_id, customer_id, predicted_odometer, service_due_odometer, sent, sent_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, 0, NULL, ?)
        ON CONFLICT(vehicle_id) WHERE sent = 0 DO UPDATE SET
            predicted_odometer = excluded.predicted_odometer,
            service_due_odometer = excluded.service_due_odometer`,
		rec.ID, rec.TenantID, rec.VehicleID, rec.CustomerID,
		rec.PredictedOdometer, rec.ServiceDueOdometer, rec.CreatedAt.Unix())
	if err != nil {
		return model.ReminderRecord{}, err
	}
	stored, found, err := s.FindUnsent(ctx, rec.VehicleID)
	if err != nil {
		return model.ReminderRecord{}, err
	}
	if !found {
		return model.ReminderRecord{}, fmt.Errorf("reminder for vehicle %s vanished during upsert", rec.VehicleID)
	}
	return stored, nil
}

// MarkSent transitions the record to sent.
func (s *Store) MarkSent(ctx context.Context, recordID string, sentAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reminders SET sent = 1, sent_at = ?
        WHERE id = ?`, sentAt.Unix(), recordID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("reminder %s not found", recordID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (model.Tenant, error) {
	var (
		t                 model.Tenant
		active, reminders int64
	)
	err := row.Scan(&t.ID, &t.Name, &t.Phone, &t.Website, &active, &reminders)
	if err != nil {
		return model.Tenant{}, err
	}
	t.Active = active != 0
	t.RemindersEnabled = reminders != 0
	return t, nil
}

func scanReminder(row rowScanner) (model.ReminderRecord, bool, error) {
	var (
		rec     model.ReminderRecord
		sent    int64
		sentAt  sql.NullInt64
		created int64
	)
	err := row.Scan(&rec.ID, &rec.TenantID, &rec.VehicleID, &rec.CustomerID,
		&rec.PredictedOdometer, &rec.ServiceDueOdometer, &sent, &sentAt, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReminderRecord{}, false, nil
	}
	if err != nil {
		return model.ReminderRecord{}, false, err
	}
	rec.Sent = sent != 0
	if sentAt.Valid {
		at := time.Unix(sentAt.Int64, 0).UTC()
		rec.SentAt = &at
	}
	rec.CreatedAt = time.Unix(created, 0).UTC()
	return rec, true, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
