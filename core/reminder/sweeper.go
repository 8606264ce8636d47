package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autoshop-crm/reminderd/core/logger"
	"github.com/autoshop-crm/reminderd/core/metrics"
	"github.com/autoshop-crm/reminderd/core/model"
	"github.com/autoshop-crm/reminderd/core/prediction"
	"github.com/autoshop-crm/reminderd/internal/eventbus"
)

// TenantReport summarises the outcome of one tenant sweep.
type TenantReport struct {
	TenantID string
	// Vehicles is the number of vehicles evaluated.
	Vehicles int
	// Due counts vehicles flagged due for service.
	Due int
	// Sent counts confirmed notifications.
	Sent int
	// Failed counts vehicles whose evaluation or notification failed;
	// their reminder records stay unsent and are retried next sweep.
	Failed int
	// Suppressed counts vehicles skipped because a reminder was sent
	// within the suppression window.
	Suppressed int
	// Skipped counts vehicles with no prediction or not yet due.
	Skipped  int
	Duration time.Duration
}

type vehicleOutcome int

const (
	outcomeSkipped vehicleOutcome = iota
	outcomeSuppressed
	outcomeSent
	outcomeFailed
)

// Sweeper iterates a tenant's fleet, consults the mileage predictor and
// drives the notification sink. One Sweeper instance runs at most one
// sweep at a time; vehicles within a sweep are evaluated concurrently by
// a bounded worker pool. No store or sweep lock is ever held across a
// Notify call.
type Sweeper struct {
	fleet     FleetProvider
	store     ReminderStore
	tenants   TenantDirectory
	notifier  Notifier
	predictor *prediction.Predictor
	cfg       Config
	log       logger.Logger
	sink      metrics.Sink
	bus       eventbus.EventBus

	sweepMu sync.Mutex
	now     func() time.Time
}

// NewSweeper creates a Sweeper. The bus may be nil when no event fan-out
// is wanted.
func NewSweeper(
	fleet FleetProvider,
	store ReminderStore,
	tenants TenantDirectory,
	notifier Notifier,
	predictor *prediction.Predictor,
	cfg Config,
	log logger.Logger,
	sink metrics.Sink,
	bus eventbus.EventBus,
) (*Sweeper, error) {
	if fleet == nil || store == nil || tenants == nil || notifier == nil || predictor == nil {
		return nil, fmt.Errorf("reminder: nil parameter provided to NewSweeper")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("reminder config: %w", err)
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Sweeper{
		fleet:     fleet,
		store:     store,
		tenants:   tenants,
		notifier:  notifier,
		predictor: predictor,
		cfg:       cfg,
		log:       log,
		sink:      sink,
		bus:       bus,
		now:       time.Now,
	}, nil
}

// SweepAll runs a sweep for every active tenant with reminders enabled.
// Per-tenant failures are logged and do not abort sibling tenants.
func (s *Sweeper) SweepAll(ctx context.Context) []TenantReport {
	tenants, err := s.tenants.ListActiveWithRemindersEnabled(ctx)
	if err != nil {
		s.log.Errorf("list tenants: %v", err)
		return nil
	}
	reports := make([]TenantReport, 0, len(tenants))
	for _, tenant := range tenants {
		if ctx.Err() != nil {
			return reports
		}
		report, err := s.SweepTenant(ctx, tenant.ID)
		if err != nil {
			s.log.Errorf("sweep tenant %s: %v", tenant.ID, err)
			continue
		}
		reports = append(reports, report)
	}
	return reports
}

// SweepTenant evaluates every vehicle of the tenant with a positive
// service interval. Per-vehicle failures are isolated: they count as
// failed in the report and the sweep continues.
func (s *Sweeper) SweepTenant(ctx context.Context, tenantID string) (TenantReport, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	start := s.now()
	tenant, found, err := s.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return TenantReport{}, fmt.Errorf("get tenant %s: %w", tenantID, err)
	}
	if !found {
		return TenantReport{}, fmt.Errorf("tenant %s not found", tenantID)
	}

	vehicles, err := s.fleet.ListVehicles(ctx, tenantID, 1)
	if err != nil {
		return TenantReport{}, fmt.Errorf("list vehicles for %s: %w", tenantID, err)
	}
	s.log.Infof("sweeping tenant %s: %d vehicles", tenant.Name, len(vehicles))

	report := TenantReport{TenantID: tenantID, Vehicles: len(vehicles)}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	record := func(v model.Vehicle, outcome vehicleOutcome, due bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		if due {
			report.Due++
		}
		switch outcome {
		case outcomeSent:
			report.Sent++
		case outcomeFailed:
			report.Failed++
		case outcomeSuppressed:
			report.Suppressed++
		case outcomeSkipped:
			report.Skipped++
		}
		if err != nil {
			s.log.Errorf("vehicle %s: %v", v.ID, err)
		}
	}

	jobs := make(chan model.Vehicle)
	workers := s.cfg.Workers
	if workers > len(vehicles) {
		workers = len(vehicles)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range jobs {
				outcome, due, err := s.evaluateVehicle(ctx, tenant, v)
				record(v, outcome, due, err)
			}
		}()
	}
	for _, v := range vehicles {
		jobs <- v
	}
	close(jobs)
	wg.Wait()

	report.Duration = s.now().Sub(start)
	if err := s.sink.RecordSweep(metrics.SweepResult{
		TenantID:   tenantID,
		Vehicles:   report.Vehicles,
		Due:        report.Due,
		Sent:       report.Sent,
		Failed:     report.Failed,
		Suppressed: report.Suppressed,
		Skipped:    report.Skipped,
		Duration:   report.Duration,
		Time:       start,
	}); err != nil {
		s.log.Errorf("metrics error: %v", err)
	}
	if s.bus != nil {
		s.bus.Publish(SweepCompletedEvent{Report: report})
	}
	return report, nil
}

// evaluateVehicle applies suppression, prediction and notification for a
// single vehicle. Each vehicle appears exactly once per sweep and sweeps
// are serialized, so no two evaluations of the same vehicle overlap.
func (s *Sweeper) evaluateVehicle(ctx context.Context, tenant model.Tenant, v model.Vehicle) (vehicleOutcome, bool, error) {
	now := s.now()
	cutoff := now.AddDate(0, 0, -s.cfg.SuppressionWindowDays)
	if _, sent, err := s.store.FindRecentSent(ctx, v.ID, cutoff); err != nil {
		return outcomeFailed, false, fmt.Errorf("find recent reminder: %w", err)
	} else if sent {
		return outcomeSuppressed, false, nil
	}

	assessment, ok, err := s.predictor.ServiceDue(ctx, v.ID)
	if err != nil {
		return outcomeFailed, false, err
	}
	if !ok || !assessment.Due {
		return outcomeSkipped, false, nil
	}

	rec, err := s.ensureRecord(ctx, tenant, v, assessment)
	if err != nil {
		return outcomeFailed, true, err
	}

	customer, found, err := s.fleet.GetCustomer(ctx, v.OwnerID)
	if err != nil {
		return outcomeFailed, true, fmt.Errorf("get customer %s: %w", v.OwnerID, err)
	}
	if !found {
		return outcomeFailed, true, fmt.Errorf("customer %s not found", v.OwnerID)
	}

	message := RenderMessage(tenant, customer, v, assessment.PredictedOdometer)
	if err := s.notifier.Notify(ctx, customer.Phone, message); err != nil {
		// The record stays unsent and is retried on the next sweep.
		s.recordReminder(tenant.ID, v, assessment, false, now)
		return outcomeFailed, true, fmt.Errorf("notify %s: %w", customer.Phone, err)
	}

	if err := s.store.MarkSent(ctx, rec.ID, now); err != nil {
		s.recordReminder(tenant.ID, v, assessment, true, now)
		return outcomeFailed, true, fmt.Errorf("mark reminder sent: %w", err)
	}
	s.recordReminder(tenant.ID, v, assessment, true, now)
	if s.bus != nil {
		rec.Sent = true
		rec.SentAt = &now
		s.bus.Publish(ReminderSentEvent{Record: rec, SentAt: now})
	}
	s.log.Infof("sent reminder for vehicle %s to %s", v.ID, customer.Phone)
	return outcomeSent, true, nil
}

// ensureRecord reuses the vehicle's unsent record when one exists,
// refreshing its projections only when they changed; otherwise it creates
// a new unsent record.
func (s *Sweeper) ensureRecord(ctx context.Context, tenant model.Tenant, v model.Vehicle, a prediction.Assessment) (model.ReminderRecord, error) {
	rec, found, err := s.store.FindUnsent(ctx, v.ID)
	if err != nil {
		return model.ReminderRecord{}, fmt.Errorf("find unsent reminder: %w", err)
	}
	if found {
		if rec.PredictedOdometer == a.PredictedOdometer && rec.ServiceDueOdometer == a.DueOdometer {
			return rec, nil
		}
		rec.PredictedOdometer = a.PredictedOdometer
		rec.ServiceDueOdometer = a.DueOdometer
		rec, err = s.store.Upsert(ctx, rec)
		if err != nil {
			return model.ReminderRecord{}, fmt.Errorf("update reminder: %w", err)
		}
		return rec, nil
	}
	rec = model.ReminderRecord{
		ID:                 uuid.NewString(),
		TenantID:           tenant.ID,
		VehicleID:          v.ID,
		CustomerID:         v.OwnerID,
		PredictedOdometer:  a.PredictedOdometer,
		ServiceDueOdometer: a.DueOdometer,
		CreatedAt:          s.now(),
	}
	rec, err = s.store.Upsert(ctx, rec)
	if err != nil {
		return model.ReminderRecord{}, fmt.Errorf("create reminder: %w", err)
	}
	return rec, nil
}

func (s *Sweeper) recordReminder(tenantID string, v model.Vehicle, a prediction.Assessment, delivered bool, at time.Time) {
	err := s.sink.RecordReminder(metrics.ReminderEvent{
		TenantID:          tenantID,
		VehicleID:         v.ID,
		CustomerID:        v.OwnerID,
		PredictedOdometer: a.PredictedOdometer,
		DueOdometer:       a.DueOdometer,
		Delivered:         delivered,
		Time:              at,
	})
	if err != nil {
		s.log.Errorf("metrics error: %v", err)
	}
}
