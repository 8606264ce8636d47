package reminder

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/autoshop-crm/reminderd/core/model"
	"github.com/autoshop-crm/reminderd/core/prediction"
	"github.com/autoshop-crm/reminderd/infra/logger"
	"github.com/autoshop-crm/reminderd/internal/eventbus"
)

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []string // recipient phone numbers, in order
	failTo map[string]bool
}

func (f *fakeNotifier) Notify(_ context.Context, to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTo[to] {
		return fmt.Errorf("gateway rejected %s", to)
	}
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var evalTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// seedDueVehicle populates one tenant with a vehicle whose projection
// crosses the next service threshold.
func seedDueVehicle(store *MemoryStore, vehicleID, phone string) {
	store.AddTenant(model.Tenant{
		ID: "t1", Name: "Demo Auto Shop", Phone: "+359888123456",
		Website: "https://shop.example.com", Active: true, RemindersEnabled: true,
	})
	custID := "c-" + vehicleID
	store.AddCustomer(model.Customer{ID: custID, TenantID: "t1", FirstName: "Maria", LastName: "Ivanova", Phone: phone})
	store.AddVehicle(model.Vehicle{
		ID: vehicleID, TenantID: "t1", OwnerID: custID,
		Make: "VW", Model: "Golf", LicensePlate: "CB5678AK",
		CurrentOdometer: 99000, ServiceIntervalKm: 10000,
	})
	store.AddVisit(model.ServiceVisit{
		VehicleID: vehicleID, CompletedAt: evalTime.AddDate(0, 0, -60),
		Odometer: model.OdometerReading(85000),
	})
	store.AddVisit(model.ServiceVisit{
		VehicleID: vehicleID, CompletedAt: evalTime,
		Odometer: model.OdometerReading(95000),
	})
}

func newTestSweeper(t *testing.T, store *MemoryStore, notifier Notifier, bus eventbus.EventBus) *Sweeper {
	t.Helper()
	pred, err := prediction.New(store, prediction.Config{}, logger.NopLogger{})
	require.NoError(t, err)
	sw, err := NewSweeper(store, store, store, notifier, pred, Config{}, logger.NopLogger{}, nil, bus)
	require.NoError(t, err)
	sw.now = func() time.Time { return evalTime }
	return sw
}

func TestSweepTenantSendsReminderOnce(t *testing.T) {
	store := NewMemoryStore()
	seedDueVehicle(store, "v1", "+359888000001")
	notifier := &fakeNotifier{}
	sw := newTestSweeper(t, store, notifier, nil)

	report, err := sw.SweepTenant(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 1, report.Vehicles)
	require.Equal(t, 1, report.Due)
	require.Equal(t, 1, report.Sent)
	require.Equal(t, 1, notifier.sentCount())

	recs := store.Reminders("v1")
	require.Len(t, recs, 1)
	require.True(t, recs[0].Sent)
	require.NotNil(t, recs[0].SentAt)
	require.Equal(t, int64(101333), recs[0].PredictedOdometer)
	require.Equal(t, int64(100000), recs[0].ServiceDueOdometer)
}

func TestSweepTenantSuppressionWindow(t *testing.T) {
	store := NewMemoryStore()
	seedDueVehicle(store, "v1", "+359888000001")
	notifier := &fakeNotifier{}
	sw := newTestSweeper(t, store, notifier, nil)

	_, err := sw.SweepTenant(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 1, notifier.sentCount())

	// A second sweep with no new visits must not notify again.
	report, err := sw.SweepTenant(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 1, report.Suppressed)
	require.Zero(t, report.Sent)
	require.Equal(t, 1, notifier.sentCount())
	require.Len(t, store.Reminders("v1"), 1)

	// Past the suppression window the vehicle is eligible again.
	sw.now = func() time.Time { return evalTime.AddDate(0, 0, 31) }
	report, err = sw.SweepTenant(context.Background(), "t1")
	require.NoError(t, err)
	require.Zero(t, report.Suppressed)
}

func TestSweepTenantReusesUnsentRecord(t *testing.T) {
	store := NewMemoryStore()
	seedDueVehicle(store, "v1", "+359888000001")
	notifier := &fakeNotifier{failTo: map[string]bool{"+359888000001": true}}
	sw := newTestSweeper(t, store, notifier, nil)

	report, err := sw.SweepTenant(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Zero(t, report.Sent)

	// Sink keeps failing on the next sweep: still exactly one record.
	report, err = sw.SweepTenant(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)

	recs := store.Reminders("v1")
	require.Len(t, recs, 1)
	require.False(t, recs[0].Sent)

	// Once the gateway recovers the pending record is sent, not duplicated.
	notifier.failTo = nil
	report, err = sw.SweepTenant(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 1, report.Sent)
	recs = store.Reminders("v1")
	require.Len(t, recs, 1)
	require.True(t, recs[0].Sent)
}

func TestSweepTenantFailureIsolation(t *testing.T) {
	store := NewMemoryStore()
	seedDueVehicle(store, "v1", "+359888000001")
	seedDueVehicle(store, "v2", "+359888000002")
	notifier := &fakeNotifier{failTo: map[string]bool{"+359888000001": true}}
	sw := newTestSweeper(t, store, notifier, nil)

	report, err := sw.SweepTenant(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 2, report.Vehicles)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 1, report.Sent)
	require.Equal(t, 1, notifier.sentCount())
	require.Len(t, store.Reminders("v2"), 1)
	require.True(t, store.Reminders("v2")[0].Sent)
	require.False(t, store.Reminders("v1")[0].Sent)
}

func TestSweepTenantNotDueCreatesNothing(t *testing.T) {
	store := NewMemoryStore()
	seedDueVehicle(store, "v1", "+359888000001")
	// 95000 on the clock keeps the projection below the threshold.
	store.AddVehicle(model.Vehicle{
		ID: "v1", TenantID: "t1", OwnerID: "c-v1",
		CurrentOdometer: 95000, ServiceIntervalKm: 10000,
	})
	notifier := &fakeNotifier{}
	sw := newTestSweeper(t, store, notifier, nil)

	report, err := sw.SweepTenant(context.Background(), "t1")
	require.NoError(t, err)
	require.Zero(t, report.Due)
	require.Equal(t, 1, report.Skipped)
	require.Zero(t, notifier.sentCount())
	require.Empty(t, store.Reminders("v1"))
}

func TestSweepAllIsolatesTenants(t *testing.T) {
	store := NewMemoryStore()
	seedDueVehicle(store, "v1", "+359888000001")
	store.AddTenant(model.Tenant{ID: "t2", Name: "Second Shop", Active: true, RemindersEnabled: true})
	store.AddTenant(model.Tenant{ID: "t3", Name: "Disabled Shop", Active: true, RemindersEnabled: false})
	notifier := &fakeNotifier{}
	sw := newTestSweeper(t, store, notifier, nil)

	reports := sw.SweepAll(context.Background())
	require.Len(t, reports, 2)
	total := 0
	for _, r := range reports {
		total += r.Sent
	}
	require.Equal(t, 1, total)
}

func TestSweepPublishesEvents(t *testing.T) {
	store := NewMemoryStore()
	seedDueVehicle(store, "v1", "+359888000001")
	bus := eventbus.New()
	sub := bus.Subscribe()
	notifier := &fakeNotifier{}
	sw := newTestSweeper(t, store, notifier, bus)

	_, err := sw.SweepTenant(context.Background(), "t1")
	require.NoError(t, err)

	var sentSeen, sweepSeen bool
	for i := 0; i < 2; i++ {
		select {
		case ev := <-sub:
			switch e := ev.(type) {
			case ReminderSentEvent:
				sentSeen = true
				require.Equal(t, "v1", e.Record.VehicleID)
			case SweepCompletedEvent:
				sweepSeen = true
				require.Equal(t, 1, e.Report.Sent)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for events")
		}
	}
	require.True(t, sentSeen)
	require.True(t, sweepSeen)
}

func TestSweepTenantUnknownTenant(t *testing.T) {
	store := NewMemoryStore()
	notifier := &fakeNotifier{}
	sw := newTestSweeper(t, store, notifier, nil)
	_, err := sw.SweepTenant(context.Background(), "missing")
	require.Error(t, err)
}

func TestRenderMessage(t *testing.T) {
	tenant := model.Tenant{Name: "Demo Auto Shop", Phone: "+359888123456", Website: "https://shop.example.com"}
	customer := model.Customer{FirstName: "Maria", LastName: "Ivanova"}
	vehicle := model.Vehicle{Make: "VW", Model: "Golf", LicensePlate: "CB5678AK"}
	msg := RenderMessage(tenant, customer, vehicle, 101333)
	require.Contains(t, msg, "Maria Ivanova")
	require.Contains(t, msg, "VW Golf (CB5678AK)")
	require.Contains(t, msg, "101333 km")
	require.Contains(t, msg, "https://shop.example.com")
	require.Contains(t, msg, "Demo Auto Shop | +359888123456")
}
