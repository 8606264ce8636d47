package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/autoshop-crm/reminderd/core/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedFleet(t *testing.T, st *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.AddTenant(ctx, model.Tenant{
		ID: "t1", Name: "Demo Auto Shop", Phone: "+100", Website: "https://demo.example",
		Active: true, RemindersEnabled: true,
	}))
	require.NoError(t, st.AddTenant(ctx, model.Tenant{
		ID: "t2", Name: "Paused Shop", Active: true, RemindersEnabled: false,
	}))
	require.NoError(t, st.AddCustomer(ctx, model.Customer{
		ID: "c1", TenantID: "t1", FirstName: "Ivan", LastName: "Petrov", Phone: "+200",
	}))
	require.NoError(t, st.AddVehicle(ctx, model.Vehicle{
		ID: "v1", TenantID: "t1", OwnerID: "c1", Make: "Toyota", Model: "Corolla",
		LicensePlate: "CA1234XP", CurrentOdometer: 95000, ServiceIntervalKm: 10000,
	}))
}

func TestTenantDirectory(t *testing.T) {
	st := newTestStore(t)
	seedFleet(t, st)
	ctx := context.Background()

	tenants, err := st.ListActiveWithRemindersEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	require.Equal(t, "t1", tenants[0].ID)

	ten, found, err := st.GetTenant(ctx, "t1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Demo Auto Shop", ten.Name)

	_, found, err = st.GetTenant(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestFleetProvider(t *testing.T) {
	st := newTestStore(t)
	seedFleet(t, st)
	ctx := context.Background()

	vehicles, err := st.ListVehicles(ctx, "t1", 1)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	require.Equal(t, int64(95000), vehicles[0].CurrentOdometer)

	// minServiceInterval filters vehicles out.
	vehicles, err = st.ListVehicles(ctx, "t1", 20000)
	require.NoError(t, err)
	require.Empty(t, vehicles)

	veh, found, err := st.GetVehicle(ctx, "v1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Toyota Corolla (CA1234XP)", veh.Description())

	cust, found, err := st.GetCustomer(ctx, "c1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Ivan Petrov", cust.FullName())
}

func TestRecordServiceVisitAdvancesOdometer(t *testing.T) {
	st := newTestStore(t)
	seedFleet(t, st)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, st.RecordServiceVisit(ctx, model.ServiceVisit{
		VehicleID: "v1", CompletedAt: base, Odometer: model.OdometerReading(96000),
	}))
	// Lower reading leaves the odometer unchanged.
	require.NoError(t, st.RecordServiceVisit(ctx, model.ServiceVisit{
		VehicleID: "v1", CompletedAt: base.AddDate(0, 0, 1), Odometer: model.OdometerReading(90000),
	}))
	// Visit without a reading is stored but excluded from listings.
	require.NoError(t, st.RecordServiceVisit(ctx, model.ServiceVisit{
		VehicleID: "v1", CompletedAt: base.AddDate(0, 0, 2),
	}))

	veh, _, err := st.GetVehicle(ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, int64(96000), veh.CurrentOdometer)

	visits, err := st.ListServiceVisits(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, visits, 2)
	require.True(t, visits[0].CompletedAt.Before(visits[1].CompletedAt))
}

func TestReminderLifecycle(t *testing.T) {
	st := newTestStore(t)
	seedFleet(t, st)
	ctx := context.Background()

	_, found, err := st.FindUnsent(ctx, "v1")
	require.NoError(t, err)
	require.False(t, found)

	rec, err := st.Upsert(ctx, model.ReminderRecord{
		TenantID: "t1", VehicleID: "v1", CustomerID: "c1",
		PredictedOdometer: 101333, ServiceDueOdometer: 100000,
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)

	// A second upsert refreshes the pending record instead of duplicating it.
	again, err := st.Upsert(ctx, model.ReminderRecord{
		TenantID: "t1", VehicleID: "v1", CustomerID: "c1",
		PredictedOdometer: 102000, ServiceDueOdometer: 100000,
	})
	require.NoError(t, err)
	require.Equal(t, rec.ID, again.ID)
	require.Equal(t, int64(102000), again.PredictedOdometer)

	sentAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, st.MarkSent(ctx, rec.ID, sentAt))

	_, found, err = st.FindUnsent(ctx, "v1")
	require.NoError(t, err)
	require.False(t, found)

	recent, found, err := st.FindRecentSent(ctx, "v1", sentAt.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, recent.Sent)
	require.NotNil(t, recent.SentAt)
	require.True(t, recent.SentAt.Equal(sentAt))

	_, found, err = st.FindRecentSent(ctx, "v1", sentAt.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.False(t, found)
}

func TestMarkSentUnknownRecord(t *testing.T) {
	st := newTestStore(t)
	err := st.MarkSent(context.Background(), "nope", time.Now())
	require.Error(t, err)
}

func TestUpsertRejectsSentRecord(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Upsert(context.Background(), model.ReminderRecord{VehicleID: "v1", Sent: true})
	require.Error(t, err)
}
