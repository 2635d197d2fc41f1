package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/dates"
	"staybook/internal/domain/shared/money"
	domainunit "staybook/internal/domain/unit"
)

func seedBooking(t *testing.T, store *Store, id domainbooking.ID, status domainbooking.Status, in, out string) {
	t.Helper()
	checkIn, err := time.Parse("2006-01-02", in)
	require.NoError(t, err)
	checkOut, err := time.Parse("2006-01-02", out)
	require.NoError(t, err)
	dr, err := dates.New(checkIn, checkOut)
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         id,
		GuestID:    "guest-1",
		PropertyID: "prop-1",
		Range:      dr,
		Guests:     1,
		Lines: []domainbooking.LineItem{
			{UnitID: "unit-a", Nights: dr.Nights(), PricePerNight: money.Must(10000, "USD")},
		},
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	b.ClearEvents()
	if status != domainbooking.StatusPending {
		b.Status = status
	}
	require.NoError(t, NewBookingRepository(store).Save(context.Background(), b))
}

func TestBookingRepositoryRoundTrip(t *testing.T) {
	store := NewStore()
	repo := NewBookingRepository(store)
	seedBooking(t, store, "bk-1", domainbooking.StatusPending, "2026-01-01", "2026-01-05")

	b, err := repo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.ID("bk-1"), b.ID)
	assert.Equal(t, int64(1), b.Version, "save bumps the version")

	_, err = repo.ByID(context.Background(), "bk-ghost")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestBookingRepositoryCopyOnRead(t *testing.T) {
	store := NewStore()
	repo := NewBookingRepository(store)
	seedBooking(t, store, "bk-1", domainbooking.StatusPending, "2026-01-01", "2026-01-05")

	loaded, err := repo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	loaded.Status = domainbooking.StatusCompleted

	again, err := repo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, again.Status, "mutations leak only through Save")
}

func TestAvailabilityRepositoryOverlapQuery(t *testing.T) {
	store := NewStore()
	repo := NewAvailabilityRepository(store)
	seedBooking(t, store, "bk-blocking", domainbooking.StatusConfirmed, "2026-01-01", "2026-01-05")
	seedBooking(t, store, "bk-freed", domainbooking.StatusCancelled, "2026-01-01", "2026-01-05")

	dr, err := dates.New(
		time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	holds, err := repo.Overlapping(context.Background(), []domainunit.ID{"unit-a"}, dr, "")
	require.NoError(t, err)
	require.Len(t, holds, 1, "non-blocking statuses never hold the calendar")
	assert.Equal(t, domainbooking.ID("bk-blocking"), holds[0].BookingID)

	holds, err = repo.Overlapping(context.Background(), []domainunit.ID{"unit-a"}, dr, "bk-blocking")
	require.NoError(t, err)
	assert.Empty(t, holds, "excluded booking is skipped")

	adjacent, err := dates.New(
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	holds, err = repo.Overlapping(context.Background(), []domainunit.ID{"unit-a"}, adjacent, "")
	require.NoError(t, err)
	assert.Empty(t, holds, "half-open ranges: checkout day is free")
}

func TestAvailabilityRepositorySkipsRemoved(t *testing.T) {
	store := NewStore()
	repo := NewAvailabilityRepository(store)
	seedBooking(t, store, "bk-1", domainbooking.StatusConfirmed, "2026-01-01", "2026-01-05")

	b, err := NewBookingRepository(store).ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	b.Remove(time.Now())
	require.NoError(t, NewBookingRepository(store).Save(context.Background(), b))

	dr, err := dates.New(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	holds, err := repo.Overlapping(context.Background(), []domainunit.ID{"unit-a"}, dr, "")
	require.NoError(t, err)
	assert.Empty(t, holds)
}

func TestFactorySerializesWriters(t *testing.T) {
	store := NewStore()
	factory := Factory{Store: store}

	first, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)

	started := make(chan struct{})
	acquired := make(chan struct{})
	go func() {
		close(started)
		second, err := factory.Begin(context.Background(), uow.TxOptions{})
		if err == nil {
			_ = second.Rollback(context.Background())
		}
		close(acquired)
	}()

	<-started
	select {
	case <-acquired:
		t.Fatal("second write transaction started before the first finished")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, first.Commit(context.Background()))
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second write transaction never started")
	}
}

func TestFactoryAllowsConcurrentReaders(t *testing.T) {
	store := NewStore()
	factory := Factory{Store: store}

	first, err := factory.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	second, err := factory.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)

	require.NoError(t, first.Rollback(context.Background()))
	require.NoError(t, second.Rollback(context.Background()))
}

func TestUnitRepository(t *testing.T) {
	store := NewStore()
	repo := NewUnitRepository(store)
	require.NoError(t, repo.Save(context.Background(), &domainunit.RentableUnit{
		ID: "unit-a", PropertyID: "prop-1", Name: "Garden room",
		NightlyRate: money.Must(10000, "USD"), Active: true,
	}))

	u, err := repo.ByID(context.Background(), "unit-a")
	require.NoError(t, err)
	assert.Equal(t, "Garden room", u.Name)

	_, err = repo.ByID(context.Background(), "unit-ghost")
	assert.ErrorIs(t, err, domainunit.ErrUnitNotFound)

	units, err := repo.ByIDs(context.Background(), []domainunit.ID{"unit-a", "unit-ghost"})
	require.NoError(t, err)
	assert.Len(t, units, 1, "missing ids are simply absent")
}
