package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/money"
	domainunit "staybook/internal/domain/unit"
	"staybook/internal/infra/storage/memory"
)

type fixture struct {
	store   *memory.Store
	factory memory.Factory
	outbox  *memory.Outbox
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	units := memory.NewUnitRepository(store)
	seed := []*domainunit.RentableUnit{
		{ID: "unit-a", PropertyID: "prop-1", Name: "Garden room", NightlyRate: money.Must(10000, "USD"), Active: true},
		{ID: "unit-b", PropertyID: "prop-1", Name: "Loft", NightlyRate: money.Must(5000, "USD"), Active: true},
		{ID: "unit-dark", PropertyID: "prop-1", Name: "Closed wing", NightlyRate: money.Must(9000, "USD"), Active: false},
	}
	for _, u := range seed {
		require.NoError(t, units.Save(context.Background(), u))
	}
	return fixture{
		store:   store,
		factory: memory.Factory{Store: store},
		outbox:  memory.NewOutbox(),
	}
}

func (f fixture) requestHandler() *RequestBookingHandler {
	return &RequestBookingHandler{UoWFactory: f.factory, Outbox: f.outbox}
}

func stay(t *testing.T, in, out string) (time.Time, time.Time) {
	t.Helper()
	checkIn, err := time.Parse("2006-01-02", in)
	require.NoError(t, err)
	checkOut, err := time.Parse("2006-01-02", out)
	require.NoError(t, err)
	return checkIn, checkOut
}

func TestRequestBooking(t *testing.T) {
	f := newFixture(t)
	checkIn, checkOut := stay(t, "2026-06-01", "2026-06-04")

	result, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID:  "bk-1",
		GuestID:    "guest-1",
		PropertyID: "prop-1",
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     2,
		Lines: []RequestedLine{
			{UnitID: "unit-a", Nights: 3},
			{UnitID: "unit-b", Nights: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "bk-1", result.BookingID)
	assert.Equal(t, int64(40000), result.TotalCents, "3x100.00 + 2x50.00")
	assert.Equal(t, "USD", result.Currency)

	stored, err := memory.NewBookingRepository(f.store).ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, stored.Status)
	assert.Equal(t, money.Must(40000, "USD"), stored.Total)
	require.Len(t, stored.Lines, 2)
	assert.Equal(t, money.Must(30000, "USD"), stored.Lines[0].LineTotal)
}

func TestRequestBookingDefaultsNightsToStayLength(t *testing.T) {
	f := newFixture(t)
	checkIn, checkOut := stay(t, "2026-06-01", "2026-06-05")

	result, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID:  "bk-1",
		GuestID:    "guest-1",
		PropertyID: "prop-1",
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     1,
		Lines:      []RequestedLine{{UnitID: "unit-a"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(40000), result.TotalCents, "4 nights at 100.00")
}

func TestRequestBookingRecordsCreatedEvent(t *testing.T) {
	f := newFixture(t)
	checkIn, checkOut := stay(t, "2026-06-01", "2026-06-04")

	_, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID:  "bk-1",
		GuestID:    "guest-1",
		PropertyID: "prop-1",
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     2,
		Lines:      []RequestedLine{{UnitID: "unit-a"}},
	})
	require.NoError(t, err)

	records := f.outbox.Records()
	require.Len(t, records, 1)
	assert.Equal(t, domainbooking.EventCreated, records[0].Name)
	assert.Equal(t, "bk-1", records[0].Aggregate)
}

func TestRequestBookingConflict(t *testing.T) {
	f := newFixture(t)
	handler := f.requestHandler()
	checkIn, checkOut := stay(t, "2026-06-01", "2026-06-05")

	_, err := handler.Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1", GuestID: "guest-1", PropertyID: "prop-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 1,
		Lines: []RequestedLine{{UnitID: "unit-a"}},
	})
	require.NoError(t, err)

	overlapIn, overlapOut := stay(t, "2026-06-04", "2026-06-07")
	_, err = handler.Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-2", GuestID: "guest-2", PropertyID: "prop-1",
		CheckIn: overlapIn, CheckOut: overlapOut, Guests: 1,
		Lines: []RequestedLine{{UnitID: "unit-a"}, {UnitID: "unit-b"}},
	})
	var conflict *domainavailability.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []domainunit.ID{"unit-a"}, conflict.UnitIDs(), "only the contested unit is reported")

	_, loadErr := memory.NewBookingRepository(f.store).ByID(context.Background(), "bk-2")
	assert.ErrorIs(t, loadErr, domainbooking.ErrBookingNotFound, "failed attempts persist nothing")
	assert.Len(t, f.outbox.Records(), 1, "no event for the failed attempt")
}

func TestRequestBookingBackToBackStays(t *testing.T) {
	f := newFixture(t)
	handler := f.requestHandler()

	firstIn, firstOut := stay(t, "2026-06-01", "2026-06-05")
	_, err := handler.Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1", GuestID: "guest-1", PropertyID: "prop-1",
		CheckIn: firstIn, CheckOut: firstOut, Guests: 1,
		Lines: []RequestedLine{{UnitID: "unit-a"}},
	})
	require.NoError(t, err)

	secondIn, secondOut := stay(t, "2026-06-05", "2026-06-08")
	_, err = handler.Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-2", GuestID: "guest-2", PropertyID: "prop-1",
		CheckIn: secondIn, CheckOut: secondOut, Guests: 1,
		Lines: []RequestedLine{{UnitID: "unit-a"}},
	})
	assert.NoError(t, err, "checkout day equals checkin day: no conflict")
}

func TestRequestBookingUnknownUnit(t *testing.T) {
	f := newFixture(t)
	checkIn, checkOut := stay(t, "2026-06-01", "2026-06-04")

	_, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1", GuestID: "guest-1", PropertyID: "prop-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 1,
		Lines: []RequestedLine{{UnitID: "unit-ghost"}},
	})
	var resolution *domainpricing.ResolutionError
	require.ErrorAs(t, err, &resolution)
	assert.Equal(t, []domainunit.ID{"unit-ghost"}, resolution.Missing)
}

func TestRequestBookingInactiveUnit(t *testing.T) {
	f := newFixture(t)
	checkIn, checkOut := stay(t, "2026-06-01", "2026-06-04")

	_, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1", GuestID: "guest-1", PropertyID: "prop-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 1,
		Lines: []RequestedLine{{UnitID: "unit-dark"}},
	})
	var resolution *domainpricing.ResolutionError
	require.ErrorAs(t, err, &resolution)
	assert.Equal(t, []domainunit.ID{"unit-dark"}, resolution.Missing, "inactive units price like missing ones")
}

func TestRequestBookingSnapshotSurvivesRateChange(t *testing.T) {
	f := newFixture(t)
	checkIn, checkOut := stay(t, "2026-06-01", "2026-06-04")

	result, err := f.requestHandler().Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1", GuestID: "guest-1", PropertyID: "prop-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 1,
		Lines: []RequestedLine{{UnitID: "unit-a"}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(30000), result.TotalCents)

	units := memory.NewUnitRepository(f.store)
	require.NoError(t, units.Save(context.Background(), &domainunit.RentableUnit{
		ID: "unit-a", PropertyID: "prop-1", Name: "Garden room",
		NightlyRate: money.Must(99900, "USD"), Active: true,
	}))

	b, err := memory.NewBookingRepository(f.store).ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, money.Must(30000, "USD"), b.Total, "booked totals never follow later price edits")
	assert.Equal(t, money.Must(10000, "USD"), b.Lines[0].PricePerNight)
}

// TestRequestBookingRace hammers the same unit and dates from many goroutines
// through the full command pipeline and expects exactly one winner.
func TestRequestBookingRace(t *testing.T) {
	f := newFixture(t)
	checkIn, checkOut := stay(t, "2026-06-01", "2026-06-05")

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, RequestBookingCommand{}.Key(), &RequestBookingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
	})
	pipeline := middleware.ChainCommands(
		bus,
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
		middleware.Transaction(f.factory, nil),
		middleware.OutboxFlush(f.outbox),
	)

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := RequestBookingCommand{
				CommandID:  "bk-race-" + string(rune('a'+i)),
				GuestID:    "guest-race",
				PropertyID: "prop-1",
				CheckIn:    checkIn,
				CheckOut:   checkOut,
				Guests:     1,
				Lines:      []RequestedLine{{UnitID: "unit-a"}},
			}
			_, err := commands.Dispatch[RequestBookingCommand, *RequestBookingResult](context.Background(), pipeline, cmd)
			errs[i] = err
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		var conflict *domainavailability.ConflictError
		assert.ErrorAs(t, err, &conflict, "losers fail with an availability conflict")
	}
	assert.Equal(t, 1, winners, "exactly one concurrent attempt may win the dates")
	assert.Len(t, f.outbox.Records(), 1, "one created event for the single winner")
}
