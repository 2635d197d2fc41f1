package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/shared/dates"
	"staybook/internal/domain/unit"
)

type stubRepository struct {
	holds      []Hold
	err        error
	lockedWith []unit.ID
}

func (s *stubRepository) Overlapping(ctx context.Context, unitIDs []unit.ID, dr dates.DateRange, exclude booking.ID) ([]Hold, error) {
	return s.match(unitIDs, dr, exclude)
}

func (s *stubRepository) OverlappingForUpdate(ctx context.Context, unitIDs []unit.ID, dr dates.DateRange, exclude booking.ID) ([]Hold, error) {
	s.lockedWith = append([]unit.ID(nil), unitIDs...)
	return s.match(unitIDs, dr, exclude)
}

func (s *stubRepository) match(unitIDs []unit.ID, dr dates.DateRange, exclude booking.ID) ([]Hold, error) {
	if s.err != nil {
		return nil, s.err
	}
	wanted := make(map[unit.ID]struct{}, len(unitIDs))
	for _, id := range unitIDs {
		wanted[id] = struct{}{}
	}
	var out []Hold
	for _, h := range s.holds {
		if h.BookingID == exclude {
			continue
		}
		if !booking.IsBlocking(h.Status) {
			continue
		}
		if _, ok := wanted[h.UnitID]; !ok {
			continue
		}
		if !h.Range.Overlaps(dr) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func mustRange(t *testing.T, in, out string) dates.DateRange {
	t.Helper()
	checkIn, err := time.Parse("2006-01-02", in)
	require.NoError(t, err)
	checkOut, err := time.Parse("2006-01-02", out)
	require.NoError(t, err)
	dr, err := dates.New(checkIn, checkOut)
	require.NoError(t, err)
	return dr
}

func TestIsUnitAvailable(t *testing.T) {
	repo := &stubRepository{holds: []Hold{
		{BookingID: "bk-1", UnitID: "unit-a", Range: mustRange(t, "2026-01-01", "2026-01-05"), Status: booking.StatusConfirmed},
	}}
	checker := NewChecker(repo)

	free, err := checker.IsUnitAvailable(context.Background(), "unit-a", mustRange(t, "2026-01-05", "2026-01-10"), "")
	require.NoError(t, err)
	assert.True(t, free, "checkout day does not conflict with checkin day")

	free, err = checker.IsUnitAvailable(context.Background(), "unit-a", mustRange(t, "2026-01-04", "2026-01-06"), "")
	require.NoError(t, err)
	assert.False(t, free)

	free, err = checker.IsUnitAvailable(context.Background(), "unit-b", mustRange(t, "2026-01-04", "2026-01-06"), "")
	require.NoError(t, err)
	assert.True(t, free, "other units are unaffected")
}

func TestNonBlockingStatusesDoNotHold(t *testing.T) {
	dr := mustRange(t, "2026-01-01", "2026-01-05")
	for _, status := range []booking.Status{booking.StatusCancelled, booking.StatusRejected, booking.StatusCheckedOut, booking.StatusCompleted} {
		repo := &stubRepository{holds: []Hold{{BookingID: "bk-1", UnitID: "unit-a", Range: dr, Status: status}}}
		free, err := NewChecker(repo).IsUnitAvailable(context.Background(), "unit-a", dr, "")
		require.NoError(t, err)
		assert.True(t, free, string(status))
	}
}

func TestExcludeOwnBooking(t *testing.T) {
	dr := mustRange(t, "2026-01-01", "2026-01-05")
	repo := &stubRepository{holds: []Hold{{BookingID: "bk-1", UnitID: "unit-a", Range: dr, Status: booking.StatusConfirmed}}}

	free, err := NewChecker(repo).IsUnitAvailable(context.Background(), "unit-a", dr, "bk-1")
	require.NoError(t, err)
	assert.True(t, free, "a booking's own holds are ignored when re-validating it")
}

func TestUnavailableUnitsAmong(t *testing.T) {
	dr := mustRange(t, "2026-01-01", "2026-01-05")
	repo := &stubRepository{holds: []Hold{
		{BookingID: "bk-1", UnitID: "unit-c", Range: dr, Status: booking.StatusPending},
		{BookingID: "bk-2", UnitID: "unit-a", Range: dr, Status: booking.StatusConfirmed},
		{BookingID: "bk-3", UnitID: "unit-a", Range: dr, Status: booking.StatusCheckedIn},
	}}

	blocked, err := NewChecker(repo).UnavailableUnitsAmong(context.Background(), []unit.ID{"unit-a", "unit-b", "unit-c"}, dr, "")
	require.NoError(t, err)
	assert.Equal(t, []unit.ID{"unit-a", "unit-c"}, blocked, "deduplicated and sorted")
}

func TestValidateAvailability(t *testing.T) {
	dr := mustRange(t, "2026-01-01", "2026-01-05")
	repo := &stubRepository{holds: []Hold{
		{BookingID: "bk-1", UnitID: "unit-b", Range: dr, Status: booking.StatusPending},
	}}
	checker := NewChecker(repo)

	err := checker.ValidateAvailability(context.Background(), []unit.ID{"unit-a"}, dr, "")
	assert.NoError(t, err)

	err = checker.ValidateAvailability(context.Background(), []unit.ID{"unit-a", "unit-b"}, dr, "")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []unit.ID{"unit-b"}, conflict.UnitIDs())
	assert.Contains(t, conflict.Blocked[0].Message, "unit unit-b is not available from 2026-01-01 to 2026-01-05")
	assert.Equal(t, []unit.ID{"unit-a", "unit-b"}, repo.lockedWith, "locking variant is used")
}
