package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew(t *testing.T) {
	dr, err := New(time.Date(2026, 1, 1, 15, 30, 0, 0, time.UTC), day(2026, 1, 5))
	assert.NoError(t, err)
	assert.Equal(t, day(2026, 1, 1), dr.CheckIn, "time-of-day should be dropped")
	assert.Equal(t, 4, dr.Nights())

	_, err = New(day(2026, 1, 5), day(2026, 1, 5))
	assert.ErrorIs(t, err, ErrInvalidRange, "zero-night stay is invalid")

	_, err = New(day(2026, 1, 5), day(2026, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, day(2026, 1, 5))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestOverlapsHalfOpen(t *testing.T) {
	base := DateRange{CheckIn: day(2026, 1, 1), CheckOut: day(2026, 1, 5)}

	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"back to back after", DateRange{CheckIn: day(2026, 1, 5), CheckOut: day(2026, 1, 10)}, false},
		{"back to back before", DateRange{CheckIn: day(2025, 12, 28), CheckOut: day(2026, 1, 1)}, false},
		{"straddles checkout", DateRange{CheckIn: day(2026, 1, 4), CheckOut: day(2026, 1, 6)}, true},
		{"contained", DateRange{CheckIn: day(2026, 1, 2), CheckOut: day(2026, 1, 3)}, true},
		{"containing", DateRange{CheckIn: day(2025, 12, 30), CheckOut: day(2026, 1, 8)}, true},
		{"identical", base, true},
		{"disjoint after", DateRange{CheckIn: day(2026, 2, 1), CheckOut: day(2026, 2, 3)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestContainsDate(t *testing.T) {
	dr := DateRange{CheckIn: day(2026, 1, 1), CheckOut: day(2026, 1, 5)}
	assert.True(t, dr.ContainsDate(day(2026, 1, 1)))
	assert.True(t, dr.ContainsDate(day(2026, 1, 4)))
	assert.False(t, dr.ContainsDate(day(2026, 1, 5)), "checkout day is exclusive")
}

func TestNightsBetween(t *testing.T) {
	assert.Equal(t, 4, NightsBetween(day(2026, 1, 1), day(2026, 1, 5)))
	assert.Equal(t, 4, NightsBetween(time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC), time.Date(2026, 1, 5, 1, 0, 0, 0, time.UTC)))
}
