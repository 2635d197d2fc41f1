package dates

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("dates: checkout must be after checkin")

// DateRange represents a half-open stay interval [checkIn, checkOut).
// Both boundaries are calendar dates; any time-of-day component is dropped.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Midnight(checkIn), CheckOut: Midnight(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Midnight truncates a timestamp to its UTC calendar date.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.CheckIn.IsZero() || dr.CheckOut.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights is the calendar-day difference between checkout and checkin.
// Availability and pricing both count stay length through this method.
func (dr DateRange) Nights() int {
	return int(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24)
}

// Overlaps reports whether two half-open intervals intersect. A checkout on
// day N does not conflict with a checkin on day N.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Midnight(t)
	return !t.Before(dr.CheckIn) && t.Before(dr.CheckOut)
}

// NightsBetween counts calendar nights between two dates without building a
// range first. Callers validate ordering separately.
func NightsBetween(checkIn, checkOut time.Time) int {
	return int(Midnight(checkOut).Sub(Midnight(checkIn)).Hours() / 24)
}
