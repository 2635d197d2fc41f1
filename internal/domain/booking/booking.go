package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staybook/internal/domain/shared/dates"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/unit"
)

var (
	ErrInvalidGuests       = errors.New("booking: guests count must be positive")
	ErrGuestRequired       = errors.New("booking: guest id required")
	ErrNoLineItems         = errors.New("booking: at least one line item required")
	ErrInvalidNights       = errors.New("booking: line item nights must be positive")
	ErrNegativeRate        = errors.New("booking: line item rate cannot be negative")
	ErrCancelledByRequired = errors.New("booking: cancellation requires cancelled_by metadata (guest or host)")
	ErrBookingNotFound     = errors.New("booking: not found")
	ErrBookingRemoved      = errors.New("booking: removed")
)

// MetaCancelledBy names the metadata key identifying which party cancelled.
const MetaCancelledBy = "cancelled_by"

type ID string

// InvalidTransitionError reports an illegal status change and enumerates the
// legal next states so callers can surface actionable messages.
type InvalidTransitionError struct {
	From  Status
	To    Status
	Legal []Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking: cannot transition from %s to %s; legal destinations: %v", e.From, e.To, e.Legal)
}

// LineItem is one rentable unit's contribution to a booking. The nightly rate
// is a snapshot captured at booking time and never follows later price edits.
type LineItem struct {
	UnitID        unit.ID
	Nights        int
	PricePerNight money.Money
	LineTotal     money.Money
}

// Booking is the aggregate root. It is created pending by the booking-request
// flow and afterwards mutated only through Transition. Bookings are never
// hard-deleted; Remove stamps a removal time and keeps the row for audit.
type Booking struct {
	ID         ID
	GuestID    string
	PropertyID unit.PropertyID
	Range      dates.DateRange
	Guests     int
	Notes      string
	Lines      []LineItem
	Total      money.Money
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	RemovedAt  *time.Time
	Version    int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
}

type CreateParams struct {
	ID         ID
	GuestID    string
	PropertyID unit.PropertyID
	Range      dates.DateRange
	Guests     int
	Notes      string
	Lines      []LineItem
	CreatedAt  time.Time
}

// NewBooking builds a pending booking from already-priced line items. Line
// totals are recomputed here so a caller can never smuggle in its own sums.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.GuestID == "" {
		return nil, ErrGuestRequired
	}
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if len(params.Lines) == 0 {
		return nil, ErrNoLineItems
	}
	lines := make([]LineItem, 0, len(params.Lines))
	var total money.Money
	for i, line := range params.Lines {
		if line.Nights <= 0 {
			return nil, ErrInvalidNights
		}
		if line.PricePerNight.IsNegative() {
			return nil, ErrNegativeRate
		}
		line.LineTotal = line.PricePerNight.Multiply(int64(line.Nights))
		lines = append(lines, line)
		if i == 0 {
			total = line.LineTotal
			continue
		}
		sum, err := total.Add(line.LineTotal)
		if err != nil {
			return nil, err
		}
		total = sum
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:         params.ID,
		GuestID:    params.GuestID,
		PropertyID: params.PropertyID,
		Range:      params.Range,
		Guests:     params.Guests,
		Notes:      params.Notes,
		Lines:      lines,
		Total:      total,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(newCreatedEvent(b, now))
	return b, nil
}

// TransitionOptions carry who triggered a status change and why. An empty
// ActorID means the system itself triggered it.
type TransitionOptions struct {
	ActorID  string
	Reason   string
	Metadata map[string]string
}

// CancelledBy resolves the cancelling party from metadata.
func (o TransitionOptions) CancelledBy() string {
	return o.Metadata[MetaCancelledBy]
}

// Transition applies a guarded status change. A request equal to the current
// status is an idempotent no-op and records no event, so retried client calls
// never produce duplicate notifications. Exactly one event is recorded per
// effective transition.
func (b *Booking) Transition(to Status, opts TransitionOptions, now time.Time) (bool, error) {
	if !to.Valid() {
		return false, fmt.Errorf("booking: unknown status %q", string(to))
	}
	if to == b.Status {
		return false, nil
	}
	if !CanTransition(b.Status, to) {
		return false, &InvalidTransitionError{From: b.Status, To: to, Legal: LegalDestinations(b.Status)}
	}
	if to == StatusCancelled {
		switch opts.CancelledBy() {
		case "guest", "host":
		default:
			return false, ErrCancelledByRequired
		}
	}
	prev := b.Status
	b.Status = to
	b.UpdatedAt = now.UTC()
	b.Record(newTransitionEvent(b, prev, opts, b.UpdatedAt))
	return true, nil
}

// Remove soft-deletes the booking, preserving its history for audit.
func (b *Booking) Remove(now time.Time) {
	if b.RemovedAt != nil {
		return
	}
	at := now.UTC()
	b.RemovedAt = &at
	b.UpdatedAt = at
}

func (b *Booking) Removed() bool {
	return b.RemovedAt != nil
}

// UnitIDs lists the units this booking holds, in line-item order.
func (b *Booking) UnitIDs() []unit.ID {
	ids := make([]unit.ID, len(b.Lines))
	for i, line := range b.Lines {
		ids[i] = line.UnitID
	}
	return ids
}
