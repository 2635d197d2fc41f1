package booking

import (
	"time"

	"staybook/internal/domain/shared/events"
)

// Event names are part of the wire contract consumed by the notification and
// audit subscribers; do not rename without a compatibility plan.
const (
	EventCreated       = "booking.created"
	EventConfirmed     = "booking.confirmed"
	EventRejected      = "booking.rejected"
	EventCancelled     = "booking.cancelled"
	EventStatusChanged = "booking.status_changed"
)

// payload is the flat record every booking event shares. Embedded structs are
// inlined by encoding/json, so subscribers see a single flat object.
type payload struct {
	BookingID  string            `json:"booking_id"`
	PropertyID string            `json:"property_id"`
	GuestID    string            `json:"guest_id"`
	Status     string            `json:"status"`
	CheckIn    time.Time         `json:"check_in"`
	CheckOut   time.Time         `json:"check_out"`
	Guests     int               `json:"guests"`
	TotalCents int64             `json:"total_cents"`
	Currency   string            `json:"currency"`
	ActorID    *string           `json:"actor_id"`
	Reason     *string           `json:"reason"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

func (p payload) AggregateID() string   { return p.BookingID }
func (p payload) OccurredAt() time.Time { return p.Timestamp }

type BookingCreated struct {
	payload
}

func (e BookingCreated) EventName() string { return EventCreated }

type BookingConfirmed struct {
	payload
	PreviousStatus string `json:"previous_status"`
}

func (e BookingConfirmed) EventName() string { return EventConfirmed }

type BookingRejected struct {
	payload
	PreviousStatus string `json:"previous_status"`
}

func (e BookingRejected) EventName() string { return EventRejected }

type BookingCancelled struct {
	payload
	PreviousStatus string `json:"previous_status"`
	CancelledBy    string `json:"cancelled_by"`
}

func (e BookingCancelled) EventName() string { return EventCancelled }

type BookingStatusChanged struct {
	payload
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}

func (e BookingStatusChanged) EventName() string { return EventStatusChanged }

func newPayload(b *Booking, opts TransitionOptions, at time.Time) payload {
	var actor, reason *string
	if opts.ActorID != "" {
		a := opts.ActorID
		actor = &a
	}
	if opts.Reason != "" {
		r := opts.Reason
		reason = &r
	}
	return payload{
		BookingID:  string(b.ID),
		PropertyID: string(b.PropertyID),
		GuestID:    b.GuestID,
		Status:     string(b.Status),
		CheckIn:    b.Range.CheckIn,
		CheckOut:   b.Range.CheckOut,
		Guests:     b.Guests,
		TotalCents: b.Total.Amount,
		Currency:   b.Total.Currency,
		ActorID:    actor,
		Reason:     reason,
		Metadata:   opts.Metadata,
		Timestamp:  at,
	}
}

func newCreatedEvent(b *Booking, at time.Time) events.DomainEvent {
	return BookingCreated{payload: newPayload(b, TransitionOptions{}, at)}
}

// newTransitionEvent maps an effective transition to exactly one typed event:
// confirmed, rejected and cancelled get dedicated types, every other
// destination becomes a generic status-change carrying both statuses.
func newTransitionEvent(b *Booking, prev Status, opts TransitionOptions, at time.Time) events.DomainEvent {
	base := newPayload(b, opts, at)
	switch b.Status {
	case StatusConfirmed:
		return BookingConfirmed{payload: base, PreviousStatus: string(prev)}
	case StatusRejected:
		return BookingRejected{payload: base, PreviousStatus: string(prev)}
	case StatusCancelled:
		return BookingCancelled{payload: base, PreviousStatus: string(prev), CancelledBy: opts.CancelledBy()}
	default:
		return BookingStatusChanged{payload: base, PreviousStatus: string(prev), NewStatus: string(b.Status)}
	}
}
