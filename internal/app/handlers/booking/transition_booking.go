package booking

import (
	"context"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
)

const transitionBookingKey = "booking.transition"

type TransitionBookingCommand struct {
	BookingID       string
	NewStatus       string
	ActorID         string
	Reason          string
	Metadata        map[string]string
	IdempotencyKeyV string
}

func (c TransitionBookingCommand) Key() string { return transitionBookingKey }

func (c TransitionBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c TransitionBookingCommand) ResultPrototype() any { return &TransitionBookingResult{} }

type TransitionBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Changed   bool   `json:"changed"`
}

// TransitionBookingHandler loads the booking, applies the guarded status
// change and persists it together with its event record. A same-status
// request returns the booking untouched and records nothing.
type TransitionBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (*TransitionBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.ID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if b.Removed() {
		return nil, domainbooking.ErrBookingRemoved
	}
	to, err := domainbooking.ParseStatus(cmd.NewStatus)
	if err != nil {
		return nil, err
	}

	changed, err := b.Transition(to, domainbooking.TransitionOptions{
		ActorID:  cmd.ActorID,
		Reason:   cmd.Reason,
		Metadata: cmd.Metadata,
	}, h.now())
	if err != nil {
		return nil, err
	}

	if changed {
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
		pending := b.PendingEvents()
		b.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
			return nil, err
		}
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &TransitionBookingResult{
		BookingID: string(b.ID),
		Status:    string(b.Status),
		Changed:   changed,
	}, nil
}

func (h *TransitionBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *TransitionBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[TransitionBookingCommand, *TransitionBookingResult] = (*TransitionBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*TransitionBookingCommand)(nil)
