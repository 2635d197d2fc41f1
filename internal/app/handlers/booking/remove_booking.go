package booking

import (
	"context"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
)

const removeBookingKey = "booking.remove"

type RemoveBookingCommand struct {
	BookingID string
	ActorID   string
}

func (c RemoveBookingCommand) Key() string { return removeBookingKey }

type RemoveBookingResult struct {
	BookingID string `json:"booking_id"`
}

// RemoveBookingHandler soft-removes a booking. The row stays behind with a
// removal timestamp so transition history remains auditable.
type RemoveBookingHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *RemoveBookingHandler) Handle(ctx context.Context, cmd RemoveBookingCommand) (*RemoveBookingResult, error) {
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
	if !b.Removed() {
		b.Remove(h.now())
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &RemoveBookingResult{BookingID: string(b.ID)}, nil
}

func (h *RemoveBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RemoveBookingCommand, *RemoveBookingResult] = (*RemoveBookingHandler)(nil)
