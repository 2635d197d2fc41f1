package booking

import (
	"context"
	"errors"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/dates"
	domainunit "staybook/internal/domain/unit"
)

const requestBookingKey = "booking.request"

// RequestedLine names a unit and how many nights of it the guest wants.
// Prices are never accepted from the client.
type RequestedLine struct {
	UnitID string
	Nights int
}

type RequestBookingCommand struct {
	CommandID       string
	GuestID         string
	PropertyID      string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	Notes           string
	Lines           []RequestedLine
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID  string `json:"booking_id"`
	TotalCents int64  `json:"total_cents"`
	Currency   string `json:"currency"`
}

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

// RequestBookingHandler runs the booking-creation flow inside one unit of
// work. The order is load-bearing: lock availability first (closes the
// check-then-act race), price from live rates second (the total cannot be
// invalidated by a concurrently-committing booking), persist last.
type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
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

	dr, err := dates.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	now := h.now()

	requested := make([]domainpricing.RequestedLine, 0, len(cmd.Lines))
	unitIDs := make([]domainunit.ID, 0, len(cmd.Lines))
	for _, line := range cmd.Lines {
		nights := line.Nights
		if nights == 0 {
			nights = dr.Nights()
		}
		requested = append(requested, domainpricing.RequestedLine{UnitID: domainunit.ID(line.UnitID), Nights: nights})
		unitIDs = append(unitIDs, domainunit.ID(line.UnitID))
	}

	checker := domainavailability.NewChecker(unit.Availability())
	if err := checker.ValidateAvailability(ctx, unitIDs, dr, ""); err != nil {
		return nil, err
	}

	rates, err := domainunit.CurrentRates(ctx, unit.Units(), unitIDs)
	if err != nil {
		return nil, err
	}
	total, resolved, err := domainpricing.ComputeTotal(requested, rates)
	if err != nil {
		return nil, err
	}

	lines := make([]domainbooking.LineItem, len(resolved))
	for i, line := range resolved {
		lines[i] = domainbooking.LineItem{
			UnitID:        line.UnitID,
			Nights:        line.Nights,
			PricePerNight: line.PricePerNight,
		}
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.ID(cmd.CommandID),
		GuestID:    cmd.GuestID,
		PropertyID: domainunit.PropertyID(cmd.PropertyID),
		Range:      dr,
		Guests:     cmd.Guests,
		Notes:      cmd.Notes,
		Lines:      lines,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &RequestBookingResult{
		BookingID:  string(b.ID),
		TotalCents: total.Amount,
		Currency:   total.Currency,
	}, nil
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
