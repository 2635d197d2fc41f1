package booking

import (
	"context"

	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
)

const (
	getBookingKey        = "booking.get"
	listGuestBookingsKey = "booking.list_by_guest"
)

type GetBookingQuery struct {
	BookingID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (*domainbooking.Booking, error) {
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = unit.Rollback(ctx) }()
	b, err := unit.Bookings().ByID(ctx, domainbooking.ID(q.BookingID))
	if err != nil {
		return nil, err
	}
	if b.Removed() {
		return nil, domainbooking.ErrBookingRemoved
	}
	return b, nil
}

type ListGuestBookingsQuery struct {
	GuestID string
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

type ListGuestBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) ([]*domainbooking.Booking, error) {
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = unit.Rollback(ctx) }()
	all, err := unit.Bookings().ListByGuest(ctx, q.GuestID)
	if err != nil {
		return nil, err
	}
	visible := make([]*domainbooking.Booking, 0, len(all))
	for _, b := range all {
		if b.Removed() {
			continue
		}
		visible = append(visible, b)
	}
	return visible, nil
}

var _ queries.Handler[GetBookingQuery, *domainbooking.Booking] = (*GetBookingHandler)(nil)
var _ queries.Handler[ListGuestBookingsQuery, []*domainbooking.Booking] = (*ListGuestBookingsHandler)(nil)
