package availability

import (
	"context"
	"time"

	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/dates"
	domainunit "staybook/internal/domain/unit"
)

const checkAvailabilityKey = "availability.check"

// CheckAvailabilityQuery is the non-locking availability read used for UI
// hints. It carries no booking guarantee; only the locking path inside the
// request-booking transaction does.
type CheckAvailabilityQuery struct {
	UnitIDs          []string
	CheckIn          time.Time
	CheckOut         time.Time
	ExcludeBookingID string
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityResult struct {
	Unavailable []string `json:"unavailable_unit_ids"`
}

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (*CheckAvailabilityResult, error) {
	dr, err := dates.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return nil, err
	}
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = unit.Rollback(ctx) }()

	ids := make([]domainunit.ID, len(q.UnitIDs))
	for i, id := range q.UnitIDs {
		ids[i] = domainunit.ID(id)
	}
	checker := domainavailability.NewChecker(unit.Availability())
	blocked, err := checker.UnavailableUnitsAmong(ctx, ids, dr, domainbooking.ID(q.ExcludeBookingID))
	if err != nil {
		return nil, err
	}
	out := make([]string, len(blocked))
	for i, id := range blocked {
		out[i] = string(id)
	}
	return &CheckAvailabilityResult{Unavailable: out}, nil
}

var _ queries.Handler[CheckAvailabilityQuery, *CheckAvailabilityResult] = (*CheckAvailabilityHandler)(nil)
