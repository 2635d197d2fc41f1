package availability

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/shared/dates"
	"staybook/internal/domain/unit"
)

// Hold is one existing line item that keeps a unit occupied: a line of a
// booking whose status still blocks the calendar.
type Hold struct {
	BookingID booking.ID
	UnitID    unit.ID
	Range     dates.DateRange
	Status    booking.Status
}

// Repository answers overlap queries against persisted bookings. Overlapping
// must only consider bookings in a blocking status and use half-open interval
// semantics. OverlappingForUpdate additionally acquires write locks on the
// matched rows and must be called inside an active unit of work; the locks are
// held until the enclosing transaction finishes.
type Repository interface {
	Overlapping(ctx context.Context, unitIDs []unit.ID, dr dates.DateRange, exclude booking.ID) ([]Hold, error)
	OverlappingForUpdate(ctx context.Context, unitIDs []unit.ID, dr dates.DateRange, exclude booking.ID) ([]Hold, error)
}

// BlockedUnit pairs a conflicting unit with a human-readable message.
type BlockedUnit struct {
	UnitID  unit.ID
	Message string
}

// ConflictError reports which requested units are unavailable. The enclosing
// transaction must roll back; no partial booking is ever persisted.
type ConflictError struct {
	Blocked []BlockedUnit
}

func (e *ConflictError) Error() string {
	msgs := make([]string, len(e.Blocked))
	for i, b := range e.Blocked {
		msgs[i] = b.Message
	}
	return "availability: " + strings.Join(msgs, "; ")
}

// UnitIDs lists the conflicting units in stable order.
func (e *ConflictError) UnitIDs() []unit.ID {
	ids := make([]unit.ID, len(e.Blocked))
	for i, b := range e.Blocked {
		ids[i] = b.UnitID
	}
	return ids
}

// Checker decides whether units are free for a date range. The non-locking
// reads serve UI hints only; the check-then-act race they leave open is closed
// by ValidateAvailability inside a write transaction.
type Checker struct {
	Repo Repository
}

func NewChecker(repo Repository) *Checker {
	return &Checker{Repo: repo}
}

// IsUnitAvailable reports whether a single unit is free for [checkIn, checkOut).
// exclude ignores one booking's own holds when re-validating its dates.
func (c *Checker) IsUnitAvailable(ctx context.Context, unitID unit.ID, dr dates.DateRange, exclude booking.ID) (bool, error) {
	holds, err := c.Repo.Overlapping(ctx, []unit.ID{unitID}, dr, exclude)
	if err != nil {
		return false, err
	}
	return len(holds) == 0, nil
}

// UnavailableUnitsAmong returns the subset of unitIDs that is blocked for the
// range, deduplicated and sorted for stable reporting.
func (c *Checker) UnavailableUnitsAmong(ctx context.Context, unitIDs []unit.ID, dr dates.DateRange, exclude booking.ID) ([]unit.ID, error) {
	holds, err := c.Repo.Overlapping(ctx, unitIDs, dr, exclude)
	if err != nil {
		return nil, err
	}
	return blockedUnits(holds), nil
}

// ValidateAvailability is the transactional, safety-critical variant. It must
// run inside an active unit of work: conflicting rows are locked before being
// evaluated, so a concurrent attempt on the same unit and overlapping dates
// waits for this transaction to finish instead of racing it. Returns
// *ConflictError when any requested unit is blocked.
func (c *Checker) ValidateAvailability(ctx context.Context, unitIDs []unit.ID, dr dates.DateRange, exclude booking.ID) error {
	holds, err := c.Repo.OverlappingForUpdate(ctx, unitIDs, dr, exclude)
	if err != nil {
		return err
	}
	if len(holds) == 0 {
		return nil
	}
	blocked := blockedUnits(holds)
	conflict := &ConflictError{Blocked: make([]BlockedUnit, len(blocked))}
	for i, id := range blocked {
		conflict.Blocked[i] = BlockedUnit{
			UnitID:  id,
			Message: fmt.Sprintf("unit %s is not available from %s to %s", id, dr.CheckIn.Format("2006-01-02"), dr.CheckOut.Format("2006-01-02")),
		}
	}
	return conflict
}

func blockedUnits(holds []Hold) []unit.ID {
	seen := make(map[unit.ID]struct{}, len(holds))
	ids := make([]unit.ID, 0, len(holds))
	for _, h := range holds {
		if _, ok := seen[h.UnitID]; ok {
			continue
		}
		seen[h.UnitID] = struct{}{}
		ids = append(ids, h.UnitID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
