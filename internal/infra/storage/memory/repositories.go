package memory

import (
	"context"
	"sort"
	"strings"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/dates"
	domainunit "staybook/internal/domain/unit"
)

// UnitRepository is an in-memory unit store.
type UnitRepository struct {
	store *Store
}

func NewUnitRepository(store *Store) *UnitRepository {
	return &UnitRepository{store: store}
}

func (r *UnitRepository) ByID(ctx context.Context, id domainunit.ID) (*domainunit.RentableUnit, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.units[id]
	if !ok {
		return nil, domainunit.ErrUnitNotFound
	}
	return cloneUnit(u), nil
}

func (r *UnitRepository) ByIDs(ctx context.Context, ids []domainunit.ID) ([]*domainunit.RentableUnit, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domainunit.RentableUnit, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.store.units[id]; ok {
			out = append(out, cloneUnit(u))
		}
	}
	return out, nil
}

func (r *UnitRepository) Save(ctx context.Context, u *domainunit.RentableUnit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.units[u.ID] = cloneUnit(u)
	return nil
}

// BookingRepository stores bookings with copy-on-read semantics so mutations
// on a loaded aggregate stay invisible until Save.
type BookingRepository struct {
	store *Store
}

func NewBookingRepository(store *Store) *BookingRepository {
	return &BookingRepository{store: store}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b.Version++
	r.store.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	id := strings.TrimSpace(guestID)
	if id == "" {
		return nil, domainbooking.ErrGuestRequired
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.store.bookings {
		if b.GuestID == id {
			matches = append(matches, cloneBooking(b))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// AvailabilityRepository answers overlap queries by scanning stored bookings.
// The ForUpdate variant relies on the store-wide write transaction taken at
// Begin for serialization, mirroring what row locks give the Mongo adapter.
type AvailabilityRepository struct {
	store *Store
}

func NewAvailabilityRepository(store *Store) *AvailabilityRepository {
	return &AvailabilityRepository{store: store}
}

func (r *AvailabilityRepository) Overlapping(ctx context.Context, unitIDs []domainunit.ID, dr dates.DateRange, exclude domainbooking.ID) ([]domainavailability.Hold, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	wanted := make(map[domainunit.ID]struct{}, len(unitIDs))
	for _, id := range unitIDs {
		wanted[id] = struct{}{}
	}
	var holds []domainavailability.Hold
	for _, b := range r.store.bookings {
		if b.ID == exclude || b.Removed() || !domainbooking.IsBlocking(b.Status) {
			continue
		}
		if !b.Range.Overlaps(dr) {
			continue
		}
		for _, line := range b.Lines {
			if _, ok := wanted[line.UnitID]; !ok {
				continue
			}
			holds = append(holds, domainavailability.Hold{
				BookingID: b.ID,
				UnitID:    line.UnitID,
				Range:     b.Range,
				Status:    b.Status,
			})
		}
	}
	return holds, nil
}

func (r *AvailabilityRepository) OverlappingForUpdate(ctx context.Context, unitIDs []domainunit.ID, dr dates.DateRange, exclude domainbooking.ID) ([]domainavailability.Hold, error) {
	return r.Overlapping(ctx, unitIDs, dr, exclude)
}

var _ domainavailability.Repository = (*AvailabilityRepository)(nil)
var _ domainbooking.Repository = (*BookingRepository)(nil)
var _ domainunit.Repository = (*UnitRepository)(nil)
