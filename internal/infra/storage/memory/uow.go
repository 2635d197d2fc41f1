package memory

import (
	"context"
	"errors"
	"sync"

	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainunit "staybook/internal/domain/unit"
)

// Factory wires the in-memory store into the unit-of-work boundary.
type Factory struct {
	Store *Store
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin takes the store-wide transaction latch: exclusive for write
// transactions, shared for read-only ones. Holding it until Commit/Rollback
// is what serializes conflicting booking attempts in this adapter.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	if opts.ReadOnly {
		f.Store.txMu.RLock()
	} else {
		f.Store.txMu.Lock()
	}
	return &Unit{
		store:        f.Store,
		readOnly:     opts.ReadOnly,
		units:        NewUnitRepository(f.Store),
		bookings:     NewBookingRepository(f.Store),
		availability: NewAvailabilityRepository(f.Store),
	}, nil
}

// Unit is a uow.UnitOfWork backed by the in-memory store.
type Unit struct {
	store        *Store
	readOnly     bool
	release      sync.Once
	units        *UnitRepository
	bookings     *BookingRepository
	availability *AvailabilityRepository
}

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Units() domainunit.Repository { return u.units }

func (u *Unit) Availability() domainavailability.Repository { return u.availability }

func (u *Unit) Commit(ctx context.Context) error {
	u.unlock()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.unlock()
	return nil
}

func (u *Unit) unlock() {
	u.release.Do(func() {
		if u.readOnly {
			u.store.txMu.RUnlock()
		} else {
			u.store.txMu.Unlock()
		}
	})
}

var _ uow.UoWFactory = Factory{}
