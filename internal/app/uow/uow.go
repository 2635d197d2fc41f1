package uow

import (
	"context"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainunit "staybook/internal/domain/unit"
)

// UnitOfWork coordinates repositories inside a transaction boundary. Row
// locks taken through Availability() are held until Commit or Rollback.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	Units() domainunit.Repository
	Availability() domainavailability.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
