package memory

import (
	"sync"

	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/events"
	domainunit "staybook/internal/domain/unit"
)

// Store keeps every aggregate in process memory. It backs local development
// and the domain-port fakes used by tests. txMu emulates the database's
// transaction serialization: write transactions are exclusive, so two
// concurrent booking attempts on the same store cannot interleave their
// check-then-act sequences.
type Store struct {
	txMu sync.RWMutex

	mu       sync.RWMutex
	units    map[domainunit.ID]*domainunit.RentableUnit
	bookings map[domainbooking.ID]*domainbooking.Booking
}

func NewStore() *Store {
	return &Store{
		units:    make(map[domainunit.ID]*domainunit.RentableUnit),
		bookings: make(map[domainbooking.ID]*domainbooking.Booking),
	}
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	clone := *b
	clone.Lines = append([]domainbooking.LineItem(nil), b.Lines...)
	if b.RemovedAt != nil {
		at := *b.RemovedAt
		clone.RemovedAt = &at
	}
	// stored aggregates never carry undrained events
	clone.EventRecorder = events.EventRecorder{}
	return &clone
}

func cloneUnit(u *domainunit.RentableUnit) *domainunit.RentableUnit {
	clone := *u
	return &clone
}
