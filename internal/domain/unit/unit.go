package unit

import (
	"context"
	"errors"

	"staybook/internal/domain/shared/money"
)

var ErrUnitNotFound = errors.New("unit: not found")

type ID string

type PropertyID string

// RentableUnit is a bookable room/apartment inside a property. The booking
// core reads its live nightly rate only at booking-creation time; everything
// written into a booking afterwards is a snapshot.
type RentableUnit struct {
	ID          ID
	PropertyID  PropertyID
	Name        string
	NightlyRate money.Money
	Active      bool
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*RentableUnit, error)
	ByIDs(ctx context.Context, ids []ID) ([]*RentableUnit, error)
	Save(ctx context.Context, u *RentableUnit) error
}

// CurrentRates resolves the live nightly rate for every requested unit.
// Units missing from the repository or marked inactive are absent from the
// result; the pricing engine turns that into an explicit resolution failure.
func CurrentRates(ctx context.Context, repo Repository, ids []ID) (map[ID]money.Money, error) {
	units, err := repo.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	rates := make(map[ID]money.Money, len(units))
	for _, u := range units {
		if !u.Active {
			continue
		}
		rates[u.ID] = u.NightlyRate
	}
	return rates, nil
}
