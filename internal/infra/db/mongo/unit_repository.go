package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/domain/shared/money"
	domainunit "staybook/internal/domain/unit"
)

type UnitRepository struct {
	col *mongo.Collection
}

func NewUnitRepository(db *mongo.Database) *UnitRepository {
	return &UnitRepository{col: db.Collection("rentable_units")}
}

type unitDocument struct {
	ID           string `bson:"_id"`
	PropertyID   string `bson:"property_id"`
	Name         string `bson:"name"`
	RateCents    int64  `bson:"nightly_rate_cents"`
	RateCurrency string `bson:"currency"`
	Active       bool   `bson:"active"`
}

func (r *UnitRepository) ByID(ctx context.Context, id domainunit.ID) (*domainunit.RentableUnit, error) {
	var doc unitDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainunit.ErrUnitNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *UnitRepository) ByIDs(ctx context.Context, ids []domainunit.ID) ([]*domainunit.RentableUnit, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": raw}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainunit.RentableUnit
	for cur.Next(ctx) {
		var doc unitDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toEntity())
	}
	return out, cur.Err()
}

func (r *UnitRepository) Save(ctx context.Context, u *domainunit.RentableUnit) error {
	doc := unitDocument{
		ID:           string(u.ID),
		PropertyID:   string(u.PropertyID),
		Name:         u.Name,
		RateCents:    u.NightlyRate.Amount,
		RateCurrency: u.NightlyRate.Currency,
		Active:       u.Active,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (d unitDocument) toEntity() *domainunit.RentableUnit {
	return &domainunit.RentableUnit{
		ID:          domainunit.ID(d.ID),
		PropertyID:  domainunit.PropertyID(d.PropertyID),
		Name:        d.Name,
		NightlyRate: money.Money{Amount: d.RateCents, Currency: d.RateCurrency},
		Active:      d.Active,
	}
}

var _ domainunit.Repository = (*UnitRepository)(nil)
