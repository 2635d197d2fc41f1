package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/dates"
	"staybook/internal/domain/shared/money"
	domainunit "staybook/internal/domain/unit"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts with a version filter; a mismatched version means another
// transaction modified the booking first.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"guest_id": guestID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type lineDocument struct {
	UnitID       string `bson:"unit_id"`
	Nights       int    `bson:"nights"`
	RateCents    int64  `bson:"price_per_night_cents"`
	LineCents    int64  `bson:"line_total_cents"`
	RateCurrency string `bson:"currency"`
}

type bookingDocument struct {
	ID         string         `bson:"_id"`
	GuestID    string         `bson:"guest_id"`
	PropertyID string         `bson:"property_id"`
	Range      rangeDocument  `bson:"range"`
	Guests     int            `bson:"guests"`
	Notes      string         `bson:"notes,omitempty"`
	Lines      []lineDocument `bson:"lines"`
	TotalCents int64          `bson:"total_cents"`
	Currency   string         `bson:"currency"`
	Status     string         `bson:"status"`
	CreatedAt  int64          `bson:"created_at"`
	UpdatedAt  int64          `bson:"updated_at"`
	RemovedAt  *int64         `bson:"removed_at,omitempty"`
	Version    int64          `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	lines := make([]lineDocument, len(b.Lines))
	for i, line := range b.Lines {
		lines[i] = lineDocument{
			UnitID:       string(line.UnitID),
			Nights:       line.Nights,
			RateCents:    line.PricePerNight.Amount,
			LineCents:    line.LineTotal.Amount,
			RateCurrency: line.PricePerNight.Currency,
		}
	}
	doc := bookingDocument{
		ID:         string(b.ID),
		GuestID:    b.GuestID,
		PropertyID: string(b.PropertyID),
		Range:      rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:     b.Guests,
		Notes:      b.Notes,
		Lines:      lines,
		TotalCents: b.Total.Amount,
		Currency:   b.Total.Currency,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt.UnixMilli(),
		UpdatedAt:  b.UpdatedAt.UnixMilli(),
		Version:    b.Version,
	}
	if b.RemovedAt != nil {
		ms := b.RemovedAt.UnixMilli()
		doc.RemovedAt = &ms
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	lines := make([]domainbooking.LineItem, len(d.Lines))
	for i, line := range d.Lines {
		lines[i] = domainbooking.LineItem{
			UnitID:        domainunit.ID(line.UnitID),
			Nights:        line.Nights,
			PricePerNight: money.Money{Amount: line.RateCents, Currency: line.RateCurrency},
			LineTotal:     money.Money{Amount: line.LineCents, Currency: line.RateCurrency},
		}
	}
	b := &domainbooking.Booking{
		ID:         domainbooking.ID(d.ID),
		GuestID:    d.GuestID,
		PropertyID: domainunit.PropertyID(d.PropertyID),
		Range:      dates.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Guests:     d.Guests,
		Notes:      d.Notes,
		Lines:      lines,
		Total:      money.Money{Amount: d.TotalCents, Currency: d.Currency},
		Status:     domainbooking.Status(d.Status),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
	if d.RemovedAt != nil {
		at := timestampToTime(*d.RemovedAt)
		b.RemovedAt = &at
	}
	return b
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
