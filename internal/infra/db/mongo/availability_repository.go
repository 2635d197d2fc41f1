package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/dates"
	domainunit "staybook/internal/domain/unit"
)

// AvailabilityRepository answers overlap queries against the booking
// collection. The ForUpdate variant first writes a per-unit guard document
// inside the session transaction; Mongo holds document write locks until the
// transaction finishes, so a concurrent transaction booking any of the same
// units either waits or aborts with a transient error. That gives the
// select-for-update semantics the checker requires without an in-process
// mutex, which would not survive multiple server instances.
type AvailabilityRepository struct {
	bookings *mongo.Collection
	guards   *mongo.Collection
}

func NewAvailabilityRepository(db *mongo.Database) *AvailabilityRepository {
	return &AvailabilityRepository{
		bookings: db.Collection("agg_booking"),
		guards:   db.Collection("unit_locks"),
	}
}

func (r *AvailabilityRepository) Overlapping(ctx context.Context, unitIDs []domainunit.ID, dr dates.DateRange, exclude domainbooking.ID) ([]domainavailability.Hold, error) {
	return r.query(ctx, unitIDs, dr, exclude)
}

func (r *AvailabilityRepository) OverlappingForUpdate(ctx context.Context, unitIDs []domainunit.ID, dr dates.DateRange, exclude domainbooking.ID) ([]domainavailability.Hold, error) {
	if err := r.lockUnits(ctx, unitIDs); err != nil {
		return nil, err
	}
	return r.query(ctx, unitIDs, dr, exclude)
}

func (r *AvailabilityRepository) lockUnits(ctx context.Context, unitIDs []domainunit.ID) error {
	opts := options.Update().SetUpsert(true)
	for _, id := range unitIDs {
		filter := bson.M{"_id": string(id)}
		update := bson.M{"$inc": bson.M{"rev": 1}}
		if _, err := r.guards.UpdateOne(ctx, filter, update, opts); err != nil {
			return err
		}
	}
	return nil
}

func (r *AvailabilityRepository) query(ctx context.Context, unitIDs []domainunit.ID, dr dates.DateRange, exclude domainbooking.ID) ([]domainavailability.Hold, error) {
	raw := make([]string, len(unitIDs))
	for i, id := range unitIDs {
		raw[i] = string(id)
	}
	blocking := make([]string, 0, 3)
	for _, s := range domainbooking.BlockingStatuses() {
		blocking = append(blocking, string(s))
	}
	// half-open overlap: existing.checkIn < new.checkOut && existing.checkOut > new.checkIn
	filter := bson.M{
		"status":          bson.M{"$in": blocking},
		"removed_at":      bson.M{"$exists": false},
		"lines.unit_id":   bson.M{"$in": raw},
		"range.check_in":  bson.M{"$lt": dr.CheckOut.UnixMilli()},
		"range.check_out": bson.M{"$gt": dr.CheckIn.UnixMilli()},
	}
	if exclude != "" {
		filter["_id"] = bson.M{"$ne": string(exclude)}
	}
	cur, err := r.bookings.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	wanted := make(map[string]struct{}, len(raw))
	for _, id := range raw {
		wanted[id] = struct{}{}
	}
	var holds []domainavailability.Hold
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		rng := dates.DateRange{CheckIn: timestampToTime(doc.Range.CheckIn), CheckOut: timestampToTime(doc.Range.CheckOut)}
		for _, line := range doc.Lines {
			if _, ok := wanted[line.UnitID]; !ok {
				continue
			}
			holds = append(holds, domainavailability.Hold{
				BookingID: domainbooking.ID(doc.ID),
				UnitID:    domainunit.ID(line.UnitID),
				Range:     rng,
				Status:    domainbooking.Status(doc.Status),
			})
		}
	}
	return holds, cur.Err()
}

var _ domainavailability.Repository = (*AvailabilityRepository)(nil)
