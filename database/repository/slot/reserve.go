// File: database/repository/slot/reserve.go
package slotRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"consultly/models"
)

// Reserve claims the slot for bookingID with a single conditional update.
// Concurrent callers racing for the same slot get exactly one winner; the
// losers see ErrSlotTaken. A key with no slot record yields ErrNoSlot.
func (r *mongoSlotRepo) Reserve(ctx context.Context, key models.SlotKey, bookingID string) (*models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"serviceId":  key.ServiceID,
		"date":       key.Date,
		"timeWindow": key.TimeWindow,
		"available":  true,
	}
	update := bson.M{
		"$set": bson.M{
			"available": false,
			"bookingId": bookingID,
		},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve slot: %w", err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a lost race from a missing record.
		count, err := r.coll.CountDocuments(ctx, bson.M{
			"serviceId":  key.ServiceID,
			"date":       key.Date,
			"timeWindow": key.TimeWindow,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check slot existence: %w", err)
		}
		if count == 0 {
			return nil, ErrNoSlot
		}
		return nil, ErrSlotTaken
	}

	return r.GetByKey(ctx, key)
}

// Release frees the slot claimed by bookingID. Releasing a booking that
// holds no slot is a no-op and returns (nil, nil).
func (r *mongoSlotRepo) Release(ctx context.Context, bookingID string) (*models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"bookingId": bookingID, "available": false}
	update := bson.M{
		"$set":   bson.M{"available": true},
		"$unset": bson.M{"bookingId": ""},
	}

	var slot models.Slot
	err := r.coll.FindOneAndUpdate(ctx, filter, update).Decode(&slot)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to release slot: %w", err)
	}
	slot.Available = true
	slot.BookingID = ""
	return &slot, nil
}
