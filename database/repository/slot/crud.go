// File: database/repository/slot/crud.go
package slotRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"consultly/models"
)

func (r *mongoSlotRepo) CreateMany(ctx context.Context, slots []models.Slot) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	docs := make([]interface{}, 0, len(slots))
	for _, slot := range slots {
		if slot.ID == "" {
			slot.ID = primitive.NewObjectID().Hex()
		}
		slot.Available = true
		slot.BookingID = ""
		docs = append(docs, slot)
	}

	// Unordered insert so duplicate (service, date, window) keys are skipped
	// without aborting the rest of the batch.
	res, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		if bulkErr, ok := err.(mongo.BulkWriteException); ok {
			dup := true
			for _, we := range bulkErr.WriteErrors {
				if we.Code != 11000 {
					dup = false
					break
				}
			}
			if dup {
				return len(res.InsertedIDs), nil
			}
		}
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

func (r *mongoSlotRepo) GetByKey(ctx context.Context, key models.SlotKey) (*models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"serviceId": key.ServiceID, "date": key.Date, "timeWindow": key.TimeWindow}
	var slot models.Slot
	if err := r.coll.FindOne(ctx, filter).Decode(&slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *mongoSlotRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var slot models.Slot
	if err := r.coll.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *mongoSlotRepo) GetAvailableByServiceAndDate(ctx context.Context, serviceID, date string) ([]models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"serviceId": serviceID, "date": date, "available": true}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var slots []models.Slot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *mongoSlotRepo) DeleteAvailableInRange(ctx context.Context, dr models.DateRange, serviceIDs []string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"date":      bson.M{"$gte": dr.From, "$lte": dr.To},
		"available": true,
	}
	if len(serviceIDs) > 0 {
		filter["serviceId"] = bson.M{"$in": serviceIDs}
	}
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
