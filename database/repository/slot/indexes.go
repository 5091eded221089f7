// FILE: database/repository/slot/indexes.go
package slotRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the slots collection.
func (r *mongoSlotRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Unique index on slot ID
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// One slot per (service, date, window)
		{
			Keys: bson.D{
				{Key: "serviceId", Value: 1},
				{Key: "date", Value: 1},
				{Key: "timeWindow", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("unique_service_date_window"),
		},
		// Availability scans per service/date
		{
			Keys: bson.D{
				{Key: "serviceId", Value: 1},
				{Key: "date", Value: 1},
				{Key: "available", Value: 1},
			},
			Options: options.Index().SetName("service_date_available_idx"),
		},
		// Release path looks slots up by booking
		{
			Keys:    bson.D{{Key: "bookingId", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("booking_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create slot indexes: %w", err)
	}
	return nil
}
