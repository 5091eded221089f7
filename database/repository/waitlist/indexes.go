// FILE: database/repository/waitlist/indexes.go
package waitlistRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the waitlist collection.
func (r *mongoWaitlistRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Promotion ordering query
		{
			Keys: bson.D{
				{Key: "serviceId", Value: 1},
				{Key: "requestedDate", Value: 1},
				{Key: "status", Value: 1},
				{Key: "priority", Value: -1},
				{Key: "createdAt", Value: 1},
			},
			Options: options.Index().SetName("promotion_idx"),
		},
		// Stale sweep
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("expiry_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create waitlist indexes: %w", err)
	}
	return nil
}
