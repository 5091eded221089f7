// File: database/repository/waitlist/queries.go
package waitlistRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"consultly/models"
)

// FindPromotable returns pending, unexpired entries for the service/date,
// strict priority queue order: priority descending, then createdAt ascending.
func (r *mongoWaitlistRepo) FindPromotable(ctx context.Context, serviceID, date string, limit int, now time.Time) ([]models.WaitlistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"serviceId":     serviceID,
		"requestedDate": date,
		"status":        models.WaitlistStatusPending,
		"expiresAt":     bson.M{"$gt": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "createdAt", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch promotable waitlist entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.WaitlistEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding waitlist entries: %w", err)
	}
	return entries, nil
}

func (r *mongoWaitlistRepo) HasPendingEntry(ctx context.Context, clientID, serviceID, date string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"clientId":      clientID,
		"serviceId":     serviceID,
		"requestedDate": date,
		"status":        bson.M{"$in": []string{models.WaitlistStatusPending, models.WaitlistStatusNotified}},
	}
	err := r.coll.FindOne(ctx, filter).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExpirePending sweeps pending entries whose expiresAt has passed.
func (r *mongoWaitlistRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status":    models.WaitlistStatusPending,
		"expiresAt": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{"status": models.WaitlistStatusExpired}}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("waitlist expiry sweep failed: %w", err)
	}
	return res.ModifiedCount, nil
}
