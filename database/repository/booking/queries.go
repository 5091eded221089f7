// File: database/repository/booking/queries.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"consultly/models"
)

func (r *mongoBookingRepo) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"reference": reference}).Decode(&booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *mongoBookingRepo) GetByClientID(ctx context.Context, clientID string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"clientId": clientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings for client %s: %w", clientID, err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepo) GetByParentID(ctx context.Context, parentID string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"parentBookingId": parentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch series children of %s: %w", parentID, err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatusMany applies one status transition to a set of bookings.
func (r *mongoBookingRepo) UpdateStatusMany(ctx context.Context, bookingIDs []string, status, reason string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{
		"status":    status,
		"updatedAt": time.Now(),
	}
	if reason != "" {
		set["cancellationReason"] = reason
	}
	res, err := r.coll.UpdateMany(ctx, bson.M{"id": bson.M{"$in": bookingIDs}}, bson.M{"$set": set})
	if err != nil {
		return 0, fmt.Errorf("bulk status update failed: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoBookingRepo) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.coll.FindOne(ctx, bson.M{"reference": reference}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
