// File: database/repository/waitlist/crud.go
package waitlistRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"consultly/models"
)

func (r *mongoWaitlistRepo) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("error creating waitlist entry: %w", err)
	}
	return nil
}

func (r *mongoWaitlistRepo) GetByID(ctx context.Context, entryID string) (*models.WaitlistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var entry models.WaitlistEntry
	if err := r.coll.FindOne(ctx, bson.M{"id": entryID}).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SetStatus persists the entry's status and the status-coupled fields
// (notifiedAt, bookedAt, bookingId).
func (r *mongoWaitlistRepo) SetStatus(ctx context.Context, entry *models.WaitlistEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"status": entry.Status}
	if entry.NotifiedAt != nil {
		set["notifiedAt"] = *entry.NotifiedAt
	}
	if entry.BookedAt != nil {
		set["bookedAt"] = *entry.BookedAt
	}
	if entry.BookingID != "" {
		set["bookingId"] = entry.BookingID
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": entry.ID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error updating waitlist entry %s: %w", entry.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("waitlist entry %s not found", entry.ID)
	}
	return nil
}
