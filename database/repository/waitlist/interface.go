// File: database/repository/waitlist/interface.go
package waitlistRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"consultly/database"
	"consultly/models"
)

type WaitlistRepository interface {
	Create(ctx context.Context, entry *models.WaitlistEntry) error
	GetByID(ctx context.Context, entryID string) (*models.WaitlistEntry, error)
	FindPromotable(ctx context.Context, serviceID, date string, limit int, now time.Time) ([]models.WaitlistEntry, error)
	HasPendingEntry(ctx context.Context, clientID, serviceID, date string) (bool, error)
	SetStatus(ctx context.Context, entry *models.WaitlistEntry) error
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
	EnsureIndexes() error
}

type mongoWaitlistRepo struct {
	coll *mongo.Collection
}

// NewMongoWaitlistRepo constructs a new MongoDB WaitlistRepository.
func NewMongoWaitlistRepo() WaitlistRepository {
	db := database.MongoClient.Database("consultly")
	return &mongoWaitlistRepo{
		coll: db.Collection("waitlist"),
	}
}
