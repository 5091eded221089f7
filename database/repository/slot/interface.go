// File: database/repository/slot/interface.go
package slotRepo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"consultly/database"
	"consultly/models"
)

// SlotRepository is the slot store. Reserve and Release are the only
// mutations on a slot's availability and both are single conditional
// updates, so racing callers are serialized by the database.
type SlotRepository interface {
	CreateMany(ctx context.Context, slots []models.Slot) (int, error)
	GetByKey(ctx context.Context, key models.SlotKey) (*models.Slot, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.Slot, error)
	GetAvailableByServiceAndDate(ctx context.Context, serviceID, date string) ([]models.Slot, error)
	Reserve(ctx context.Context, key models.SlotKey, bookingID string) (*models.Slot, error)
	Release(ctx context.Context, bookingID string) (*models.Slot, error)
	DeleteAvailableInRange(ctx context.Context, dr models.DateRange, serviceIDs []string) (int64, error)
	EnsureIndexes() error
}

// ErrNoSlot is returned by Reserve when no slot record exists for the key,
// and ErrSlotTaken when the record exists but is already claimed.
var (
	ErrNoSlot    = mongo.ErrNoDocuments
	ErrSlotTaken = errSlotTaken{}
)

type errSlotTaken struct{}

func (errSlotTaken) Error() string { return "slot already claimed" }

type mongoSlotRepo struct {
	coll *mongo.Collection
}

// NewMongoSlotRepo constructs a new MongoDB SlotRepository.
func NewMongoSlotRepo() SlotRepository {
	db := database.MongoClient.Database("consultly")
	return &mongoSlotRepo{
		coll: db.Collection("slots"),
	}
}
