// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"consultly/database"
	"consultly/models"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
	GetByClientID(ctx context.Context, clientID string) ([]models.Booking, error)
	GetByParentID(ctx context.Context, parentID string) ([]models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	AppendChild(ctx context.Context, parentID, childID string) error
	UpdateStatusMany(ctx context.Context, bookingIDs []string, status, reason string) (int64, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	EnsureIndexes() error
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a new MongoDB BookingRepository.
func NewMongoBookingRepo() BookingRepository {
	db := database.MongoClient.Database("consultly")
	return &mongoBookingRepo{
		coll: db.Collection("bookings"),
	}
}
