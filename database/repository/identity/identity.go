// File: database/repository/identity/identity.go
package identityRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"consultly/database"
	"consultly/models"
)

// IdentityRepository resolves the foreign keys a booking refers to.
type IdentityRepository interface {
	FindClientByID(ctx context.Context, clientID string) (*models.Client, error)
	FindServiceByID(ctx context.Context, serviceID string) (*models.Service, error)
}

type mongoIdentityRepo struct {
	clients  *mongo.Collection
	services *mongo.Collection
}

// NewMongoIdentityRepo constructs a new MongoDB IdentityRepository.
func NewMongoIdentityRepo() IdentityRepository {
	db := database.MongoClient.Database("consultly")
	return &mongoIdentityRepo{
		clients:  db.Collection("clients"),
		services: db.Collection("services"),
	}
}

func (r *mongoIdentityRepo) FindClientByID(ctx context.Context, clientID string) (*models.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var client models.Client
	if err := r.clients.FindOne(ctx, bson.M{"id": clientID}).Decode(&client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *mongoIdentityRepo) FindServiceByID(ctx context.Context, serviceID string) (*models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var service models.Service
	if err := r.services.FindOne(ctx, bson.M{"id": serviceID}).Decode(&service); err != nil {
		return nil, err
	}
	return &service, nil
}
