package models

import "time"

// Client is a person who books consultations.
type Client struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Service is a bookable consultation offering.
type Service struct {
	ID              string `bson:"id" json:"id"`
	Name            string `bson:"name" json:"name"`
	DurationMinutes int    `bson:"durationMinutes" json:"durationMinutes"`
	Active          bool   `bson:"active" json:"active"`
}
