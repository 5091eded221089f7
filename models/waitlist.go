package models

import "time"

// Waitlist entry statuses. An entry terminates in exactly one of
// booked, expired or cancelled.
const (
	WaitlistStatusPending   = "pending"
	WaitlistStatusNotified  = "notified"
	WaitlistStatusBooked    = "booked"
	WaitlistStatusExpired   = "expired"
	WaitlistStatusCancelled = "cancelled"
)

// WaitlistEntry is a client's standing request to be notified when a slot
// for a given service/date frees up.
type WaitlistEntry struct {
	ID                   string     `bson:"id" json:"id"`
	ClientID             string     `bson:"clientId" json:"clientId"`
	ServiceID            string     `bson:"serviceId" json:"serviceId"`
	RequestedDate        string     `bson:"requestedDate" json:"requestedDate"` // "YYYY-MM-DD"
	PreferredTimeWindows []string   `bson:"preferredTimeWindows,omitempty" json:"preferredTimeWindows,omitempty"`
	Status               string     `bson:"status" json:"status"`
	Priority             int        `bson:"priority" json:"priority"` // 0..10, higher promotes first
	NotifiedAt           *time.Time `bson:"notifiedAt,omitempty" json:"notifiedAt,omitempty"`
	BookedAt             *time.Time `bson:"bookedAt,omitempty" json:"bookedAt,omitempty"`
	BookingID            string     `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	ExpiresAt            time.Time  `bson:"expiresAt" json:"expiresAt"`
	CreatedAt            time.Time  `bson:"createdAt" json:"createdAt"`
}
