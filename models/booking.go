package models

import "time"

// Booking status lifecycle: pending -> confirmed -> {completed, cancelled, no_show}.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
	BookingStatusNoShow    = "no_show"
)

// Recurrence patterns for booking series.
const (
	RecurrenceNone     = "none"
	RecurrenceDaily    = "daily"
	RecurrenceWeekly   = "weekly"
	RecurrenceBiweekly = "biweekly"
	RecurrenceMonthly  = "monthly"
)

// Booking represents a client's claim on a slot.
type Booking struct {
	ID                 string    `bson:"id" json:"id"`
	ClientID           string    `bson:"clientId" json:"clientId"`
	ServiceID          string    `bson:"serviceId" json:"serviceId"`
	Date               string    `bson:"date" json:"date"`             // "YYYY-MM-DD"
	TimeWindow         string    `bson:"timeWindow" json:"timeWindow"` // e.g. "10:00-11:00"
	Status             string    `bson:"status" json:"status"`
	Reference          string    `bson:"reference" json:"reference"` // unique human-readable code
	Notes              string    `bson:"notes,omitempty" json:"notes,omitempty"`
	IsRecurring        bool      `bson:"isRecurring" json:"isRecurring"`
	RecurrencePattern  string    `bson:"recurrencePattern,omitempty" json:"recurrencePattern,omitempty"`
	RecurrenceEndDate  string    `bson:"recurrenceEndDate,omitempty" json:"recurrenceEndDate,omitempty"`
	RecurrenceCount    int       `bson:"recurrenceCount,omitempty" json:"recurrenceCount,omitempty"`
	ParentBookingID    string    `bson:"parentBookingId,omitempty" json:"parentBookingId,omitempty"`
	ChildBookingIDs    []string  `bson:"childBookingIds,omitempty" json:"childBookingIds,omitempty"`
	CancellationReason string    `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	HasSlotClaim       bool      `bson:"hasSlotClaim" json:"hasSlotClaim"` // false for ad-hoc bookings without a slot record
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BookingUpdate carries the mutable, non-identity fields of a booking.
// Nil pointers leave the stored value untouched.
type BookingUpdate struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// InSeries reports whether the booking belongs to a recurrence series,
// either as the parent or as a generated child.
func (b *Booking) InSeries() bool {
	return b.ParentBookingID != "" || (b.IsRecurring && len(b.ChildBookingIDs) > 0)
}

// IsTerminal reports whether the booking status admits no further transition.
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}
