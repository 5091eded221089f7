package models

// Slot represents one reservable (service, date, time-window) unit of
// capacity. A slot is claimed by at most one booking at a time.
type Slot struct {
	ID         string `bson:"id" json:"id"`
	ServiceID  string `bson:"serviceId" json:"serviceId"`
	Date       string `bson:"date" json:"date"`             // "YYYY-MM-DD"
	TimeWindow string `bson:"timeWindow" json:"timeWindow"` // e.g. "10:00-11:00"
	Available  bool   `bson:"available" json:"available"`
	BookingID  string `bson:"bookingId,omitempty" json:"bookingId,omitempty"` // set iff Available is false
}

// SlotKey identifies the unique (service, date, window) triple of a slot.
type SlotKey struct {
	ServiceID  string `json:"serviceId"`
	Date       string `json:"date"`
	TimeWindow string `json:"timeWindow"`
}

// DateRange is an inclusive range of "YYYY-MM-DD" dates.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}
