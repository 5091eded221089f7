package models

// NotificationPayload is the task body queued for the notification worker.
type NotificationPayload struct {
	Kind      string            `json:"kind"` // "booking_confirmation", "admin", "waitlist"
	Recipient string            `json:"recipient,omitempty"`
	Title     string            `json:"title,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}
