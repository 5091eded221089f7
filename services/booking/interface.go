package booking

import (
	"context"
	"time"

	bookingRepo "consultly/database/repository/booking"
	identityRepo "consultly/database/repository/identity"
	slotRepo "consultly/database/repository/slot"
	waitlistRepo "consultly/database/repository/waitlist"
	"consultly/models"
	"consultly/services/notification"

	"github.com/go-redis/redis/v8"
)

// CancelScope selects how far a cancellation reaches into a series.
type CancelScope string

const (
	ScopeSingle       CancelScope = "single"
	ScopeFutureOnly   CancelScope = "futureOnly"
	ScopeEntireSeries CancelScope = "entireSeries"
)

// CreateBookingRequest carries the inputs for a new booking. If a recurrence
// pattern is set, the created booking becomes the parent of a generated series.
type CreateBookingRequest struct {
	ClientID          string `json:"clientId"`
	ServiceID         string `json:"serviceId"`
	Date              string `json:"date"`
	TimeWindow        string `json:"timeWindow"`
	Notes             string `json:"notes,omitempty"`
	RecurrencePattern string `json:"recurrencePattern,omitempty"`
	RecurrenceEndDate string `json:"recurrenceEndDate,omitempty"`
	RecurrenceCount   int    `json:"recurrenceCount,omitempty"`
}

// AddWaitlistRequest carries the inputs for a new waitlist entry.
type AddWaitlistRequest struct {
	ClientID             string   `json:"clientId"`
	ServiceID            string   `json:"serviceId"`
	RequestedDate        string   `json:"requestedDate"`
	PreferredTimeWindows []string `json:"preferredTimeWindows,omitempty"`
	Priority             int      `json:"priority"`
}

// SlotService manages the slot store and its reservations.
type SlotService interface {
	GenerateSlots(ctx context.Context, dr models.DateRange, serviceIDs, windows []string) (int, error)
	ClearSlots(ctx context.Context, dr models.DateRange, serviceIDs []string) (int64, error)
	ReserveSlot(ctx context.Context, key models.SlotKey, bookingID string) (*models.Slot, error)
	ReleaseSlot(ctx context.Context, bookingID string) (*models.Slot, error)
}

// BookingService owns the booking lifecycle, recurrence series generation
// and series cancellation.
type BookingService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error)
	GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	GetBookingsByClient(ctx context.Context, clientID string) ([]models.Booking, error)
	UpdateBooking(ctx context.Context, bookingID string, upd models.BookingUpdate) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, reason string, scope CancelScope) (*SeriesCancelResult, error)
	GenerateRecurring(ctx context.Context, parentID string, opts RecurrenceOptions) (*RecurrenceResult, error)
}

// WaitlistService drives waitlist entries through notify, book and expiry.
type WaitlistService interface {
	AddToWaitlist(ctx context.Context, req AddWaitlistRequest) (*models.WaitlistEntry, error)
	PromoteForSlot(ctx context.Context, serviceID, date string, limit int) (*PromotionResult, error)
	ConfirmFromWaitlist(ctx context.Context, entryID, bookingID string) (*models.WaitlistEntry, error)
	CancelWaitlistEntry(ctx context.Context, entryID string) (*models.WaitlistEntry, error)
	ExpireStale(ctx context.Context) (int64, error)
}

// WaitlistPromoter is the hook the slot manager fires when a slot frees up,
// whether through an explicit release, a cancellation or a terminal
// transition.
type WaitlistPromoter interface {
	PromoteForSlot(ctx context.Context, serviceID, date string, limit int) (*PromotionResult, error)
}

// DefaultSlotService implements SlotService.
type DefaultSlotService struct {
	Slots    slotRepo.SlotRepository
	Promoter WaitlistPromoter // optional; fired after a release frees a slot
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Bookings        bookingRepo.BookingRepository
	Slots           SlotService
	Identity        identityRepo.IdentityRepository
	NotificationSvc notification.NotificationService

	// AllowAdhoc lets CreateBooking proceed without a slot claim when no
	// slot record exists for the requested window. Degraded mode, off by
	// default.
	AllowAdhoc bool
}

// DefaultWaitlistService implements WaitlistService.
type DefaultWaitlistService struct {
	Entries         waitlistRepo.WaitlistRepository
	Slots           slotRepo.SlotRepository
	Identity        identityRepo.IdentityRepository
	NotificationSvc notification.NotificationService
	CacheClient     *redis.Client // promotion guard; optional

	// EntryTTL defaults a new entry's expiresAt when the caller sets none.
	EntryTTL time.Duration
}
