package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	slotRepo "consultly/database/repository/slot"
	"consultly/models"
)

// memSlotRepo is an in-memory SlotRepository with the same atomicity
// guarantee as the Mongo implementation: reserve is a single guarded
// check-and-set.
type memSlotRepo struct {
	mu    sync.Mutex
	slots map[models.SlotKey]*models.Slot
}

func newMemSlotRepo() *memSlotRepo {
	return &memSlotRepo{slots: make(map[models.SlotKey]*models.Slot)}
}

func (r *memSlotRepo) CreateMany(_ context.Context, slots []models.Slot) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	created := 0
	for _, slot := range slots {
		key := models.SlotKey{ServiceID: slot.ServiceID, Date: slot.Date, TimeWindow: slot.TimeWindow}
		if _, ok := r.slots[key]; ok {
			continue
		}
		s := slot
		if s.ID == "" {
			s.ID = primitive.NewObjectID().Hex()
		}
		s.Available = true
		s.BookingID = ""
		r.slots[key] = &s
		created++
	}
	return created, nil
}

func (r *memSlotRepo) GetByKey(_ context.Context, key models.SlotKey) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[key]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *slot
	return &cp, nil
}

func (r *memSlotRepo) GetByBookingID(_ context.Context, bookingID string) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, slot := range r.slots {
		if slot.BookingID == bookingID {
			cp := *slot
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memSlotRepo) GetAvailableByServiceAndDate(_ context.Context, serviceID, date string) ([]models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Slot
	for _, slot := range r.slots {
		if slot.ServiceID == serviceID && slot.Date == date && slot.Available {
			out = append(out, *slot)
		}
	}
	return out, nil
}

func (r *memSlotRepo) Reserve(_ context.Context, key models.SlotKey, bookingID string) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[key]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if !slot.Available {
		return nil, slotRepo.ErrSlotTaken
	}
	slot.Available = false
	slot.BookingID = bookingID
	cp := *slot
	return &cp, nil
}

func (r *memSlotRepo) Release(_ context.Context, bookingID string) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, slot := range r.slots {
		if !slot.Available && slot.BookingID == bookingID {
			slot.Available = true
			slot.BookingID = ""
			cp := *slot
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memSlotRepo) DeleteAvailableInRange(_ context.Context, dr models.DateRange, serviceIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match := func(serviceID string) bool {
		if len(serviceIDs) == 0 {
			return true
		}
		for _, id := range serviceIDs {
			if id == serviceID {
				return true
			}
		}
		return false
	}
	var deleted int64
	for key, slot := range r.slots {
		if slot.Available && slot.Date >= dr.From && slot.Date <= dr.To && match(slot.ServiceID) {
			delete(r.slots, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memSlotRepo) EnsureIndexes() error { return nil }

// memBookingRepo is an in-memory BookingRepository.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *memBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking.ID == "" {
		booking.ID = primitive.NewObjectID().Hex()
	}
	cp := *booking
	r.bookings[booking.ID] = &cp
	return nil
}

func (r *memBookingRepo) GetByID(_ context.Context, bookingID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[bookingID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *booking
	return &cp, nil
}

func (r *memBookingRepo) GetByReference(_ context.Context, reference string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, booking := range r.bookings {
		if booking.Reference == reference {
			cp := *booking
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memBookingRepo) GetByClientID(_ context.Context, clientID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, booking := range r.bookings {
		if booking.ClientID == clientID {
			out = append(out, *booking)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (r *memBookingRepo) GetByParentID(_ context.Context, parentID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, booking := range r.bookings {
		if booking.ParentBookingID == parentID {
			out = append(out, *booking)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *memBookingRepo) Update(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[booking.ID]; !ok {
		return fmt.Errorf("booking %s not found", booking.ID)
	}
	booking.UpdatedAt = time.Now()
	cp := *booking
	r.bookings[booking.ID] = &cp
	return nil
}

func (r *memBookingRepo) AppendChild(_ context.Context, parentID, childID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	parent, ok := r.bookings[parentID]
	if !ok {
		return fmt.Errorf("parent booking %s not found", parentID)
	}
	parent.ChildBookingIDs = append(parent.ChildBookingIDs, childID)
	return nil
}

func (r *memBookingRepo) UpdateStatusMany(_ context.Context, bookingIDs []string, status, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var modified int64
	for _, id := range bookingIDs {
		booking, ok := r.bookings[id]
		if !ok || booking.Status == status {
			continue
		}
		booking.Status = status
		if reason != "" {
			booking.CancellationReason = reason
		}
		modified++
	}
	return modified, nil
}

func (r *memBookingRepo) ReferenceExists(_ context.Context, reference string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, booking := range r.bookings {
		if booking.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

func (r *memBookingRepo) EnsureIndexes() error { return nil }

// memWaitlistRepo is an in-memory WaitlistRepository.
type memWaitlistRepo struct {
	mu      sync.Mutex
	entries map[string]*models.WaitlistEntry
}

func newMemWaitlistRepo() *memWaitlistRepo {
	return &memWaitlistRepo{entries: make(map[string]*models.WaitlistEntry)}
}

func (r *memWaitlistRepo) Create(_ context.Context, entry *models.WaitlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	cp := *entry
	r.entries[entry.ID] = &cp
	return nil
}

func (r *memWaitlistRepo) GetByID(_ context.Context, entryID string) (*models.WaitlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[entryID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *entry
	return &cp, nil
}

func (r *memWaitlistRepo) FindPromotable(_ context.Context, serviceID, date string, limit int, now time.Time) ([]models.WaitlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WaitlistEntry
	for _, entry := range r.entries {
		if entry.ServiceID == serviceID && entry.RequestedDate == date &&
			entry.Status == models.WaitlistStatusPending && entry.ExpiresAt.After(now) {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memWaitlistRepo) HasPendingEntry(_ context.Context, clientID, serviceID, date string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.entries {
		if entry.ClientID == clientID && entry.ServiceID == serviceID && entry.RequestedDate == date &&
			(entry.Status == models.WaitlistStatusPending || entry.Status == models.WaitlistStatusNotified) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memWaitlistRepo) SetStatus(_ context.Context, entry *models.WaitlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entries[entry.ID]
	if !ok {
		return fmt.Errorf("waitlist entry %s not found", entry.ID)
	}
	stored.Status = entry.Status
	if entry.NotifiedAt != nil {
		stored.NotifiedAt = entry.NotifiedAt
	}
	if entry.BookedAt != nil {
		stored.BookedAt = entry.BookedAt
	}
	if entry.BookingID != "" {
		stored.BookingID = entry.BookingID
	}
	return nil
}

func (r *memWaitlistRepo) ExpirePending(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired int64
	for _, entry := range r.entries {
		if entry.Status == models.WaitlistStatusPending && !entry.ExpiresAt.After(now) {
			entry.Status = models.WaitlistStatusExpired
			expired++
		}
	}
	return expired, nil
}

func (r *memWaitlistRepo) EnsureIndexes() error { return nil }

// memIdentityRepo resolves clients and services from fixed maps.
type memIdentityRepo struct {
	clients  map[string]*models.Client
	services map[string]*models.Service
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{
		clients:  make(map[string]*models.Client),
		services: make(map[string]*models.Service),
	}
}

func (r *memIdentityRepo) FindClientByID(_ context.Context, clientID string) (*models.Client, error) {
	client, ok := r.clients[clientID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return client, nil
}

func (r *memIdentityRepo) FindServiceByID(_ context.Context, serviceID string) (*models.Service, error) {
	service, ok := r.services[serviceID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return service, nil
}

// recordingNotifier records every send and can be told to fail some of them.
type recordingNotifier struct {
	mu            sync.Mutex
	confirmations []map[string]string
	adminNotices  []map[string]string
	waitlist      []map[string]string
	failAll       bool
	failEntryIDs  map[string]bool // waitlist sends that should fail, by entryId
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{failEntryIDs: make(map[string]bool)}
}

func (n *recordingNotifier) SendBookingConfirmation(_ context.Context, _ string, msgCtx map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return fmt.Errorf("smtp unavailable")
	}
	n.confirmations = append(n.confirmations, msgCtx)
	return nil
}

func (n *recordingNotifier) SendAdminNotification(_ context.Context, _ string, msgCtx map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return fmt.Errorf("smtp unavailable")
	}
	n.adminNotices = append(n.adminNotices, msgCtx)
	return nil
}

func (n *recordingNotifier) SendWaitlistNotification(_ context.Context, _ string, msgCtx map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll || n.failEntryIDs[msgCtx["entryId"]] {
		return fmt.Errorf("push gateway unavailable")
	}
	n.waitlist = append(n.waitlist, msgCtx)
	return nil
}
