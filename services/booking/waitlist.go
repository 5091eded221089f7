package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"consultly/models"
	"consultly/utils"
)

// defaultPromotionLimit bounds one promotion pass when the caller does not
// choose a limit.
const defaultPromotionLimit = 3

// promotionGuardTTL is how long one promotion pass excludes others for the
// same service/date.
const promotionGuardTTL = 30 * time.Second

const defaultEntryTTL = 72 * time.Hour

// PromotionResult reports one promotion pass. Failed entries stay pending
// and are picked up by the next pass.
type PromotionResult struct {
	Promoted []models.WaitlistEntry `json:"promoted"`
	Failed   []PromotionFailure     `json:"failed,omitempty"`
}

// PromotionFailure records one entry whose notification did not go out.
type PromotionFailure struct {
	EntryID string `json:"entryId"`
	Reason  string `json:"reason"`
}

// AddToWaitlist registers a standing request for a service/date. A client
// with a live entry for the same service/date gets a conflict.
func (s *DefaultWaitlistService) AddToWaitlist(ctx context.Context, req AddWaitlistRequest) (*models.WaitlistEntry, error) {
	if !isValidID(req.ClientID) {
		return nil, newValidationError("bad_client_id", fmt.Sprintf("client id %q is not a 24-character hex id", req.ClientID))
	}
	if !isValidID(req.ServiceID) {
		return nil, newValidationError("bad_service_id", fmt.Sprintf("service id %q is not a 24-character hex id", req.ServiceID))
	}
	if !isValidDate(req.RequestedDate) {
		return nil, newValidationError("bad_date", fmt.Sprintf("date %q is not a valid YYYY-MM-DD date", req.RequestedDate))
	}
	if req.Priority < 0 || req.Priority > 10 {
		return nil, newValidationError("bad_priority", "priority must be between 0 and 10")
	}
	for _, w := range req.PreferredTimeWindows {
		if !isValidTimeWindow(w) {
			return nil, newValidationError("bad_time_window", fmt.Sprintf("invalid time window %q", w))
		}
	}

	if _, err := s.Identity.FindClientByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, newNotFoundError("client_not_found", fmt.Sprintf("client %s does not exist", req.ClientID))
		}
		return nil, newInternalError("client_lookup_failed", "could not resolve client", err)
	}
	if _, err := s.Identity.FindServiceByID(ctx, req.ServiceID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, newNotFoundError("service_not_found", fmt.Sprintf("service %s does not exist", req.ServiceID))
		}
		return nil, newInternalError("service_lookup_failed", "could not resolve service", err)
	}

	exists, err := s.Entries.HasPendingEntry(ctx, req.ClientID, req.ServiceID, req.RequestedDate)
	if err != nil {
		return nil, newInternalError("waitlist_check_failed", "could not check for an existing entry", err)
	}
	if exists {
		return nil, newConflictError("duplicate_waitlist_entry",
			fmt.Sprintf("client %s is already waitlisted for service %s on %s", req.ClientID, req.ServiceID, req.RequestedDate))
	}

	ttl := s.EntryTTL
	if ttl <= 0 {
		ttl = defaultEntryTTL
	}
	now := time.Now()
	entry := &models.WaitlistEntry{
		ClientID:             req.ClientID,
		ServiceID:            req.ServiceID,
		RequestedDate:        req.RequestedDate,
		PreferredTimeWindows: req.PreferredTimeWindows,
		Status:               models.WaitlistStatusPending,
		Priority:             req.Priority,
		ExpiresAt:            now.Add(ttl),
		CreatedAt:            now,
	}
	if err := s.Entries.Create(ctx, entry); err != nil {
		return nil, newInternalError("waitlist_create_failed", "could not persist waitlist entry", err)
	}
	return entry, nil
}

// PromoteForSlot notifies the highest-priority pending entries for a freed
// service/date, oldest first within a priority. Entries whose notification
// fails stay pending for the next pass.
func (s *DefaultWaitlistService) PromoteForSlot(ctx context.Context, serviceID, date string, limit int) (*PromotionResult, error) {
	if limit <= 0 {
		limit = defaultPromotionLimit
	}

	result := &PromotionResult{}
	if !s.acquirePromotionGuard(ctx, serviceID, date) {
		// Another promotion pass for this service/date is in flight.
		return result, nil
	}

	// Promote at most as many entries as there are open slots.
	open, err := s.Slots.GetAvailableByServiceAndDate(ctx, serviceID, date)
	if err != nil {
		return nil, newInternalError("slot_scan_failed", "could not read open slots", err)
	}
	if len(open) == 0 {
		return result, nil
	}
	if limit > len(open) {
		limit = len(open)
	}

	entries, err := s.Entries.FindPromotable(ctx, serviceID, date, limit, time.Now())
	if err != nil {
		return nil, newInternalError("waitlist_scan_failed", "could not read promotable entries", err)
	}

	logger := utils.GetLogger()
	for i := range entries {
		entry := entries[i]

		client, err := s.Identity.FindClientByID(ctx, entry.ClientID)
		if err != nil {
			logger.Warn("waitlist entry has unresolvable client",
				zap.String("entryId", entry.ID), zap.Error(err))
			result.Failed = append(result.Failed, PromotionFailure{EntryID: entry.ID, Reason: "client lookup failed"})
			continue
		}

		err = s.NotificationSvc.SendWaitlistNotification(ctx, client.Email, map[string]string{
			"entryId":   entry.ID,
			"serviceId": entry.ServiceID,
			"date":      entry.RequestedDate,
		})
		if err != nil {
			// Entry stays pending; the next promotion cycle retries it.
			logger.Warn("waitlist notification failed",
				zap.String("entryId", entry.ID), zap.Error(err))
			result.Failed = append(result.Failed, PromotionFailure{EntryID: entry.ID, Reason: err.Error()})
			continue
		}

		now := time.Now()
		entry.Status = models.WaitlistStatusNotified
		entry.NotifiedAt = &now
		if err := s.Entries.SetStatus(ctx, &entry); err != nil {
			logger.Error("failed to mark waitlist entry notified",
				zap.String("entryId", entry.ID), zap.Error(err))
			result.Failed = append(result.Failed, PromotionFailure{EntryID: entry.ID, Reason: err.Error()})
			continue
		}
		result.Promoted = append(result.Promoted, entry)
	}

	return result, nil
}

// acquirePromotionGuard serializes promotion passes per service/date with a
// short-lived Redis lock. Without a cache client the guard is skipped; entry
// state preconditions still keep a double pass safe.
func (s *DefaultWaitlistService) acquirePromotionGuard(ctx context.Context, serviceID, date string) bool {
	if s.CacheClient == nil {
		return true
	}
	key := fmt.Sprintf("waitlist:promote:%s:%s", serviceID, date)
	ok, err := s.CacheClient.SetNX(ctx, key, uuid.New().String(), promotionGuardTTL).Result()
	if err != nil {
		utils.GetLogger().Warn("promotion guard unavailable, proceeding without it", zap.Error(err))
		return true
	}
	return ok
}

// ConfirmFromWaitlist records that the entry resulted in a booking. Valid
// only from notified or pending.
func (s *DefaultWaitlistService) ConfirmFromWaitlist(ctx context.Context, entryID, bookingID string) (*models.WaitlistEntry, error) {
	if !isValidID(bookingID) {
		return nil, newValidationError("bad_booking_id", fmt.Sprintf("booking id %q is not a 24-character hex id", bookingID))
	}
	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	switch entry.Status {
	case models.WaitlistStatusPending, models.WaitlistStatusNotified:
	default:
		return nil, newValidationError("illegal_transition",
			fmt.Sprintf("waitlist entry in status %s cannot be booked", entry.Status))
	}

	now := time.Now()
	entry.Status = models.WaitlistStatusBooked
	entry.BookedAt = &now
	entry.BookingID = bookingID
	if err := s.Entries.SetStatus(ctx, entry); err != nil {
		return nil, newInternalError("waitlist_update_failed", "could not persist waitlist booking", err)
	}
	return entry, nil
}

// CancelWaitlistEntry withdraws a live entry. Cancelling twice is a no-op.
func (s *DefaultWaitlistService) CancelWaitlistEntry(ctx context.Context, entryID string) (*models.WaitlistEntry, error) {
	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	switch entry.Status {
	case models.WaitlistStatusCancelled:
		return entry, nil
	case models.WaitlistStatusPending, models.WaitlistStatusNotified:
	default:
		return nil, newValidationError("illegal_transition",
			fmt.Sprintf("waitlist entry in status %s cannot be cancelled", entry.Status))
	}

	entry.Status = models.WaitlistStatusCancelled
	if err := s.Entries.SetStatus(ctx, entry); err != nil {
		return nil, newInternalError("waitlist_update_failed", "could not persist waitlist cancellation", err)
	}
	return entry, nil
}

// ExpireStale sweeps pending entries past their expiresAt into expired.
func (s *DefaultWaitlistService) ExpireStale(ctx context.Context) (int64, error) {
	expired, err := s.Entries.ExpirePending(ctx, time.Now())
	if err != nil {
		return 0, newInternalError("waitlist_sweep_failed", "stale entry sweep failed", err)
	}
	return expired, nil
}

func (s *DefaultWaitlistService) getEntry(ctx context.Context, entryID string) (*models.WaitlistEntry, error) {
	if !isValidID(entryID) {
		return nil, newValidationError("bad_entry_id", fmt.Sprintf("waitlist entry id %q is not a 24-character hex id", entryID))
	}
	entry, err := s.Entries.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, newNotFoundError("waitlist_entry_not_found", fmt.Sprintf("waitlist entry %s does not exist", entryID))
		}
		return nil, newInternalError("waitlist_lookup_failed", "could not load waitlist entry", err)
	}
	return entry, nil
}
