package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	slotRepo "consultly/database/repository/slot"
	"consultly/models"
	"consultly/utils"
)

// maxGeneratedDays bounds a single GenerateSlots call.
const maxGeneratedDays = 366

// GenerateSlots bulk-creates available slots for every (service, date, window)
// combination in the range. Existing slots are left untouched; the unique
// index makes re-running the generation safe.
func (s *DefaultSlotService) GenerateSlots(ctx context.Context, dr models.DateRange, serviceIDs, windows []string) (int, error) {
	if len(serviceIDs) == 0 || len(windows) == 0 {
		return 0, newValidationError("empty_generation", "at least one service and one time window are required")
	}
	from, err := parseDate(dr.From)
	if err != nil {
		return 0, newValidationError("bad_date", fmt.Sprintf("invalid range start %q", dr.From))
	}
	to, err := parseDate(dr.To)
	if err != nil {
		return 0, newValidationError("bad_date", fmt.Sprintf("invalid range end %q", dr.To))
	}
	if to.Before(from) {
		return 0, newValidationError("bad_range", "range end is before range start")
	}
	for _, w := range windows {
		if !isValidTimeWindow(w) {
			return 0, newValidationError("bad_time_window", fmt.Sprintf("invalid time window %q", w))
		}
	}

	var slots []models.Slot
	days := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if days++; days > maxGeneratedDays {
			return 0, newValidationError("range_too_large", "slot generation range exceeds one year")
		}
		date := formatDate(d)
		for _, serviceID := range serviceIDs {
			for _, window := range windows {
				slots = append(slots, models.Slot{
					ServiceID:  serviceID,
					Date:       date,
					TimeWindow: window,
					Available:  true,
				})
			}
		}
	}

	created, err := s.Slots.CreateMany(ctx, slots)
	if err != nil {
		return 0, newInternalError("slot_generation_failed", "could not persist generated slots", err)
	}
	utils.GetLogger().Info("generated slots",
		zap.Int("requested", len(slots)),
		zap.Int("created", created),
		zap.String("from", dr.From),
		zap.String("to", dr.To),
	)
	return created, nil
}

// ClearSlots removes still-available slots in the range. Reserved slots stay
// until their booking releases them, so a live booking never points at a
// deleted slot.
func (s *DefaultSlotService) ClearSlots(ctx context.Context, dr models.DateRange, serviceIDs []string) (int64, error) {
	if !isValidDate(dr.From) || !isValidDate(dr.To) {
		return 0, newValidationError("bad_date", "invalid date range")
	}
	deleted, err := s.Slots.DeleteAvailableInRange(ctx, dr, serviceIDs)
	if err != nil {
		return 0, newInternalError("slot_clear_failed", "could not clear slots", err)
	}
	return deleted, nil
}

// ReserveSlot claims the slot for bookingID. A lost race surfaces as a
// ConflictError; a missing slot record as a NotFoundError, so callers can
// tell the degraded no-record case apart from contention.
func (s *DefaultSlotService) ReserveSlot(ctx context.Context, key models.SlotKey, bookingID string) (*models.Slot, error) {
	slot, err := s.Slots.Reserve(ctx, key, bookingID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrNoSlot) {
			return nil, newNotFoundError("slot_not_found",
				fmt.Sprintf("no slot for service %s on %s at %s", key.ServiceID, key.Date, key.TimeWindow))
		}
		if errors.Is(err, slotRepo.ErrSlotTaken) {
			return nil, newConflictError("slot_unavailable",
				fmt.Sprintf("slot for service %s on %s at %s is already booked", key.ServiceID, key.Date, key.TimeWindow))
		}
		return nil, newInternalError("slot_reserve_failed", "slot reservation failed", err)
	}
	return slot, nil
}

// ReleaseSlot frees whatever slot bookingID holds. Releasing a booking with
// no live claim is a no-op, not an error. When a slot actually frees, the
// waitlist for its service/date gets a promotion pass.
func (s *DefaultSlotService) ReleaseSlot(ctx context.Context, bookingID string) (*models.Slot, error) {
	slot, err := s.Slots.Release(ctx, bookingID)
	if err != nil {
		return nil, newInternalError("slot_release_failed", "slot release failed", err)
	}
	if slot != nil && s.Promoter != nil {
		if _, err := s.Promoter.PromoteForSlot(ctx, slot.ServiceID, slot.Date, defaultPromotionLimit); err != nil {
			utils.GetLogger().Warn("waitlist promotion after slot release failed",
				zap.String("serviceId", slot.ServiceID),
				zap.String("date", slot.Date),
				zap.Error(err),
			)
		}
	}
	return slot, nil
}
