package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"consultly/models"
	"consultly/utils"
)

// legalTransitions encodes the booking state machine:
// pending -> confirmed -> {completed, cancelled, no_show}.
var legalTransitions = map[string][]string{
	models.BookingStatusPending:   {models.BookingStatusConfirmed, models.BookingStatusCancelled},
	models.BookingStatusConfirmed: {models.BookingStatusCompleted, models.BookingStatusCancelled, models.BookingStatusNoShow},
}

func transitionAllowed(from, to string) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// afterCommitHook is a best-effort side effect run after the state change
// commits. Failures are logged, never propagated.
type afterCommitHook struct {
	name string
	run  func() error
}

func runAfterCommit(hooks []afterCommitHook) {
	logger := utils.GetLogger()
	for _, h := range hooks {
		if err := h.run(); err != nil {
			logger.Warn("post-commit side effect failed",
				zap.String("hook", h.name),
				zap.Error(err),
			)
		}
	}
}

// CreateBooking validates the request, reserves the slot, persists the
// booking in confirmed status and emits confirmation notifications. If the
// request carries a recurrence pattern, the series is generated afterwards.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	client, err := s.Identity.FindClientByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, newNotFoundError("client_not_found", fmt.Sprintf("client %s does not exist", req.ClientID))
		}
		return nil, newInternalError("client_lookup_failed", "could not resolve client", err)
	}
	service, err := s.Identity.FindServiceByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, newNotFoundError("service_not_found", fmt.Sprintf("service %s does not exist", req.ServiceID))
		}
		return nil, newInternalError("service_lookup_failed", "could not resolve service", err)
	}
	if !service.Active {
		return nil, newValidationError("service_inactive", fmt.Sprintf("service %s is not bookable", service.ID))
	}

	now := time.Now()
	bkg := &models.Booking{
		ClientID:   req.ClientID,
		ServiceID:  req.ServiceID,
		Date:       req.Date,
		TimeWindow: req.TimeWindow,
		Notes:      req.Notes,
		Status:     models.BookingStatusConfirmed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.RecurrencePattern != "" && req.RecurrencePattern != models.RecurrenceNone {
		bkg.IsRecurring = true
		bkg.RecurrencePattern = req.RecurrencePattern
		bkg.RecurrenceEndDate = req.RecurrenceEndDate
		bkg.RecurrenceCount = req.RecurrenceCount
	}

	reference, err := s.newReference(ctx)
	if err != nil {
		return nil, err
	}
	bkg.Reference = reference

	// The booking id is assigned before the reserve so the slot document can
	// point back at it.
	bkg.ID = newID()

	key := models.SlotKey{ServiceID: req.ServiceID, Date: req.Date, TimeWindow: req.TimeWindow}
	_, err = s.Slots.ReserveSlot(ctx, key, bkg.ID)
	switch {
	case err == nil:
		bkg.HasSlotClaim = true
	case IsNotFound(err) && s.AllowAdhoc:
		// Degraded mode: no slot record for this window; the booking goes
		// ahead without a claim.
		utils.GetLogger().Warn("booking without slot record (ad-hoc mode)",
			zap.String("serviceId", req.ServiceID),
			zap.String("date", req.Date),
			zap.String("timeWindow", req.TimeWindow),
		)
	default:
		return nil, err
	}

	if err := s.Bookings.Create(ctx, bkg); err != nil {
		// Undo the claim so a failed insert does not leak the slot.
		if bkg.HasSlotClaim {
			if _, relErr := s.Slots.ReleaseSlot(ctx, bkg.ID); relErr != nil {
				utils.GetLogger().Error("failed to release slot after booking insert failure",
					zap.String("bookingId", bkg.ID), zap.Error(relErr))
			}
		}
		return nil, newInternalError("booking_create_failed", "could not persist booking", err)
	}

	runAfterCommit([]afterCommitHook{
		{
			name: "booking_confirmation",
			run: func() error {
				return s.NotificationSvc.SendBookingConfirmation(ctx, client.Email, map[string]string{
					"bookingId": bkg.ID,
					"reference": bkg.Reference,
					"service":   service.Name,
					"date":      bkg.Date,
					"window":    bkg.TimeWindow,
				})
			},
		},
		{
			name: "admin_notification",
			run: func() error {
				return s.NotificationSvc.SendAdminNotification(ctx, "New booking "+bkg.Reference, map[string]string{
					"bookingId": bkg.ID,
					"clientId":  bkg.ClientID,
					"serviceId": bkg.ServiceID,
					"date":      bkg.Date,
				})
			},
		},
	})

	if bkg.IsRecurring {
		result, err := s.GenerateRecurring(ctx, bkg.ID, RecurrenceOptions{
			Pattern: bkg.RecurrencePattern,
			EndDate: bkg.RecurrenceEndDate,
			Count:   bkg.RecurrenceCount,
		})
		if err != nil {
			// The parent booking stands; the caller sees the series outcome
			// through the parent's childBookingIds.
			utils.GetLogger().Warn("recurrence generation failed after parent creation",
				zap.String("parentId", bkg.ID), zap.Error(err))
		} else {
			bkg.ChildBookingIDs = result.CreatedIDs
		}
	}

	return bkg, nil
}

func validateCreateRequest(req CreateBookingRequest) error {
	if !isValidID(req.ClientID) {
		return newValidationError("bad_client_id", fmt.Sprintf("client id %q is not a 24-character hex id", req.ClientID))
	}
	if !isValidID(req.ServiceID) {
		return newValidationError("bad_service_id", fmt.Sprintf("service id %q is not a 24-character hex id", req.ServiceID))
	}
	if !isValidDate(req.Date) {
		return newValidationError("bad_date", fmt.Sprintf("date %q is not a valid YYYY-MM-DD date", req.Date))
	}
	if !isValidTimeWindow(req.TimeWindow) {
		return newValidationError("bad_time_window", fmt.Sprintf("time window %q is not of the form HH:MM-HH:MM", req.TimeWindow))
	}
	switch req.RecurrencePattern {
	case "", models.RecurrenceNone:
		return nil
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceBiweekly, models.RecurrenceMonthly:
	default:
		return newValidationError("bad_recurrence_pattern", fmt.Sprintf("unknown recurrence pattern %q", req.RecurrencePattern))
	}
	// The extent is checked here so a recurring request fails before the
	// parent commits, not after.
	if req.RecurrenceCount <= 0 && req.RecurrenceEndDate == "" {
		return newValidationError("missing_extent", "a recurring booking needs a recurrence count or end date")
	}
	if req.RecurrenceEndDate != "" {
		if !isValidDate(req.RecurrenceEndDate) {
			return newValidationError("bad_date", fmt.Sprintf("recurrence end date %q is not a valid YYYY-MM-DD date", req.RecurrenceEndDate))
		}
		if req.RecurrenceEndDate < req.Date {
			return newValidationError("bad_range", "recurrence end date is before the booking date")
		}
	}
	return nil
}

// GetBookingByID retrieves a single booking.
func (s *DefaultBookingService) GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	if !isValidID(bookingID) {
		return nil, newValidationError("bad_booking_id", fmt.Sprintf("booking id %q is not a 24-character hex id", bookingID))
	}
	bkg, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, newNotFoundError("booking_not_found", fmt.Sprintf("booking %s does not exist", bookingID))
		}
		return nil, newInternalError("booking_lookup_failed", "could not load booking", err)
	}
	return bkg, nil
}

// GetBookingByReference retrieves a booking by its human-readable code.
func (s *DefaultBookingService) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	bkg, err := s.Bookings.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, newNotFoundError("booking_not_found", fmt.Sprintf("no booking with reference %s", reference))
		}
		return nil, newInternalError("booking_lookup_failed", "could not load booking", err)
	}
	return bkg, nil
}

// GetBookingsByClient lists a client's bookings, newest first.
func (s *DefaultBookingService) GetBookingsByClient(ctx context.Context, clientID string) ([]models.Booking, error) {
	if !isValidID(clientID) {
		return nil, newValidationError("bad_client_id", fmt.Sprintf("client id %q is not a 24-character hex id", clientID))
	}
	bookings, err := s.Bookings.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, newInternalError("booking_list_failed", "could not list bookings", err)
	}
	return bookings, nil
}

// UpdateBooking mutates non-identity fields. Status changes must follow the
// state machine; illegal transitions are rejected.
func (s *DefaultBookingService) UpdateBooking(ctx context.Context, bookingID string, upd models.BookingUpdate) (*models.Booking, error) {
	bkg, err := s.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil && *upd.Status != bkg.Status {
		if *upd.Status == models.BookingStatusCancelled {
			return nil, newValidationError("use_cancel", "cancel bookings through CancelBooking, not a status update")
		}
		if !transitionAllowed(bkg.Status, *upd.Status) {
			return nil, newValidationError("illegal_transition",
				fmt.Sprintf("booking cannot move from %s to %s", bkg.Status, *upd.Status))
		}
		bkg.Status = *upd.Status
		// Completed and no-show bookings no longer hold their slot.
		if bkg.IsTerminal() && bkg.HasSlotClaim {
			if _, err := s.Slots.ReleaseSlot(ctx, bkg.ID); err != nil {
				utils.GetLogger().Warn("failed to release slot for terminal booking",
					zap.String("bookingId", bkg.ID), zap.Error(err))
			} else {
				bkg.HasSlotClaim = false
			}
		}
	}
	if upd.Notes != nil {
		bkg.Notes = *upd.Notes
	}

	if err := s.Bookings.Update(ctx, bkg); err != nil {
		return nil, newInternalError("booking_update_failed", "could not persist booking update", err)
	}
	return bkg, nil
}

// CancelBooking cancels a booking, optionally cascading across its series.
// Scope single on a series member cancels just that member.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, bookingID, reason string, scope CancelScope) (*SeriesCancelResult, error) {
	bkg, err := s.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch scope {
	case "", ScopeSingle:
		if err := s.cancelOne(ctx, bkg, reason); err != nil {
			return nil, err
		}
		return &SeriesCancelResult{CancelledCount: 1, BookingIDs: []string{bkg.ID}}, nil
	case ScopeFutureOnly, ScopeEntireSeries:
		// A series scope on a standalone booking collapses to a single cancel.
		if !bkg.InSeries() {
			if err := s.cancelOne(ctx, bkg, reason); err != nil {
				return nil, err
			}
			return &SeriesCancelResult{CancelledCount: 1, BookingIDs: []string{bkg.ID}}, nil
		}
		return s.cancelSeries(ctx, bkg, reason, scope)
	default:
		return nil, newValidationError("bad_scope", fmt.Sprintf("unknown cancellation scope %q", scope))
	}
}

// cancelOne transitions a single booking to cancelled and releases its slot.
// Cancelling an already-cancelled booking is a no-op.
func (s *DefaultBookingService) cancelOne(ctx context.Context, bkg *models.Booking, reason string) error {
	if bkg.Status == models.BookingStatusCancelled {
		return nil
	}
	if bkg.IsTerminal() {
		return newValidationError("illegal_transition",
			fmt.Sprintf("booking in status %s cannot be cancelled", bkg.Status))
	}

	bkg.Status = models.BookingStatusCancelled
	bkg.CancellationReason = reason
	if err := s.Bookings.Update(ctx, bkg); err != nil {
		return newInternalError("booking_cancel_failed", "could not persist cancellation", err)
	}

	// Best-effort: the slot manager kicks the waitlist when the slot frees.
	if _, err := s.Slots.ReleaseSlot(ctx, bkg.ID); err != nil {
		utils.GetLogger().Error("failed to release slot for cancelled booking",
			zap.String("bookingId", bkg.ID), zap.Error(err))
	}
	return nil
}
