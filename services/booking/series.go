package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"consultly/models"
	"consultly/utils"
)

// SeriesCancelResult reports a cascade. Release failures are accumulated,
// never thrown: the status update has already committed for every listed
// booking.
type SeriesCancelResult struct {
	CancelledCount  int              `json:"cancelledCount"`
	BookingIDs      []string         `json:"bookingIds"`
	ReleaseFailures []ReleaseFailure `json:"releaseFailures,omitempty"`
}

// ReleaseFailure records one slot release that did not go through.
type ReleaseFailure struct {
	BookingID string `json:"bookingId"`
	Reason    string `json:"reason"`
}

// cancelSeries cascades a cancellation across the series the input booking
// belongs to. futureOnly keeps series members dated before the input booking.
func (s *DefaultBookingService) cancelSeries(ctx context.Context, input *models.Booking, reason string, scope CancelScope) (*SeriesCancelResult, error) {
	root := input
	if input.ParentBookingID != "" {
		parent, err := s.GetBookingByID(ctx, input.ParentBookingID)
		if err != nil {
			return nil, err
		}
		root = parent
	}

	children, err := s.Bookings.GetByParentID(ctx, root.ID)
	if err != nil {
		return nil, newInternalError("series_lookup_failed", "could not load series members", err)
	}

	series := make([]models.Booking, 0, len(children)+1)
	series = append(series, *root)
	series = append(series, children...)

	cutoff := ""
	if scope == ScopeFutureOnly {
		if input.ParentBookingID != "" {
			cutoff = input.Date
		} else {
			cutoff = formatDate(time.Now())
		}
	}

	var selected []models.Booking
	for _, member := range series {
		if member.IsTerminal() {
			continue
		}
		if cutoff != "" && member.Date < cutoff && member.ID != input.ID {
			continue
		}
		selected = append(selected, member)
	}

	result := &SeriesCancelResult{}
	if len(selected) == 0 {
		return result, nil
	}

	ids := make([]string, len(selected))
	for i, member := range selected {
		ids[i] = member.ID
	}

	modified, err := s.Bookings.UpdateStatusMany(ctx, ids, models.BookingStatusCancelled, reason)
	if err != nil {
		return nil, newInternalError("series_cancel_failed", "bulk cancellation did not commit", err)
	}
	result.CancelledCount = int(modified)
	result.BookingIDs = ids

	// Release each slot individually; one failure must not block the rest.
	// Each successful release triggers its own waitlist promotion pass
	// inside the slot manager.
	logger := utils.GetLogger()
	for _, member := range selected {
		if _, err := s.Slots.ReleaseSlot(ctx, member.ID); err != nil {
			logger.Error("failed to release slot during series cancellation",
				zap.String("bookingId", member.ID), zap.Error(err))
			result.ReleaseFailures = append(result.ReleaseFailures, ReleaseFailure{
				BookingID: member.ID,
				Reason:    err.Error(),
			})
		}
	}

	logger.Info("series cancellation finished",
		zap.String("rootId", root.ID),
		zap.String("scope", string(scope)),
		zap.Int("cancelled", result.CancelledCount),
		zap.Int("releaseFailures", len(result.ReleaseFailures)),
	)
	return result, nil
}
