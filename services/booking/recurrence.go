package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"consultly/models"
	"consultly/utils"
)

// maxOccurrences caps how many child bookings one series may generate,
// regardless of the requested count or end date.
const maxOccurrences = 52

// RecurrenceOptions selects the repeat pattern and its extent. Count wins
// over EndDate when both are set.
type RecurrenceOptions struct {
	Pattern string `json:"pattern"`
	EndDate string `json:"endDate,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// RecurrenceResult reports a generation run. Skipped iterations (slot
// conflicts, missing slots) are a normal outcome, not an error.
type RecurrenceResult struct {
	Requested    int      `json:"requested"`
	Created      int      `json:"created"`
	CreatedIDs   []string `json:"createdIds,omitempty"`
	SkippedDates []string `json:"skippedDates,omitempty"`
}

// GenerateRecurring expands the parent booking into child bookings, one slot
// reservation per occurrence. Occurrences whose slot is unavailable or absent
// are skipped without aborting the rest.
func (s *DefaultBookingService) GenerateRecurring(ctx context.Context, parentID string, opts RecurrenceOptions) (*RecurrenceResult, error) {
	parent, err := s.GetBookingByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.ParentBookingID != "" {
		return nil, newValidationError("not_series_root",
			fmt.Sprintf("booking %s is itself a generated child", parentID))
	}
	if parent.IsTerminal() {
		return nil, newValidationError("parent_terminal",
			fmt.Sprintf("cannot extend a %s booking into a series", parent.Status))
	}

	parentDate, err := parseDate(parent.Date)
	if err != nil {
		return nil, newValidationError("bad_date", fmt.Sprintf("parent booking has invalid date %q", parent.Date))
	}

	count, err := occurrenceCount(opts, parentDate)
	if err != nil {
		return nil, err
	}

	result := &RecurrenceResult{Requested: count}
	logger := utils.GetLogger()

	for i := 1; i <= count; i++ {
		date := formatDate(addPattern(parentDate, opts.Pattern, i))

		childID := newID()
		key := models.SlotKey{ServiceID: parent.ServiceID, Date: date, TimeWindow: parent.TimeWindow}
		if _, err := s.Slots.ReserveSlot(ctx, key, childID); err != nil {
			if IsConflict(err) || IsNotFound(err) {
				// Skipped, not retried.
				result.SkippedDates = append(result.SkippedDates, date)
				continue
			}
			return result, err
		}

		reference, err := s.newReference(ctx)
		if err != nil {
			s.rollbackChildSlot(ctx, childID)
			return result, err
		}

		now := time.Now()
		child := &models.Booking{
			ID:                childID,
			ClientID:          parent.ClientID,
			ServiceID:         parent.ServiceID,
			Date:              date,
			TimeWindow:        parent.TimeWindow,
			Status:            models.BookingStatusConfirmed,
			Reference:         reference,
			IsRecurring:       true,
			RecurrencePattern: parent.RecurrencePattern,
			ParentBookingID:   parent.ID,
			HasSlotClaim:      true,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if child.RecurrencePattern == "" {
			child.RecurrencePattern = opts.Pattern
		}

		if err := s.Bookings.Create(ctx, child); err != nil {
			s.rollbackChildSlot(ctx, childID)
			logger.Error("failed to persist series child",
				zap.String("parentId", parent.ID),
				zap.String("date", date),
				zap.Error(err),
			)
			result.SkippedDates = append(result.SkippedDates, date)
			continue
		}
		if err := s.Bookings.AppendChild(ctx, parent.ID, childID); err != nil {
			logger.Error("failed to record series child on parent",
				zap.String("parentId", parent.ID),
				zap.String("childId", childID),
				zap.Error(err),
			)
		}

		result.Created++
		result.CreatedIDs = append(result.CreatedIDs, childID)
	}

	logger.Info("recurrence generation finished",
		zap.String("parentId", parent.ID),
		zap.String("pattern", opts.Pattern),
		zap.Int("requested", result.Requested),
		zap.Int("created", result.Created),
		zap.Int("skipped", len(result.SkippedDates)),
	)
	return result, nil
}

func (s *DefaultBookingService) rollbackChildSlot(ctx context.Context, childID string) {
	if _, err := s.Slots.ReleaseSlot(ctx, childID); err != nil {
		utils.GetLogger().Error("failed to roll back child slot reservation",
			zap.String("childId", childID), zap.Error(err))
	}
}

// occurrenceCount derives how many children to generate from an explicit
// count or from the span to the end date, capped at maxOccurrences.
func occurrenceCount(opts RecurrenceOptions, parentDate time.Time) (int, error) {
	switch opts.Pattern {
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceBiweekly, models.RecurrenceMonthly:
	default:
		return 0, newValidationError("bad_recurrence_pattern", fmt.Sprintf("unknown recurrence pattern %q", opts.Pattern))
	}

	count := opts.Count
	if count <= 0 {
		if opts.EndDate == "" {
			return 0, newValidationError("missing_extent", "recurrence needs either a count or an end date")
		}
		end, err := parseDate(opts.EndDate)
		if err != nil {
			return 0, newValidationError("bad_date", fmt.Sprintf("invalid recurrence end date %q", opts.EndDate))
		}
		if end.Before(parentDate) {
			return 0, newValidationError("bad_range", "recurrence end date is before the parent booking date")
		}
		count = periodsBetween(parentDate, end, opts.Pattern)
	}
	if count > maxOccurrences {
		count = maxOccurrences
	}
	return count, nil
}

// periodsBetween counts whole pattern periods from start to end.
func periodsBetween(start, end time.Time, pattern string) int {
	days := int(end.Sub(start).Hours() / 24)
	switch pattern {
	case models.RecurrenceDaily:
		return days
	case models.RecurrenceWeekly:
		return days / 7
	case models.RecurrenceBiweekly:
		return days / 14
	case models.RecurrenceMonthly:
		months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
		if end.Day() < start.Day() {
			months--
		}
		if months < 0 {
			return 0
		}
		return months
	}
	return 0
}

// addPattern returns the date i pattern-periods after start.
func addPattern(start time.Time, pattern string, i int) time.Time {
	switch pattern {
	case models.RecurrenceDaily:
		return start.AddDate(0, 0, i)
	case models.RecurrenceWeekly:
		return start.AddDate(0, 0, 7*i)
	case models.RecurrenceBiweekly:
		return start.AddDate(0, 0, 14*i)
	case models.RecurrenceMonthly:
		return start.AddDate(0, i, 0)
	}
	return start
}
