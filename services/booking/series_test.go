package booking

import (
	"context"
	"errors"
	"testing"

	"consultly/models"
)

// failingReleaseSlots wraps a SlotService and fails ReleaseSlot for chosen
// booking IDs.
type failingReleaseSlots struct {
	SlotService
	failIDs map[string]bool
}

func (f *failingReleaseSlots) ReleaseSlot(ctx context.Context, bookingID string) (*models.Slot, error) {
	if f.failIDs[bookingID] {
		return nil, errors.New("release timed out")
	}
	return f.SlotService.ReleaseSlot(ctx, bookingID)
}

// newSeries creates a weekly parent plus children for the given dates. The
// first date is the parent's.
func newSeries(t *testing.T, env *testEnv, dates ...string) (*models.Booking, []string) {
	t.Helper()
	for _, date := range dates {
		seedSlots(t, env.slots, testServiceID, date, "10:00-11:00")
	}
	parent, err := env.bookingSvc.CreateBooking(context.Background(), CreateBookingRequest{
		ClientID:          testClientID,
		ServiceID:         testServiceID,
		Date:              dates[0],
		TimeWindow:        "10:00-11:00",
		RecurrencePattern: models.RecurrenceWeekly,
		RecurrenceCount:   len(dates) - 1,
	})
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	if len(parent.ChildBookingIDs) != len(dates)-1 {
		t.Fatalf("want %d children, got %d", len(dates)-1, len(parent.ChildBookingIDs))
	}
	return parent, parent.ChildBookingIDs
}

func (env *testEnv) mustStatus(t *testing.T, bookingID, want string) {
	t.Helper()
	bkg, err := env.bookingSvc.GetBookingByID(context.Background(), bookingID)
	if err != nil {
		t.Fatalf("get %s: %v", bookingID, err)
	}
	if bkg.Status != want {
		t.Fatalf("booking %s: want status %s, got %s", bookingID, want, bkg.Status)
	}
}

func TestCancelEntireSeriesFromChild(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, children := newSeries(t, env, "2030-04-01", "2030-04-08", "2030-04-15", "2030-04-22")

	result, err := env.bookingSvc.CancelBooking(ctx, children[1], "client moved away", ScopeEntireSeries)
	if err != nil {
		t.Fatalf("cancel series: %v", err)
	}
	if result.CancelledCount != 4 {
		t.Fatalf("want 4 cancelled, got %d", result.CancelledCount)
	}
	env.mustStatus(t, parent.ID, models.BookingStatusCancelled)
	for _, childID := range children {
		env.mustStatus(t, childID, models.BookingStatusCancelled)
	}

	// Every slot in the series is open again.
	for _, date := range []string{"2030-04-01", "2030-04-08", "2030-04-15", "2030-04-22"} {
		open, err := env.slots.GetAvailableByServiceAndDate(ctx, testServiceID, date)
		if err != nil || len(open) != 1 {
			t.Fatalf("slot for %s not released (open=%d, err=%v)", date, len(open), err)
		}
	}
}

func TestCancelFutureOnlyFromChildUsesChildDate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, children := newSeries(t, env, "2030-04-01", "2030-04-08", "2030-04-15", "2030-04-22")

	// Cancel from the middle child: it and everything after it go, the
	// parent and the earlier child stay.
	result, err := env.bookingSvc.CancelBooking(ctx, children[1], "schedule change", ScopeFutureOnly)
	if err != nil {
		t.Fatalf("cancel futureOnly: %v", err)
	}
	if result.CancelledCount != 2 {
		t.Fatalf("want 2 cancelled, got %d (%v)", result.CancelledCount, result.BookingIDs)
	}
	env.mustStatus(t, parent.ID, models.BookingStatusConfirmed)
	env.mustStatus(t, children[0], models.BookingStatusConfirmed)
	env.mustStatus(t, children[1], models.BookingStatusCancelled)
	env.mustStatus(t, children[2], models.BookingStatusCancelled)
}

func TestCancelFutureOnlyFromParentKeepsPastChildren(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	// Series entirely in the past; futureOnly from the parent cuts at today,
	// so only the parent itself (always included) is cancelled.
	parent, children := newSeries(t, env, "2020-01-06", "2020-01-13", "2020-01-20")

	result, err := env.bookingSvc.CancelBooking(ctx, parent.ID, "cleanup", ScopeFutureOnly)
	if err != nil {
		t.Fatalf("cancel futureOnly: %v", err)
	}
	if result.CancelledCount != 1 {
		t.Fatalf("want only parent cancelled, got %d (%v)", result.CancelledCount, result.BookingIDs)
	}
	env.mustStatus(t, parent.ID, models.BookingStatusCancelled)
	for _, childID := range children {
		env.mustStatus(t, childID, models.BookingStatusConfirmed)
	}
}

func TestCancelSeriesSkipsTerminalMembers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, children := newSeries(t, env, "2030-05-06", "2030-05-13", "2030-05-20")

	done := models.BookingStatusCompleted
	if _, err := env.bookingSvc.UpdateBooking(ctx, children[0], models.BookingUpdate{Status: &done}); err != nil {
		t.Fatalf("complete child: %v", err)
	}

	result, err := env.bookingSvc.CancelBooking(ctx, parent.ID, "stop", ScopeEntireSeries)
	if err != nil {
		t.Fatalf("cancel series: %v", err)
	}
	if result.CancelledCount != 2 {
		t.Fatalf("want 2 cancelled (completed child skipped), got %d", result.CancelledCount)
	}
	env.mustStatus(t, children[0], models.BookingStatusCompleted)
	env.mustStatus(t, children[1], models.BookingStatusCancelled)
}

func TestCancelSeriesAccumulatesReleaseFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, children := newSeries(t, env, "2030-06-03", "2030-06-10", "2030-06-17")

	env.bookingSvc.Slots = &failingReleaseSlots{
		SlotService: env.slotSvc,
		failIDs:     map[string]bool{children[0]: true},
	}

	result, err := env.bookingSvc.CancelBooking(ctx, parent.ID, "stop", ScopeEntireSeries)
	if err != nil {
		t.Fatalf("cancel series: %v", err)
	}
	if result.CancelledCount != 3 {
		t.Fatalf("status updates must commit despite release failures, got %d", result.CancelledCount)
	}
	if len(result.ReleaseFailures) != 1 || result.ReleaseFailures[0].BookingID != children[0] {
		t.Fatalf("want one release failure for %s, got %+v", children[0], result.ReleaseFailures)
	}
	// The failed member is still cancelled.
	env.mustStatus(t, children[0], models.BookingStatusCancelled)
}

func TestCancelSeriesPromotesWaitlist(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	parent, _ := newSeries(t, env, "2030-07-01", "2030-07-08")

	entry, err := env.waitlistSvc.AddToWaitlist(ctx, AddWaitlistRequest{
		ClientID:      testClientID,
		ServiceID:     testServiceID,
		RequestedDate: "2030-07-08",
		Priority:      5,
	})
	if err != nil {
		t.Fatalf("add to waitlist: %v", err)
	}

	if _, err := env.bookingSvc.CancelBooking(ctx, parent.ID, "stop", ScopeEntireSeries); err != nil {
		t.Fatalf("cancel series: %v", err)
	}

	got, err := env.waitlist.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	if got.Status != models.WaitlistStatusNotified {
		t.Fatalf("want waitlist entry notified after series cancel, got %s", got.Status)
	}
}

func TestCancelStandaloneWithSeriesScope(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedSlots(t, env.slots, testServiceID, "2030-08-05", "10:00-11:00")
	bkg := env.createBooking(t, "2030-08-05", "10:00-11:00")

	result, err := env.bookingSvc.CancelBooking(ctx, bkg.ID, "no longer needed", ScopeEntireSeries)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.CancelledCount != 1 || len(result.BookingIDs) != 1 || result.BookingIDs[0] != bkg.ID {
		t.Fatalf("series scope on a standalone booking must cancel just it, got %+v", result)
	}
	env.mustStatus(t, bkg.ID, models.BookingStatusCancelled)
	open, err := env.slots.GetAvailableByServiceAndDate(ctx, testServiceID, "2030-08-05")
	if err != nil || len(open) != 1 {
		t.Fatalf("slot not released (open=%d, err=%v)", len(open), err)
	}
}
