package booking

import (
	"context"
	"regexp"
	"testing"
)

func TestRandomReferenceFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^CNS-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{6}$`)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := randomReference()
		if err != nil {
			t.Fatalf("randomReference: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("reference %q does not match the expected shape", code)
		}
		seen[code] = true
	}
	// 200 draws from a 32^6 space should not collide.
	if len(seen) != 200 {
		t.Fatalf("got %d distinct references out of 200", len(seen))
	}
}

// collidingBookingRepo reports the first n reference checks as taken.
type collidingBookingRepo struct {
	*memBookingRepo
	collisions int
	checks     int
}

func (r *collidingBookingRepo) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	r.checks++
	if r.checks <= r.collisions {
		return true, nil
	}
	return r.memBookingRepo.ReferenceExists(ctx, reference)
}

func TestNewReferenceRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	repo := &collidingBookingRepo{memBookingRepo: newMemBookingRepo(), collisions: 2}
	svc := &DefaultBookingService{Bookings: repo}

	code, err := svc.newReference(ctx)
	if err != nil {
		t.Fatalf("newReference: %v", err)
	}
	if code == "" || repo.checks != 3 {
		t.Fatalf("want success on attempt 3, got code=%q checks=%d", code, repo.checks)
	}
}

func TestNewReferenceGivesUpAfterAttempts(t *testing.T) {
	ctx := context.Background()
	repo := &collidingBookingRepo{memBookingRepo: newMemBookingRepo(), collisions: 100}
	svc := &DefaultBookingService{Bookings: repo}

	if _, err := svc.newReference(ctx); !IsConflict(err) {
		t.Fatalf("want conflict after exhausting attempts, got %v", err)
	}
}
