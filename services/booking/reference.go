package booking

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

// Reference codes avoid 0/O and 1/I so they read back unambiguously over
// the phone.
const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	referencePrefix   = "CNS"
	referenceLength   = 6
	referenceAttempts = 5
)

// newReference generates a unique human-readable booking reference,
// collision-checked against the booking store.
func (s *DefaultBookingService) newReference(ctx context.Context) (string, error) {
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		code, err := randomReference()
		if err != nil {
			return "", newInternalError("reference_generation_failed", "could not generate booking reference", err)
		}
		exists, err := s.Bookings.ReferenceExists(ctx, code)
		if err != nil {
			return "", newInternalError("reference_check_failed", "could not verify booking reference uniqueness", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", newConflictError("reference_exhausted", "could not find an unused booking reference")
}

func randomReference() (string, error) {
	buf := make([]byte, referenceLength)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%s", referencePrefix, string(buf)), nil
}
