// Package reference builds and parses checkout references. The reference
// is the only piece of our state that round-trips through a payment
// provider, so its format is fixed: <namespace>_<reservationID>_<unixMillis>.
// The namespace distinguishes seat-reservation checkouts from any other
// payment flow sharing the same provider account.
package reference

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Namespace prefixes every seat-reservation checkout reference
const Namespace = "seat"

// Build constructs a globally unique reference for a reservation checkout
func Build(reservationID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", Namespace, reservationID, at.UnixMilli())
}

// Parse extracts the reservation id from a reference. Returns false for
// references from other flows or malformed input; callers treat that as
// reservation-not-resolvable, not as a hard error.
func Parse(ref string) (reservationID string, ok bool) {
	parts := strings.Split(ref, "_")
	if len(parts) != 3 || parts[0] != Namespace {
		return "", false
	}
	if _, err := uuid.Parse(parts[1]); err != nil {
		return "", false
	}
	if _, err := strconv.ParseInt(parts[2], 10, 64); err != nil {
		return "", false
	}
	return parts[1], true
}
