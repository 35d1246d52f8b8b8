// Package tokens generates the capability tokens and tamper-evidence hashes
// attached to RSVPs.
package tokens

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewEditToken returns a capability string granting update rights to a single
// RSVP without full authentication.
func NewEditToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewCheckInToken returns the token embedded in a check-in QR payload.
func NewCheckInToken(eventID uuid.UUID) string {
	return fmt.Sprintf("chk-%s-%s", eventID.String()[:8], strings.ReplaceAll(uuid.New().String(), "-", "")[:16])
}

// ValidationHash derives the tamper-evidence hash stored on every RSVP.
// FNV-1a, not cryptographic: the contract is determinism and a low collision
// rate, nothing more.
func ValidationHash(eventID uuid.UUID, email string, timestamp time.Time) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d", eventID, strings.ToLower(email), timestamp.UnixMilli())

	return fmt.Sprintf("%016x", h.Sum64())
}
