// Package remote talks to the Git-hosted JSON data store and its companion
// intake queue. The store is a key-value blob store with file-level optimistic
// concurrency: every write is conditional on the content version (SHA) last
// read for that file.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/muster-events/backend/internal/domain"
)

var (
	ErrNotFound = errors.New("remote: not found")
	// ErrConflict means the write carried a stale version token. Callers must
	// reload current state before retrying; retrying blindly would clobber a
	// concurrent change.
	ErrConflict    = errors.New("remote: stale version token")
	ErrAuth        = errors.New("remote: unauthorized")
	ErrRateLimited = errors.New("remote: rate limited")
	ErrUnavailable = errors.New("remote: service unavailable")
)

// CategorizeStatus maps an HTTP-style status code onto the error taxonomy.
func CategorizeStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrAuth
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusConflict || code == http.StatusPreconditionFailed || code == http.StatusUnprocessableEntity:
		return ErrConflict
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code >= 500:
		return ErrUnavailable
	default:
		return fmt.Errorf("remote: unexpected status %v", code)
	}
}

// IsTransient reports whether an error is worth retrying. Authorization and
// conflict failures are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		return false
	}

	return true
}

// Store is the remote blob store holding the canonical event and response
// collections. Eventually consistent; writers can race, last write wins at
// the file level.
type Store interface {
	LoadEvents(ctx context.Context) (map[uuid.UUID]domain.Event, error)
	LoadResponses(ctx context.Context) (map[uuid.UUID][]domain.RSVP, error)
	SaveEvent(ctx context.Context, event domain.Event) error
	SaveResponses(ctx context.Context, eventID uuid.UUID, responses []domain.RSVP) error
	DeleteEvent(ctx context.Context, eventID uuid.UUID) error
}

// Submitter performs the RSVP write against the backend dispatch endpoint.
type Submitter interface {
	SubmitRSVP(ctx context.Context, rsvp domain.RSVP) error
}

// IntakeEntry is a submitted-but-not-yet-canonical RSVP payload awaiting a
// sync pass.
type IntakeEntry struct {
	ID        string      `json:"id"`
	RSVP      domain.RSVP `json:"rsvp"`
	Processed bool        `json:"processed"`
}

// IntakeQueue is the asynchronous inbox of RSVP submissions.
type IntakeQueue interface {
	ListPending(ctx context.Context) ([]IntakeEntry, error)
	MarkProcessed(ctx context.Context, entry IntakeEntry) error
}
