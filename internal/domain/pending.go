package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionMethod records which path accepted an RSVP.
type SubmissionMethod string

const (
	// MethodBackend is the fast path: the remote dispatcher accepted the submission.
	MethodBackend SubmissionMethod = "secure_backend"
	// MethodLocalFallback means remote submission exhausted its retries and the
	// RSVP was stored locally, awaiting a manual organizer sync.
	MethodLocalFallback SubmissionMethod = "local_storage"
)

// PendingSubmission is an RSVP that could not be delivered remotely. Pending
// entries are deduplicated by email within an event; a newer submission for
// the same address replaces the older one.
type PendingSubmission struct {
	ID        uuid.UUID        `json:"id"`
	EventID   uuid.UUID        `json:"event_id"`
	RSVP      RSVP             `json:"rsvp"`
	Method    SubmissionMethod `json:"submission_method"`
	CreatedAt time.Time        `json:"created_at"`
}

// Confirmation is the view-model returned to a submitter.
type Confirmation struct {
	RSVPID         uuid.UUID        `json:"rsvp_id"`
	Method         SubmissionMethod `json:"submission_method"`
	ValidationHash string           `json:"validation_hash"`
	IsUpdate       bool             `json:"is_update"`
	Attending      bool             `json:"attending"`
	EditURL        string           `json:"edit_url,omitempty"`
	CheckInPayload string           `json:"check_in_payload,omitempty"`
}
