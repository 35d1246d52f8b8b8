package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/pkg/retry"
	"github.com/muster-events/backend/internal/pkg/tokens"
	"github.com/muster-events/backend/internal/remote"
)

var (
	// ErrSubmissionInProgress rejects a double-submit while a previous
	// submission on the same pipeline is still in flight.
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrInvalidEditToken     = errors.New("edit token does not match any response")
)

type PendingRepository interface {
	Store(ctx context.Context, pending domain.PendingSubmission) (domain.PendingSubmission, error)
	FindByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.PendingSubmission, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RSVPService is the submission pipeline: enrich a validated submission,
// push it to the remote dispatcher with retries, fall back to durable local
// storage when the retry budget is exhausted, and mirror the canonical record
// locally. A validated submission is never silently dropped.
type RSVPService struct {
	eventRepo   EventRepository
	rsvpRepo    RSVPRepository
	pendingRepo PendingRepository
	submitter   remote.Submitter
	policy      RemotePolicy
	editBaseURL string

	inFlight atomic.Bool
}

func NewRSVPService(
	eventRepo EventRepository,
	rsvpRepo RSVPRepository,
	pendingRepo PendingRepository,
	submitter remote.Submitter,
	policy RemotePolicy,
	editBaseURL string,
) *RSVPService {
	return &RSVPService{
		eventRepo:   eventRepo,
		rsvpRepo:    rsvpRepo,
		pendingRepo: pendingRepo,
		submitter:   submitter,
		policy:      policy.orDefaults(),
		editBaseURL: editBaseURL,
	}
}

// Submission is a validated RSVP submission entering the pipeline. Field
// rules have already been checked at the request boundary; the pipeline
// enforces the semantic rules (edit-token matching, question ids, dedup).
type Submission struct {
	Name                string
	Email               string
	Phone               string
	Attendance          domain.Attendance
	GuestCount          int
	Reason              string
	CustomAnswers       map[string]string
	DietaryRestrictions []string
	AllergyDetails      string
	Rank                string
	Unit                string
	Branch              string

	// EditToken, when set, requests an in-place update of an existing RSVP.
	EditToken string
}

// Submit runs the pipeline for one submission.
func (s *RSVPService) Submit(ctx context.Context, eventID uuid.UUID, sub Submission) (domain.Confirmation, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return domain.Confirmation{}, ErrSubmissionInProgress
	}
	defer s.inFlight.Store(false)

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Confirmation{}, err
	}

	rsvp, isUpdate, err := s.enrich(ctx, event, sub)
	if err != nil {
		return domain.Confirmation{}, err
	}

	method := domain.MethodBackend
	if err = s.submitWithRetry(ctx, rsvp); err != nil {
		// Authorization and conflict failures abort outright; only transient
		// failures degrade to the local fallback.
		if !remote.IsTransient(err) {
			return domain.Confirmation{}, err
		}

		// Retry budget exhausted: keep a durable local copy instead of
		// dropping the submission.
		method = domain.MethodLocalFallback
		pending := domain.PendingSubmission{
			ID:        uuid.New(),
			EventID:   eventID,
			RSVP:      rsvp,
			Method:    method,
			CreatedAt: time.Now(),
		}
		if _, storeErr := s.pendingRepo.Store(ctx, pending); storeErr != nil {
			return domain.Confirmation{}, fmt.Errorf("s.pendingRepo.Store -> %w", storeErr)
		}

		zap.L().Warn("remote submission exhausted retries, stored locally",
			zap.String("event_id", eventID.String()),
			zap.String("rsvp_id", rsvp.ID.String()),
			zap.Error(err))
	}

	// Mirror the canonical record locally either way; the email unique index
	// folds a duplicate into an update.
	stored, err := s.rsvpRepo.Upsert(ctx, rsvp)
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("s.rsvpRepo.Upsert -> %w", err)
	}

	return s.confirmation(event, stored, method, isUpdate), nil
}

// enrich assigns identity, tokens and the tamper-evidence hash. In edit mode
// the existing record's identity is reused so no duplicate is created.
func (s *RSVPService) enrich(ctx context.Context, event domain.Event, sub Submission) (domain.RSVP, bool, error) {
	now := time.Now()

	rsvp := domain.RSVP{
		EventID:             event.ID,
		Name:                sub.Name,
		Email:               sub.Email,
		Phone:               sub.Phone,
		Attendance:          sub.Attendance,
		GuestCount:          sub.GuestCount,
		Reason:              sub.Reason,
		CustomAnswers:       filterAnswers(event, sub.CustomAnswers),
		DietaryRestrictions: sub.DietaryRestrictions,
		AllergyDetails:      sub.AllergyDetails,
		Rank:                sub.Rank,
		Unit:                sub.Unit,
		Branch:              sub.Branch,
		Timestamp:           now,
	}

	if sub.EditToken != "" {
		existing, err := s.rsvpRepo.FindByEditToken(ctx, event.ID, sub.EditToken)
		if err != nil {
			if errors.Is(err, ErrRSVPNotFound) {
				return domain.RSVP{}, false, ErrInvalidEditToken
			}
			return domain.RSVP{}, false, fmt.Errorf("s.rsvpRepo.FindByEditToken -> %w", err)
		}

		rsvp.ID = existing.ID
		rsvp.EditToken = existing.EditToken
		rsvp.CheckInToken = existing.CheckInToken
		rsvp.Timestamp = existing.Timestamp
		rsvp.LastModified = &now
		rsvp.ValidationHash = tokens.ValidationHash(event.ID, rsvp.Email, existing.Timestamp)

		return rsvp, true, nil
	}

	rsvp.ID = uuid.New()
	rsvp.EditToken = tokens.NewEditToken()
	rsvp.ValidationHash = tokens.ValidationHash(event.ID, rsvp.Email, now)
	if event.CheckInEnabled {
		rsvp.CheckInToken = tokens.NewCheckInToken(event.ID)
	}

	return rsvp, false, nil
}

func (s *RSVPService) submitWithRetry(ctx context.Context, rsvp domain.RSVP) error {
	return retry.Do(ctx, s.policy.Attempts, s.policy.Backoff, func() error {
		err := s.submitter.SubmitRSVP(ctx, rsvp)
		if err == nil {
			return nil
		}
		if errors.Is(err, remote.ErrAuth) || errors.Is(err, remote.ErrConflict) {
			return &retry.Permanent{Err: err}
		}

		return err
	})
}

// FindByEditToken loads an existing RSVP so the guest can pre-fill the form.
func (s *RSVPService) FindByEditToken(ctx context.Context, eventID uuid.UUID, editToken string) (domain.RSVP, error) {
	rsvp, err := s.rsvpRepo.FindByEditToken(ctx, eventID, editToken)
	if err != nil {
		if errors.Is(err, ErrRSVPNotFound) {
			return domain.RSVP{}, ErrInvalidEditToken
		}

		return domain.RSVP{}, fmt.Errorf("s.rsvpRepo.FindByEditToken -> %w", err)
	}

	return rsvp, nil
}

func (s *RSVPService) confirmation(event domain.Event, rsvp domain.RSVP, method domain.SubmissionMethod, isUpdate bool) domain.Confirmation {
	conf := domain.Confirmation{
		RSVPID:         rsvp.ID,
		Method:         method,
		ValidationHash: rsvp.ValidationHash,
		IsUpdate:       isUpdate,
		Attending:      rsvp.Attendance.Attending(),
	}

	if conf.Attending {
		conf.EditURL = fmt.Sprintf("%s/events/%s/rsvp?token=%s", s.editBaseURL, event.ID, rsvp.EditToken)
		if rsvp.CheckInToken != "" {
			conf.CheckInPayload = fmt.Sprintf("%s|%s", event.ID, rsvp.CheckInToken)
		}
	}

	return conf
}

// filterAnswers drops answers to questions the event does not declare.
func filterAnswers(event domain.Event, answers map[string]string) map[string]string {
	if len(answers) == 0 {
		return nil
	}

	filtered := make(map[string]string, len(answers))
	for id, answer := range answers {
		if event.HasQuestion(id) {
			filtered[id] = answer
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	return filtered
}
