package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/pkg/retry"
	"github.com/muster-events/backend/internal/remote"
	"github.com/muster-events/backend/internal/repository"
	"github.com/muster-events/backend/internal/stats"
)

var (
	ErrEventNotFound   = repository.ErrEventNotFound
	ErrRSVPNotFound    = repository.ErrRSVPNotFound
	ErrPendingNotFound = repository.ErrPendingNotFound
	// ErrNotEventOwner is returned whenever a mutating operation is attempted
	// by anyone but the event's creator. Never retried.
	ErrNotEventOwner = errors.New("user does not own this event")
	// ErrRemoteConflict surfaces a stale-version rejection from the remote
	// store. The caller must reload before retrying.
	ErrRemoteConflict = remote.ErrConflict
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	Save(ctx context.Context, event domain.Event) (domain.Event, error)
	Update(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Event, error)
	FindAll(ctx context.Context) ([]domain.Event, error)
	FindByCreator(ctx context.Context, userID uint) ([]domain.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type RSVPRepository interface {
	Upsert(ctx context.Context, rsvp domain.RSVP) (domain.RSVP, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.RSVP, error)
	FindByEmail(ctx context.Context, eventID uuid.UUID, email string) (domain.RSVP, error)
	FindByEditToken(ctx context.Context, eventID uuid.UUID, editToken string) (domain.RSVP, error)
	FindByCheckInToken(ctx context.Context, eventID uuid.UUID, token string) (domain.RSVP, error)
	FindByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.RSVP, error)
	Update(ctx context.Context, rsvp domain.RSVP) (domain.RSVP, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceForEvent(ctx context.Context, eventID uuid.UUID, rsvps []domain.RSVP) error
}

// RemotePolicy is the shared retry budget for remote writes.
type RemotePolicy struct {
	Attempts int
	Backoff  time.Duration
}

func (p RemotePolicy) orDefaults() RemotePolicy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Backoff <= 0 {
		p.Backoff = 2 * time.Second
	}

	return p
}

type EventService struct {
	repo     EventRepository
	rsvpRepo RSVPRepository
	store    remote.Store
	policy   RemotePolicy
}

func NewEventService(repo EventRepository, rsvpRepo RSVPRepository, store remote.Store, policy RemotePolicy) *EventService {
	return &EventService{
		repo:     repo,
		rsvpRepo: rsvpRepo,
		store:    store,
		policy:   policy.orDefaults(),
	}
}

// UserOwnsEvent is the authorization predicate gating every mutating
// operation. Matching is case-sensitive on both the creator id and the
// creator username; a zero-value user never owns anything.
func (s *EventService) UserOwnsEvent(event domain.Event, user domain.User) bool {
	if user.ID == 0 {
		return false
	}
	if event.CreatedBy != 0 && event.CreatedBy == user.ID {
		return true
	}

	return event.CreatedByUsername != "" && event.CreatedByUsername == user.Username
}

func (s *EventService) guardOwner(ctx context.Context, eventID uuid.UUID, user domain.User) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}

	if !s.UserOwnsEvent(event, user) {
		return domain.Event{}, ErrNotEventOwner
	}

	return event, nil
}

func (s *EventService) CreateEvent(ctx context.Context, event domain.Event, user domain.User) (domain.Event, error) {
	if user.ID == 0 {
		return domain.Event{}, ErrNotEventOwner
	}

	event.ID = uuid.New()
	event.CreatedBy = user.ID
	event.CreatedByUsername = user.Username
	event.Status = "active"
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	if err = s.pushEvent(ctx, created); err != nil {
		return domain.Event{}, err
	}

	return created, nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID uuid.UUID) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}

	return event, nil
}

// ListEventsFor returns only the events the user owns. Filtering happens
// before any stats computation or rendering.
func (s *EventService) ListEventsFor(ctx context.Context, user domain.User) ([]domain.Event, error) {
	if user.ID == 0 {
		return nil, ErrNotEventOwner
	}

	events, err := s.repo.FindByCreator(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByCreator -> %w", err)
	}

	return events, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, event domain.Event, user domain.User) (domain.Event, error) {
	existing, err := s.guardOwner(ctx, event.ID, user)
	if err != nil {
		return domain.Event{}, err
	}

	// Identity and ownership fields are immutable.
	event.CreatedBy = existing.CreatedBy
	event.CreatedByUsername = existing.CreatedByUsername
	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = time.Now()

	updated, err := s.repo.Update(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	if err = s.pushEvent(ctx, updated); err != nil {
		return domain.Event{}, err
	}

	return updated, nil
}

// DeleteEvent removes the event and cascades to its response collection,
// locally and remotely.
func (s *EventService) DeleteEvent(ctx context.Context, eventID uuid.UUID, user domain.User) error {
	if _, err := s.guardOwner(ctx, eventID, user); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	err := retry.Do(ctx, s.policy.Attempts, s.policy.Backoff, func() error {
		if err := s.store.DeleteEvent(ctx, eventID); err != nil {
			if !remote.IsTransient(err) {
				return &retry.Permanent{Err: err}
			}
			return err
		}
		return nil
	})
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		// Local state is already gone; the next sync reconciles the remainder.
		zap.L().Warn("remote delete failed after event removal",
			zap.String("event_id", eventID.String()),
			zap.Error(err))
	}

	return nil
}

func (s *EventService) GetResponses(ctx context.Context, eventID uuid.UUID, user domain.User) ([]domain.RSVP, error) {
	if _, err := s.guardOwner(ctx, eventID, user); err != nil {
		return nil, err
	}

	responses, err := s.rsvpRepo.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.rsvpRepo.FindByEvent -> %w", err)
	}

	return responses, nil
}

func (s *EventService) GetStats(ctx context.Context, eventID uuid.UUID) (stats.Stats, error) {
	responses, err := s.rsvpRepo.FindByEvent(ctx, eventID)
	if err != nil {
		return stats.Stats{}, fmt.Errorf("s.rsvpRepo.FindByEvent -> %w", err)
	}

	return stats.Compute(responses), nil
}

// ImportRoster adds invited-but-unresponded entries for the response-rate
// baseline. Roster entries never pass through the submission pipeline.
func (s *EventService) ImportRoster(ctx context.Context, eventID uuid.UUID, user domain.User, entries []domain.RSVP) (int, error) {
	if _, err := s.guardOwner(ctx, eventID, user); err != nil {
		return 0, err
	}

	imported := 0
	for _, entry := range entries {
		entry.ID = uuid.New()
		entry.EventID = eventID
		entry.Attendance = domain.AttendanceInvited
		entry.GuestCount = 0
		entry.Timestamp = time.Now()

		if _, err := s.rsvpRepo.Upsert(ctx, entry); err != nil {
			return imported, fmt.Errorf("s.rsvpRepo.Upsert -> %w", err)
		}
		imported++
	}

	return imported, nil
}

// DeleteResponse removes an RSVP. Only the event owner may do this; the
// submitter can update via edit token but never delete.
func (s *EventService) DeleteResponse(ctx context.Context, eventID, rsvpID uuid.UUID, user domain.User) error {
	if _, err := s.guardOwner(ctx, eventID, user); err != nil {
		return err
	}

	rsvp, err := s.rsvpRepo.FindByID(ctx, rsvpID)
	if err != nil {
		return err
	}
	if rsvp.EventID != eventID {
		return ErrRSVPNotFound
	}

	if err = s.rsvpRepo.Delete(ctx, rsvpID); err != nil {
		return fmt.Errorf("s.rsvpRepo.Delete -> %w", err)
	}

	return nil
}

// CheckIn marks an attendee present by check-in token.
func (s *EventService) CheckIn(ctx context.Context, eventID uuid.UUID, token string, user domain.User) (domain.RSVP, bool, error) {
	if _, err := s.guardOwner(ctx, eventID, user); err != nil {
		return domain.RSVP{}, false, err
	}

	rsvp, err := s.rsvpRepo.FindByCheckInToken(ctx, eventID, token)
	if err != nil {
		return domain.RSVP{}, false, err
	}

	// A repeat scan reports the earlier check-in instead of overwriting it.
	if rsvp.CheckedInAt != nil {
		return rsvp, true, nil
	}

	now := time.Now()
	rsvp.CheckedInAt = &now

	updated, err := s.rsvpRepo.Update(ctx, rsvp)
	if err != nil {
		return domain.RSVP{}, false, fmt.Errorf("s.rsvpRepo.Update -> %w", err)
	}

	return updated, false, nil
}

// ExportResponsesCSV renders the event's responses as CSV for the owner.
func (s *EventService) ExportResponsesCSV(ctx context.Context, eventID uuid.UUID, user domain.User) (string, error) {
	responses, err := s.GetResponses(ctx, eventID, user)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write([]string{"Name", "Email", "Phone", "Attending", "Guests", "Party Size", "Rank", "Unit", "Branch", "Dietary", "Submitted"})
	for i := range responses {
		r := &responses[i]

		attending := ""
		switch r.Attendance {
		case domain.AttendanceYes:
			attending = "Yes"
		case domain.AttendanceNo:
			attending = "No"
		case domain.AttendanceInvited:
			attending = "No Response"
		}

		_ = w.Write([]string{
			r.Name,
			r.Email,
			r.Phone,
			attending,
			strconv.Itoa(r.GuestCount),
			strconv.Itoa(r.PartySize()),
			r.Rank,
			r.Unit,
			r.Branch,
			strings.Join(r.DietaryRestrictions, "; "),
			r.Timestamp.Format(time.RFC3339),
		})
	}
	w.Flush()

	if err = w.Error(); err != nil {
		return "", fmt.Errorf("csv.Write -> %w", err)
	}

	return sb.String(), nil
}

// pushEvent mirrors an event to the remote store through the shared retry
// policy. Conflicts are surfaced untouched so the caller can reload.
func (s *EventService) pushEvent(ctx context.Context, event domain.Event) error {
	err := retry.Do(ctx, s.policy.Attempts, s.policy.Backoff, func() error {
		if err := s.store.SaveEvent(ctx, event); err != nil {
			if !remote.IsTransient(err) {
				return &retry.Permanent{Err: err}
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, remote.ErrConflict) {
			return ErrRemoteConflict
		}
		return fmt.Errorf("s.store.SaveEvent -> %w", err)
	}

	return nil
}
