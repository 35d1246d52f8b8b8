package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/remote"
	"github.com/muster-events/backend/internal/repository"
)

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]domain.Event
}

func newFakeEventRepo(events ...domain.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: make(map[uuid.UUID]domain.Event)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *fakeEventRepo) Create(_ context.Context, event domain.Event) (domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.ID] = event
	return event, nil
}

func (r *fakeEventRepo) Save(ctx context.Context, event domain.Event) (domain.Event, error) {
	return r.Create(ctx, event)
}

func (r *fakeEventRepo) Update(_ context.Context, event domain.Event) (domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	r.events[event.ID] = event
	return event, nil
}

func (r *fakeEventRepo) FindByID(_ context.Context, id uuid.UUID) (domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	return event, nil
}

func (r *fakeEventRepo) FindAll(_ context.Context) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEventRepo) FindByCreator(_ context.Context, userID uint) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.CreatedBy == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return repository.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

// fakeRSVPRepo mimics the email unique index: an upsert for an existing
// event+email pair folds into an update preserving identity.
type fakeRSVPRepo struct {
	mu    sync.Mutex
	rsvps map[uuid.UUID]domain.RSVP
}

func newFakeRSVPRepo(rsvps ...domain.RSVP) *fakeRSVPRepo {
	r := &fakeRSVPRepo{rsvps: make(map[uuid.UUID]domain.RSVP)}
	for _, rv := range rsvps {
		r.rsvps[rv.ID] = rv
	}
	return r
}

func (r *fakeRSVPRepo) Upsert(_ context.Context, rsvp domain.RSVP) (domain.RSVP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rsvp.Email = strings.ToLower(rsvp.Email)
	for id, existing := range r.rsvps {
		if existing.EventID == rsvp.EventID && existing.Email == rsvp.Email && id != rsvp.ID {
			rsvp.ID = existing.ID
			rsvp.EditToken = existing.EditToken
			break
		}
	}
	r.rsvps[rsvp.ID] = rsvp
	return rsvp, nil
}

func (r *fakeRSVPRepo) FindByID(_ context.Context, id uuid.UUID) (domain.RSVP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rsvp, ok := r.rsvps[id]
	if !ok {
		return domain.RSVP{}, repository.ErrRSVPNotFound
	}
	return rsvp, nil
}

func (r *fakeRSVPRepo) FindByEmail(_ context.Context, eventID uuid.UUID, email string) (domain.RSVP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(email)
	for _, rsvp := range r.rsvps {
		if rsvp.EventID == eventID && rsvp.Email == email {
			return rsvp, nil
		}
	}
	return domain.RSVP{}, repository.ErrRSVPNotFound
}

func (r *fakeRSVPRepo) FindByEditToken(_ context.Context, eventID uuid.UUID, editToken string) (domain.RSVP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rsvp := range r.rsvps {
		if rsvp.EventID == eventID && rsvp.EditToken == editToken {
			return rsvp, nil
		}
	}
	return domain.RSVP{}, repository.ErrRSVPNotFound
}

func (r *fakeRSVPRepo) FindByCheckInToken(_ context.Context, eventID uuid.UUID, token string) (domain.RSVP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rsvp := range r.rsvps {
		if rsvp.EventID == eventID && rsvp.CheckInToken == token {
			return rsvp, nil
		}
	}
	return domain.RSVP{}, repository.ErrRSVPNotFound
}

func (r *fakeRSVPRepo) FindByEvent(_ context.Context, eventID uuid.UUID) ([]domain.RSVP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.RSVP
	for _, rsvp := range r.rsvps {
		if rsvp.EventID == eventID {
			out = append(out, rsvp)
		}
	}
	return out, nil
}

func (r *fakeRSVPRepo) Update(_ context.Context, rsvp domain.RSVP) (domain.RSVP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rsvps[rsvp.ID]; !ok {
		return domain.RSVP{}, repository.ErrRSVPNotFound
	}
	r.rsvps[rsvp.ID] = rsvp
	return rsvp, nil
}

func (r *fakeRSVPRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rsvps[id]; !ok {
		return repository.ErrRSVPNotFound
	}
	delete(r.rsvps, id)
	return nil
}

func (r *fakeRSVPRepo) ReplaceForEvent(_ context.Context, eventID uuid.UUID, rsvps []domain.RSVP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rsvp := range r.rsvps {
		if rsvp.EventID == eventID {
			delete(r.rsvps, id)
		}
	}
	for _, rsvp := range rsvps {
		rsvp.Email = strings.ToLower(rsvp.Email)
		r.rsvps[rsvp.ID] = rsvp
	}
	return nil
}

func (r *fakeRSVPRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rsvps)
}

type fakePendingRepo struct {
	mu      sync.Mutex
	pending []domain.PendingSubmission
}

func (r *fakePendingRepo) Store(_ context.Context, p domain.PendingSubmission) (domain.PendingSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, p)
	return p, nil
}

func (r *fakePendingRepo) FindByEvent(_ context.Context, eventID uuid.UUID) ([]domain.PendingSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PendingSubmission
	for _, p := range r.pending {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePendingRepo) CountByEvent(_ context.Context, eventID uuid.UUID) (int64, error) {
	found, _ := r.FindByEvent(context.Background(), eventID)
	return int64(len(found)), nil
}

func (r *fakePendingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.pending {
		if p.ID == id {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return nil
		}
	}
	return ErrPendingNotFound
}

func (r *fakePendingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// fakeSubmitter fails with the scripted errors in order, then succeeds.
type fakeSubmitter struct {
	mu      sync.Mutex
	scripts []error
	calls   int
}

func (s *fakeSubmitter) SubmitRSVP(_ context.Context, _ domain.RSVP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.scripts) == 0 {
		return nil
	}
	err := s.scripts[0]
	s.scripts = s.scripts[1:]
	return err
}

func (s *fakeSubmitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeStore struct {
	mu        sync.Mutex
	events    map[uuid.UUID]domain.Event
	responses map[uuid.UUID][]domain.RSVP

	loadEventsErr error
	saveEventErr  error
	saveRespErr   error

	savedEvents   int
	savedResps    int
	deletedEvents []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:    make(map[uuid.UUID]domain.Event),
		responses: make(map[uuid.UUID][]domain.RSVP),
	}
}

func (s *fakeStore) LoadEvents(_ context.Context) (map[uuid.UUID]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadEventsErr != nil {
		return nil, s.loadEventsErr
	}
	out := make(map[uuid.UUID]domain.Event, len(s.events))
	for id, e := range s.events {
		out[id] = e
	}
	return out, nil
}

func (s *fakeStore) LoadResponses(_ context.Context) (map[uuid.UUID][]domain.RSVP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID][]domain.RSVP, len(s.responses))
	for id, r := range s.responses {
		out[id] = append([]domain.RSVP(nil), r...)
	}
	return out, nil
}

func (s *fakeStore) SaveEvent(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveEventErr != nil {
		return s.saveEventErr
	}
	s.events[event.ID] = event
	s.savedEvents++
	return nil
}

func (s *fakeStore) SaveResponses(_ context.Context, eventID uuid.UUID, responses []domain.RSVP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveRespErr != nil {
		return s.saveRespErr
	}
	s.responses[eventID] = append([]domain.RSVP(nil), responses...)
	s.savedResps++
	return nil
}

func (s *fakeStore) DeleteEvent(_ context.Context, eventID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, eventID)
	delete(s.responses, eventID)
	s.deletedEvents = append(s.deletedEvents, eventID)
	return nil
}

type fakeIntake struct {
	mu        sync.Mutex
	entries   []remote.IntakeEntry
	processed []string
}

func (q *fakeIntake) ListPending(_ context.Context) ([]remote.IntakeEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]remote.IntakeEntry(nil), q.entries...), nil
}

func (q *fakeIntake) MarkProcessed(_ context.Context, entry remote.IntakeEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processed = append(q.processed, entry.ID)
	return nil
}
