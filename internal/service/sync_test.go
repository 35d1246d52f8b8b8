package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/remote"
)

func TestSyncRun_RejectsConcurrentRun(t *testing.T) {
	svc := NewSyncService(newFakeStore(), &fakeIntake{}, newFakeEventRepo(), newFakeRSVPRepo(), &fakePendingRepo{}, testPolicy())

	svc.inFlight.Store(true)
	defer svc.inFlight.Store(false)

	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
	assert.True(t, svc.InProgress())
}

func TestSyncRun_PullsRemoteStateIntoLocalDB(t *testing.T) {
	event := testEvent()
	guest := attendee("Jane Doe", 1)
	guest.EventID = event.ID

	store := newFakeStore()
	store.events[event.ID] = event
	store.responses[event.ID] = []domain.RSVP{guest}

	eventRepo := newFakeEventRepo()
	rsvpRepo := newFakeRSVPRepo()
	svc := NewSyncService(store, &fakeIntake{}, eventRepo, rsvpRepo, &fakePendingRepo{}, testPolicy())

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.EventsLoaded)

	pulled, err := eventRepo.FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Title, pulled.Title)

	responses, err := rsvpRepo.FindByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, guest.ID, responses[0].ID)
}

func TestSyncRun_PromotesIntakeEntries(t *testing.T) {
	event := testEvent()

	a := attendee("A", 0)
	a.EventID = event.ID
	b := attendee("B", 2)
	b.EventID = event.ID

	store := newFakeStore()
	store.events[event.ID] = event

	intake := &fakeIntake{entries: []remote.IntakeEntry{
		{ID: "101", RSVP: a},
		{ID: "102", RSVP: b},
	}}

	rsvpRepo := newFakeRSVPRepo()
	svc := NewSyncService(store, intake, newFakeEventRepo(), rsvpRepo, &fakePendingRepo{}, testPolicy())

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.IntakePromoted)
	assert.Zero(t, report.IntakeSkipped)

	// Both entries became canonical RSVPs, were pushed back to the remote
	// store, and were acknowledged on the queue.
	assert.Equal(t, 2, rsvpRepo.count())
	assert.Equal(t, []string{"101", "102"}, intake.processed)
	assert.Equal(t, 1, store.savedResps)
	require.Len(t, store.responses[event.ID], 2)
}

func TestSyncRun_SurvivesRemoteOutage(t *testing.T) {
	store := newFakeStore()
	store.loadEventsErr = remote.ErrUnavailable

	a := attendee("A", 0)
	a.EventID = uuid.New()
	intake := &fakeIntake{entries: []remote.IntakeEntry{{ID: "7", RSVP: a}}}

	rsvpRepo := newFakeRSVPRepo()
	svc := NewSyncService(store, intake, newFakeEventRepo(), rsvpRepo, &fakePendingRepo{}, testPolicy())

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	// The pull degraded but the intake drain still ran.
	assert.Zero(t, report.EventsLoaded)
	assert.Equal(t, 1, report.IntakePromoted)
	assert.Equal(t, 1, rsvpRepo.count())
}

func TestSyncRun_NoIntakeConfigured(t *testing.T) {
	svc := NewSyncService(newFakeStore(), nil, newFakeEventRepo(), newFakeRSVPRepo(), &fakePendingRepo{}, testPolicy())

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.IntakePromoted)
}

func TestSyncRun_ReleasesFlagAfterRun(t *testing.T) {
	svc := NewSyncService(newFakeStore(), &fakeIntake{}, newFakeEventRepo(), newFakeRSVPRepo(), &fakePendingRepo{}, testPolicy())

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, svc.InProgress())

	// And a second run is accepted.
	_, err = svc.Run(context.Background())
	assert.NoError(t, err)
}

func TestSyncPendingCount(t *testing.T) {
	event := testEvent()

	a := attendee("A", 0)
	a.EventID = event.ID
	b := attendee("B", 2)
	b.EventID = event.ID

	intake := &fakeIntake{entries: []remote.IntakeEntry{
		{ID: "101", RSVP: a},
		{ID: "102", RSVP: b},
	}}

	// A fallback-stored submission counts toward the nudge as well.
	c := attendee("C", 1)
	c.EventID = event.ID
	pendingRepo := &fakePendingRepo{}
	_, err := pendingRepo.Store(context.Background(), domain.PendingSubmission{
		ID:      uuid.New(),
		EventID: event.ID,
		RSVP:    c,
		Method:  domain.MethodLocalFallback,
	})
	require.NoError(t, err)

	svc := NewSyncService(newFakeStore(), intake, newFakeEventRepo(event), newFakeRSVPRepo(), pendingRepo, testPolicy())

	count, err := svc.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSyncPendingCount_NoIntakeConfigured(t *testing.T) {
	svc := NewSyncService(newFakeStore(), nil, newFakeEventRepo(), newFakeRSVPRepo(), &fakePendingRepo{}, testPolicy())

	count, err := svc.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

// A submission that exhausted its retries must reappear in the canonical
// store after the owner syncs, even though the pull replaces the local
// collection with the remote one.
func TestSyncRun_PromotesFallbackSubmissions(t *testing.T) {
	event := testEvent()

	eventRepo := newFakeEventRepo(event)
	rsvpRepo := newFakeRSVPRepo()
	pendingRepo := &fakePendingRepo{}

	submitter := &fakeSubmitter{scripts: []error{remote.ErrUnavailable, remote.ErrUnavailable, remote.ErrUnavailable}}
	pipeline := NewRSVPService(eventRepo, rsvpRepo, pendingRepo, submitter, testPolicy(), "https://muster.test")

	conf, err := pipeline.Submit(context.Background(), event.ID, submission("Jane Doe", "jane@example.com"))
	require.NoError(t, err)
	require.Equal(t, domain.MethodLocalFallback, conf.Method)
	require.Equal(t, 1, pendingRepo.count())

	// The remote store knows the event but never saw the response.
	store := newFakeStore()
	store.events[event.ID] = event

	svc := NewSyncService(store, nil, eventRepo, rsvpRepo, pendingRepo, testPolicy())
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.PendingPromoted)

	// Canonical store, remote collection and pending table all reconciled.
	responses, err := rsvpRepo.FindByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, conf.RSVPID, responses[0].ID)

	require.Len(t, store.responses[event.ID], 1)
	assert.Equal(t, "jane@example.com", store.responses[event.ID][0].Email)
	assert.Zero(t, pendingRepo.count())
}

// A pending row survives a sync pass whose remote save fails, so a later
// pass can retry it.
func TestSyncRun_KeepsPendingWhenRemoteSaveFails(t *testing.T) {
	event := testEvent()
	guest := attendee("Jane Doe", 1)
	guest.EventID = event.ID

	eventRepo := newFakeEventRepo(event)
	pendingRepo := &fakePendingRepo{}
	_, err := pendingRepo.Store(context.Background(), domain.PendingSubmission{
		ID:      uuid.New(),
		EventID: event.ID,
		RSVP:    guest,
		Method:  domain.MethodLocalFallback,
	})
	require.NoError(t, err)

	store := newFakeStore()
	store.events[event.ID] = event
	store.saveRespErr = remote.ErrAuth

	svc := NewSyncService(store, nil, eventRepo, newFakeRSVPRepo(), pendingRepo, testPolicy())
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.PendingPromoted)

	assert.Equal(t, 1, pendingRepo.count())
}
