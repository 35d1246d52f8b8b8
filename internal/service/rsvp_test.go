package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/remote"
)

func testPolicy() RemotePolicy {
	return RemotePolicy{Attempts: 3, Backoff: time.Millisecond}
}

func testEvent() domain.Event {
	return domain.Event{
		ID:             uuid.New(),
		Title:          "Unit Dining Out",
		CheckInEnabled: true,
		CustomQuestions: []domain.CustomQuestion{
			{ID: "meal", Question: "Meal choice", Type: "select", Options: []string{"Beef", "Fish"}},
		},
	}
}

func newTestRSVPService(event domain.Event, submitter *fakeSubmitter) (*RSVPService, *fakeRSVPRepo, *fakePendingRepo) {
	eventRepo := newFakeEventRepo(event)
	rsvpRepo := newFakeRSVPRepo()
	pendingRepo := &fakePendingRepo{}
	svc := NewRSVPService(eventRepo, rsvpRepo, pendingRepo, submitter, testPolicy(), "https://muster.test")

	return svc, rsvpRepo, pendingRepo
}

func submission(name, email string) Submission {
	return Submission{
		Name:       name,
		Email:      email,
		Attendance: domain.AttendanceYes,
		GuestCount: 1,
	}
}

func TestSubmit_FirstAttemptSucceeds(t *testing.T) {
	event := testEvent()
	submitter := &fakeSubmitter{}
	svc, rsvpRepo, pendingRepo := newTestRSVPService(event, submitter)

	conf, err := svc.Submit(context.Background(), event.ID, submission("Jane Doe", "jane@example.com"))
	require.NoError(t, err)

	assert.Equal(t, 1, submitter.callCount())
	assert.Equal(t, domain.MethodBackend, conf.Method)
	assert.False(t, conf.IsUpdate)
	assert.True(t, conf.Attending)
	assert.NotEmpty(t, conf.ValidationHash)
	assert.Contains(t, conf.EditURL, fmt.Sprintf("https://muster.test/events/%s/rsvp?token=", event.ID))
	assert.Contains(t, conf.CheckInPayload, event.ID.String()+"|")

	assert.Equal(t, 1, rsvpRepo.count())
	assert.Empty(t, pendingRepo.pending)
}

func TestSubmit_TransientFailureThenSuccess(t *testing.T) {
	event := testEvent()
	submitter := &fakeSubmitter{scripts: []error{remote.ErrUnavailable}}
	svc, rsvpRepo, pendingRepo := newTestRSVPService(event, submitter)

	conf, err := svc.Submit(context.Background(), event.ID, submission("Jane Doe", "jane@example.com"))
	require.NoError(t, err)

	assert.Equal(t, 2, submitter.callCount())
	assert.Equal(t, domain.MethodBackend, conf.Method)
	assert.Equal(t, 1, rsvpRepo.count())
	assert.Empty(t, pendingRepo.pending)
}

func TestSubmit_ExhaustedRetriesFallBackLocally(t *testing.T) {
	event := testEvent()
	submitter := &fakeSubmitter{scripts: []error{remote.ErrUnavailable, remote.ErrUnavailable, remote.ErrUnavailable}}
	svc, rsvpRepo, pendingRepo := newTestRSVPService(event, submitter)

	conf, err := svc.Submit(context.Background(), event.ID, submission("Jane Doe", "jane@example.com"))
	require.NoError(t, err)

	assert.Equal(t, 3, submitter.callCount())
	assert.Equal(t, domain.MethodLocalFallback, conf.Method)

	// The submission survives in both the pending table and the local mirror.
	require.Len(t, pendingRepo.pending, 1)
	assert.Equal(t, event.ID, pendingRepo.pending[0].EventID)
	assert.Equal(t, domain.MethodLocalFallback, pendingRepo.pending[0].Method)
	assert.Equal(t, 1, rsvpRepo.count())
}

func TestSubmit_AuthFailureAbortsWithoutFallback(t *testing.T) {
	event := testEvent()
	submitter := &fakeSubmitter{scripts: []error{remote.ErrAuth, remote.ErrAuth, remote.ErrAuth}}
	svc, rsvpRepo, pendingRepo := newTestRSVPService(event, submitter)

	_, err := svc.Submit(context.Background(), event.ID, submission("Jane Doe", "jane@example.com"))
	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrAuth)

	// Permanent errors stop after the first attempt and store nothing.
	assert.Equal(t, 1, submitter.callCount())
	assert.Empty(t, pendingRepo.pending)
	assert.Equal(t, 0, rsvpRepo.count())
}

func TestSubmit_DuplicateEmailFoldsIntoUpdate(t *testing.T) {
	event := testEvent()
	svc, rsvpRepo, _ := newTestRSVPService(event, &fakeSubmitter{})

	first, err := svc.Submit(context.Background(), event.ID, submission("Jane Doe", "jane@example.com"))
	require.NoError(t, err)

	// Same address, different case: no second record appears.
	again := submission("Jane Doe", "JANE@Example.com")
	again.GuestCount = 3
	second, err := svc.Submit(context.Background(), event.ID, again)
	require.NoError(t, err)

	assert.Equal(t, 1, rsvpRepo.count())
	assert.Equal(t, first.RSVPID, second.RSVPID)

	stored, err := rsvpRepo.FindByEmail(context.Background(), event.ID, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.GuestCount)
}

func TestSubmit_EditTokenUpdatesInPlace(t *testing.T) {
	event := testEvent()
	svc, rsvpRepo, _ := newTestRSVPService(event, &fakeSubmitter{})

	_, err := svc.Submit(context.Background(), event.ID, submission("Jane Doe", "jane@example.com"))
	require.NoError(t, err)

	original, err := rsvpRepo.FindByEmail(context.Background(), event.ID, "jane@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, original.EditToken)

	update := submission("Jane Doe", "jane@example.com")
	update.GuestCount = 4
	update.EditToken = original.EditToken

	conf, err := svc.Submit(context.Background(), event.ID, update)
	require.NoError(t, err)
	assert.True(t, conf.IsUpdate)
	assert.Equal(t, original.ID, conf.RSVPID)

	updated, err := rsvpRepo.FindByID(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.GuestCount)
	assert.Equal(t, original.EditToken, updated.EditToken)
	assert.Equal(t, original.CheckInToken, updated.CheckInToken)
	require.NotNil(t, updated.LastModified)
	assert.Equal(t, 1, rsvpRepo.count())
}

func TestSubmit_UnknownEditTokenRejected(t *testing.T) {
	event := testEvent()
	svc, _, _ := newTestRSVPService(event, &fakeSubmitter{})

	sub := submission("Jane Doe", "jane@example.com")
	sub.EditToken = "nonexistent"

	_, err := svc.Submit(context.Background(), event.ID, sub)
	assert.ErrorIs(t, err, ErrInvalidEditToken)
}

func TestSubmit_DropsUndeclaredCustomAnswers(t *testing.T) {
	event := testEvent()
	svc, rsvpRepo, _ := newTestRSVPService(event, &fakeSubmitter{})

	sub := submission("Jane Doe", "jane@example.com")
	sub.CustomAnswers = map[string]string{
		"meal":     "Beef",
		"stowaway": "ignored",
	}

	_, err := svc.Submit(context.Background(), event.ID, sub)
	require.NoError(t, err)

	stored, err := rsvpRepo.FindByEmail(context.Background(), event.ID, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"meal": "Beef"}, stored.CustomAnswers)
}

func TestSubmit_UnknownEventRejected(t *testing.T) {
	event := testEvent()
	svc, _, _ := newTestRSVPService(event, &fakeSubmitter{})

	_, err := svc.Submit(context.Background(), uuid.New(), submission("Jane Doe", "jane@example.com"))
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestSubmit_RejectsConcurrentSubmission(t *testing.T) {
	event := testEvent()
	svc, _, _ := newTestRSVPService(event, &fakeSubmitter{})

	svc.inFlight.Store(true)
	defer svc.inFlight.Store(false)

	_, err := svc.Submit(context.Background(), event.ID, submission("Jane Doe", "jane@example.com"))
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
}

func TestSubmit_NotAttendingGetsNoCheckInPayload(t *testing.T) {
	event := testEvent()
	svc, _, _ := newTestRSVPService(event, &fakeSubmitter{})

	sub := submission("Jane Doe", "jane@example.com")
	sub.Attendance = domain.AttendanceNo
	sub.GuestCount = 0

	conf, err := svc.Submit(context.Background(), event.ID, sub)
	require.NoError(t, err)
	assert.False(t, conf.Attending)
	assert.Empty(t, conf.EditURL)
	assert.Empty(t, conf.CheckInPayload)
}
