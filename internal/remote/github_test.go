package remote_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/remote"
)

func encodeContents(t *testing.T, v interface{}, sha string) []byte {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{
		"content": base64.StdEncoding.EncodeToString(raw),
		"sha":     sha,
	})
	require.NoError(t, err)

	return body
}

func TestGitHubStore_LoadEvents(t *testing.T) {
	eventID := uuid.New()
	events := map[uuid.UUID]domain.Event{
		eventID: {ID: eventID, Title: "Dining Out"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Contains(t, r.URL.Path, "data/events.json")

		w.Write(encodeContents(t, events, "abc123"))
	}))
	defer srv.Close()

	store := remote.NewGitHubStore(srv.URL, "owner", "repo", "main", "tok")

	got, err := store.LoadEvents(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dining Out", got[eventID].Title)
}

func TestGitHubStore_LoadEvents_MissingFileIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := remote.NewGitHubStore(srv.URL, "owner", "repo", "main", "tok")

	got, err := store.LoadEvents(context.Background())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGitHubStore_SaveEvent_SendsVersionToken(t *testing.T) {
	eventID := uuid.New()
	var putSHA string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write(encodeContents(t, map[uuid.UUID]domain.Event{}, "sha-1"))
		case http.MethodPut:
			var req struct {
				SHA string `json:"sha"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			putSHA = req.SHA
			w.Write([]byte(`{"content":{"sha":"sha-2"}}`))
		}
	}))
	defer srv.Close()

	store := remote.NewGitHubStore(srv.URL, "owner", "repo", "main", "tok")

	err := store.SaveEvent(context.Background(), domain.Event{ID: eventID, Title: "Ball"})

	require.NoError(t, err)
	assert.Equal(t, "sha-1", putSHA)
}

func TestGitHubStore_SaveEvent_StaleTokenIsConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write(encodeContents(t, map[uuid.UUID]domain.Event{}, "stale"))
		case http.MethodPut:
			w.WriteHeader(http.StatusConflict)
		}
	}))
	defer srv.Close()

	store := remote.NewGitHubStore(srv.URL, "owner", "repo", "main", "tok")

	err := store.SaveEvent(context.Background(), domain.Event{ID: uuid.New()})

	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrConflict)
	assert.False(t, remote.IsTransient(err), "conflicts must not look retryable")
}

func TestDispatcher_SubmitRSVP(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"accepted", http.StatusOK, nil},
		{"created", http.StatusCreated, nil},
		{"unauthorized", http.StatusUnauthorized, remote.ErrAuth},
		{"forbidden", http.StatusForbidden, remote.ErrAuth},
		{"rate limited", http.StatusTooManyRequests, remote.ErrRateLimited},
		{"server error", http.StatusInternalServerError, remote.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			d := remote.NewDispatcher(srv.URL, "secret")

			err := d.SubmitRSVP(context.Background(), domain.RSVP{ID: uuid.New()})

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestIssueIntake_ListPending(t *testing.T) {
	rsvp := domain.RSVP{ID: uuid.New(), Name: "Jo Doe", Email: "jo@x.com", Attendance: domain.AttendanceYes}
	body, err := json.Marshal(rsvp)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "state=open")

		issues := []map[string]interface{}{
			{"number": 7, "body": string(body), "state": "open"},
			{"number": 8, "body": "not json at all", "state": "open"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(issues))
	}))
	defer srv.Close()

	q := remote.NewIssueIntake(srv.URL, "owner", "repo", "tok")

	entries, err := q.ListPending(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 1, "malformed bodies are skipped")
	assert.Equal(t, "7", entries[0].ID)
	assert.Equal(t, "jo@x.com", entries[0].RSVP.Email)
}

func TestIssueIntake_MarkProcessed(t *testing.T) {
	var patched string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		patched = r.URL.Path

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "closed", req["state"])
	}))
	defer srv.Close()

	q := remote.NewIssueIntake(srv.URL, "owner", "repo", "tok")

	err := q.MarkProcessed(context.Background(), remote.IntakeEntry{ID: "7"})

	require.NoError(t, err)
	assert.Contains(t, patched, "/issues/7")
}

func TestCategorizeStatus(t *testing.T) {
	assert.ErrorIs(t, remote.CategorizeStatus(http.StatusUnauthorized), remote.ErrAuth)
	assert.ErrorIs(t, remote.CategorizeStatus(http.StatusNotFound), remote.ErrNotFound)
	assert.ErrorIs(t, remote.CategorizeStatus(http.StatusConflict), remote.ErrConflict)
	assert.ErrorIs(t, remote.CategorizeStatus(http.StatusUnprocessableEntity), remote.ErrConflict)
	assert.ErrorIs(t, remote.CategorizeStatus(http.StatusTooManyRequests), remote.ErrRateLimited)
	assert.ErrorIs(t, remote.CategorizeStatus(http.StatusBadGateway), remote.ErrUnavailable)
}
