package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muster-events/backend/internal/domain"
)

const (
	eventsPath        = "data/events.json"
	responsesPathFmt  = "data/responses/%s.json"
	intakeIssueLabel  = "rsvp-intake"
	defaultAPITimeout = 15 * time.Second
)

// GitHubStore persists events and responses as JSON files in a repository via
// the contents API. The file SHA returned on every read is the version token
// for the next conditional write.
type GitHubStore struct {
	client  *http.Client
	baseURL string
	owner   string
	repo    string
	branch  string
	token   string

	mu   sync.Mutex
	shas map[string]string
}

func NewGitHubStore(baseURL, owner, repo, branch, token string) *GitHubStore {
	return &GitHubStore{
		client:  &http.Client{Timeout: defaultAPITimeout},
		baseURL: baseURL,
		owner:   owner,
		repo:    repo,
		branch:  branch,
		token:   token,
		shas:    make(map[string]string),
	}
}

func (s *GitHubStore) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.baseURL, s.owner, s.repo, path)
}

func (s *GitHubStore) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	return s.client.Do(req)
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

type contentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

// getFile reads a file and records its SHA as the version token for the next
// write to the same path.
func (s *GitHubStore) getFile(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.contentsURL(path), nil)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}

	resp, err := s.do(req)
	if err != nil {
		return fmt.Errorf("%w -> %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CategorizeStatus(resp.StatusCode)
	}

	var contents contentsResponse
	if err = json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		return fmt.Errorf("json.Decode -> %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(contents.Content)
	if err != nil {
		// The API wraps base64 at 60 columns.
		raw, err = base64.StdEncoding.DecodeString(stripNewlines(contents.Content))
		if err != nil {
			return fmt.Errorf("base64.Decode -> %w", err)
		}
	}

	s.mu.Lock()
	s.shas[path] = contents.SHA
	s.mu.Unlock()

	if err = json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("json.Unmarshal %v -> %w", path, err)
	}

	return nil
}

// putFile writes a file conditionally on the last SHA seen for its path.
// A stale SHA surfaces as ErrConflict.
func (s *GitHubStore) putFile(ctx context.Context, path, message string, value interface{}) error {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	s.mu.Lock()
	sha := s.shas[path]
	s.mu.Unlock()

	body, err := json.Marshal(contentsRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(raw),
		Branch:  s.branch,
		SHA:     sha,
	})
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.do(req)
	if err != nil {
		return fmt.Errorf("%w -> %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return CategorizeStatus(resp.StatusCode)
	}

	var updated struct {
		Content contentsResponse `json:"content"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&updated); err == nil && updated.Content.SHA != "" {
		s.mu.Lock()
		s.shas[path] = updated.Content.SHA
		s.mu.Unlock()
	}

	return nil
}

func (s *GitHubStore) deleteFile(ctx context.Context, path, message string) error {
	s.mu.Lock()
	sha := s.shas[path]
	s.mu.Unlock()

	body, err := json.Marshal(contentsRequest{
		Message: message,
		Branch:  s.branch,
		SHA:     sha,
	})
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.contentsURL(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.do(req)
	if err != nil {
		return fmt.Errorf("%w -> %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CategorizeStatus(resp.StatusCode)
	}

	s.mu.Lock()
	delete(s.shas, path)
	s.mu.Unlock()

	return nil
}

func (s *GitHubStore) LoadEvents(ctx context.Context) (map[uuid.UUID]domain.Event, error) {
	events := make(map[uuid.UUID]domain.Event)

	err := s.getFile(ctx, eventsPath, &events)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// First run against an empty repository.
			return events, nil
		}
		return nil, fmt.Errorf("s.getFile %v -> %w", eventsPath, err)
	}

	return events, nil
}

func (s *GitHubStore) LoadResponses(ctx context.Context) (map[uuid.UUID][]domain.RSVP, error) {
	events, err := s.LoadEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.LoadEvents -> %w", err)
	}

	responses := make(map[uuid.UUID][]domain.RSVP, len(events))
	for id := range events {
		var rsvps []domain.RSVP
		if err = s.getFile(ctx, fmt.Sprintf(responsesPathFmt, id), &rsvps); err != nil {
			if errors.Is(err, ErrNotFound) {
				responses[id] = nil
				continue
			}
			return nil, fmt.Errorf("s.getFile responses %v -> %w", id, err)
		}
		responses[id] = rsvps
	}

	return responses, nil
}

func (s *GitHubStore) SaveEvent(ctx context.Context, event domain.Event) error {
	events, err := s.LoadEvents(ctx)
	if err != nil {
		return fmt.Errorf("s.LoadEvents -> %w", err)
	}

	events[event.ID] = event

	message := fmt.Sprintf("Update event %v", event.Title)
	if err = s.putFile(ctx, eventsPath, message, events); err != nil {
		return fmt.Errorf("s.putFile -> %w", err)
	}

	return nil
}

func (s *GitHubStore) SaveResponses(ctx context.Context, eventID uuid.UUID, responses []domain.RSVP) error {
	path := fmt.Sprintf(responsesPathFmt, eventID)
	message := fmt.Sprintf("Update responses for event %v", eventID)

	if err := s.putFile(ctx, path, message, responses); err != nil {
		return fmt.Errorf("s.putFile -> %w", err)
	}

	return nil
}

// DeleteEvent removes the event and cascades to its response collection.
func (s *GitHubStore) DeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	events, err := s.LoadEvents(ctx)
	if err != nil {
		return fmt.Errorf("s.LoadEvents -> %w", err)
	}

	if _, ok := events[eventID]; !ok {
		return ErrNotFound
	}
	delete(events, eventID)

	if err = s.putFile(ctx, eventsPath, fmt.Sprintf("Delete event %v", eventID), events); err != nil {
		return fmt.Errorf("s.putFile -> %w", err)
	}

	path := fmt.Sprintf(responsesPathFmt, eventID)
	if err = s.deleteFile(ctx, path, fmt.Sprintf("Delete responses for event %v", eventID)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		zap.L().Warn("failed to delete response file after event deletion",
			zap.String("event_id", eventID.String()),
			zap.Error(err))
	}

	return nil
}

func stripNewlines(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			buf = append(buf, s[i])
		}
	}

	return string(buf)
}

var _ Store = (*GitHubStore)(nil)
