package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// IssueIntake drains RSVP submissions queued as labeled issues. Each open
// issue body carries one RSVP payload; closing the issue marks it processed.
type IssueIntake struct {
	client  *http.Client
	baseURL string
	owner   string
	repo    string
	token   string
	label   string
}

func NewIssueIntake(baseURL, owner, repo, token string) *IssueIntake {
	return &IssueIntake{
		client:  &http.Client{Timeout: defaultAPITimeout},
		baseURL: baseURL,
		owner:   owner,
		repo:    repo,
		token:   token,
		label:   intakeIssueLabel,
	}
}

type issue struct {
	Number int    `json:"number"`
	Body   string `json:"body"`
	State  string `json:"state"`
}

func (q *IssueIntake) issuesURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/issues", q.baseURL, q.owner, q.repo)
}

func (q *IssueIntake) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if q.token != "" {
		req.Header.Set("Authorization", "Bearer "+q.token)
	}

	return q.client.Do(req)
}

func (q *IssueIntake) ListPending(ctx context.Context) ([]IntakeEntry, error) {
	url := fmt.Sprintf("%s?state=open&labels=%s&per_page=100", q.issuesURL(), q.label)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}

	resp, err := q.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w -> %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, CategorizeStatus(resp.StatusCode)
	}

	var issues []issue
	if err = json.NewDecoder(resp.Body).Decode(&issues); err != nil {
		return nil, fmt.Errorf("json.Decode -> %w", err)
	}

	entries := make([]IntakeEntry, 0, len(issues))
	for _, is := range issues {
		var entry IntakeEntry
		if err = json.Unmarshal([]byte(is.Body), &entry.RSVP); err != nil {
			// A malformed body stays open for a human to look at.
			zap.L().Warn("skipping malformed intake issue",
				zap.Int("issue", is.Number),
				zap.Error(err))
			continue
		}
		entry.ID = strconv.Itoa(is.Number)
		entries = append(entries, entry)
	}

	return entries, nil
}

func (q *IssueIntake) MarkProcessed(ctx context.Context, entry IntakeEntry) error {
	body, err := json.Marshal(map[string]string{"state": "closed"})
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	url := fmt.Sprintf("%s/%s", q.issuesURL(), entry.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.do(req)
	if err != nil {
		return fmt.Errorf("%w -> %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CategorizeStatus(resp.StatusCode)
	}

	return nil
}

var _ IntakeQueue = (*IssueIntake)(nil)
