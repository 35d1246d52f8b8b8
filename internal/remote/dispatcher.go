package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/muster-events/backend/internal/domain"
)

// Dispatcher submits RSVPs to the backend dispatch endpoint. The endpoint
// holds the write credentials; submitters never see a token.
type Dispatcher struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

func NewDispatcher(endpoint, apiKey string) *Dispatcher {
	return &Dispatcher{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

func (d *Dispatcher) SubmitRSVP(ctx context.Context, rsvp domain.RSVP) error {
	body, err := json.Marshal(rsvp)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("X-API-Key", d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w -> %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return CategorizeStatus(resp.StatusCode)
}

var _ Submitter = (*Dispatcher)(nil)
