package outbox

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/pkg/config"
)

// endpointPaths maps each record type to its delivery endpoint.
var endpointPaths = map[events.RecordType]string{
	events.RecordAnalytics:    "/api/track-event",
	events.RecordQuizResponse: "/api/submit-quiz-response",
	events.RecordEmailCapture: "/api/capture-email",
}

// HTTPTransport posts records to the delivery API as JSON. No request
// timeout is set by default; a hung request stalls only that record's retry
// chain.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport creates a transport against the given API base URL. A
// nil client uses a dedicated default client.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{baseURL: baseURL, client: client}
}

// Deliver posts one record to its endpoint. Any non-2xx status or network
// error is a delivery failure.
func (t *HTTPTransport) Deliver(ctx context.Context, record events.OutboxRecord) error {
	path, ok := endpointPaths[record.Type]
	if !ok {
		return fmt.Errorf("no endpoint for record type %q", record.Type)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(record.Payload))
	if err != nil {
		return fmt.Errorf("failed to build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", config.DeliveryUserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delivery rejected with status %d", resp.StatusCode)
	}
	return nil
}
