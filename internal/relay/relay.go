// Package relay forwards notification payloads to the downstream ERP system.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/camadvisory/forecast-impact-service/internal/observability"
)

// ErrRelayFailed covers transport failures and non-2xx responses from the
// ERP endpoint. The current pipeline treats the relay as best-effort, but
// the error is surfaced so callers can harden later.
var ErrRelayFailed = errors.New("relay failed")

// Relay forwards an arbitrary payload and reports the acknowledged payload.
type Relay interface {
	Relay(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
}

// ERPRelay posts payloads unchanged to a configured endpoint. An empty
// endpoint acknowledges locally without forwarding, which keeps the route
// usable in environments without a reachable ERP.
type ERPRelay struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

// NewERPRelay returns a relay bound to endpoint with a bounded timeout.
func NewERPRelay(endpoint string, timeout time.Duration) *ERPRelay {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ERPRelay{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
	}
}

// Relay forwards payload unchanged and returns the payload as acknowledged
// by the ERP endpoint (the payload itself when no endpoint is configured).
func (r *ERPRelay) Relay(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	if r.endpoint == "" {
		observability.RelayCallsTotal.WithLabelValues("local_ack").Inc()
		return payload, nil
	}

	ack, err := r.forward(ctx, payload)
	if err != nil {
		observability.RelayCallsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	observability.RelayCallsTotal.WithLabelValues("success").Inc()
	return ack, nil
}

func (r *ERPRelay) forward(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRelayFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRelayFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrRelayFailed, resp.StatusCode)
	}

	// Best-effort: an unreadable ack body still counts as delivered.
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return payload, nil
	}
	return body, nil
}
