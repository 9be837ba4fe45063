package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fieldclock/agent-go/internal/domain/syncer"
)

// HTTPTransport talks the remote reconciliation protocol over HTTPS. The
// transport layer is assumed to handle encryption; this client only adds the
// bearer token.
type HTTPTransport struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewHTTPTransport(endpoint, token string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a remote endpoint and token are set.
func (t *HTTPTransport) Configured() bool {
	return t.endpoint != "" && t.token != ""
}

// PushEvents implements syncer.Transport.
func (t *HTTPTransport) PushEvents(ctx context.Context, req syncer.SyncRequest) (syncer.SyncResponse, error) {
	if !t.Configured() {
		return syncer.SyncResponse{}, syncer.ErrConfigMissing
	}

	body, err := json.Marshal(req)
	if err != nil {
		return syncer.SyncResponse{}, fmt.Errorf("failed to encode sync request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/api/v1/attendance/sync", bytes.NewReader(body))
	if err != nil {
		return syncer.SyncResponse{}, fmt.Errorf("failed to build sync request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.token)
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return syncer.SyncResponse{}, fmt.Errorf("%w: %v", syncer.ErrTransportFailure, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return syncer.SyncResponse{}, fmt.Errorf("%w: server returned status %d", syncer.ErrTransportFailure, httpResp.StatusCode)
	}

	var resp syncer.SyncResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return syncer.SyncResponse{}, fmt.Errorf("%w: unparseable response: %v", syncer.ErrTransportFailure, err)
	}
	return resp, nil
}

// FetchDirectory implements syncer.Transport.
func (t *HTTPTransport) FetchDirectory(ctx context.Context, updatedSinceMillis int64) ([]syncer.DirectoryEmployee, error) {
	if !t.Configured() {
		return nil, syncer.ErrConfigMissing
	}

	query := url.Values{}
	if updatedSinceMillis > 0 {
		query.Set("updated_since", strconv.FormatInt(updatedSinceMillis, 10))
	}

	endpoint := t.endpoint + "/api/v1/attendance/employees"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+t.token)

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", syncer.ErrTransportFailure, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: server returned status %d", syncer.ErrTransportFailure, httpResp.StatusCode)
	}

	var entries []syncer.DirectoryEmployee
	if err := json.NewDecoder(httpResp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: unparseable directory response: %v", syncer.ErrTransportFailure, err)
	}
	return entries, nil
}
