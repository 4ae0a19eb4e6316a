package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fentz26/aitracker/internal/models"
)

// DefaultClientTimeout is the default timeout for store requests.
const DefaultClientTimeout = 10 * time.Second

// ProgressPath is the store endpoint for snapshots.
const ProgressPath = "/api/progress"

// RemoteStore talks to the Progress Store over HTTP.
type RemoteStore struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

// NewRemoteStore creates a store client for baseURL.
func NewRemoteStore(baseURL, userID string) *RemoteStore {
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (r *RemoteStore) WithHTTPClient(c *http.Client) *RemoteStore {
	r.httpClient = c
	return r
}

func (r *RemoteStore) endpoint() string {
	u := r.baseURL + ProgressPath
	if r.userID != "" {
		u += "?user_id=" + url.QueryEscape(r.userID)
	}
	return u
}

// Load fetches the latest snapshot. Any non-2xx answer is ErrNoData.
func (r *RemoteStore) Load(ctx context.Context) (*models.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read store response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: store answered %d", ErrNoData, resp.StatusCode)
	}
	if len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, ErrNoData
	}
	return models.DecodeSnapshot(body)
}

// Save posts the full snapshot.
func (r *RemoteStore) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint(), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("store error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// HealthResponse matches the store's health payload.
type HealthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Version     string `json:"version,omitempty"`
	Environment string `json:"environment,omitempty"`
	Timestamp   string `json:"timestamp"`
	Error       string `json:"error,omitempty"`
}

// Healthy reports whether the store answered healthy.
func (h *HealthResponse) Healthy() bool {
	return h.Status == "healthy"
}

// CheckHealth queries the store's health endpoint. The parsed payload is
// returned alongside the error on non-200 answers.
func (r *RemoteStore) CheckHealth(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("parse health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &health, fmt.Errorf("health check failed (status %d)", resp.StatusCode)
	}
	return &health, nil
}
