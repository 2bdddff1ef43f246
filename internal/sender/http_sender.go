package sender

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/monify-labs/linuxmon/internal/config"
	"github.com/monify-labs/linuxmon/pkg/models"
)

// ErrUnauthorized is returned when the push target rejects the token (401)
var ErrUnauthorized = errors.New("authentication failed: invalid or expired token")

const maxResponseBody = 64 << 10

// HTTPSender pushes snapshots via HTTP/HTTPS
type HTTPSender struct {
	serverURL string
	token     string
	client    *http.Client
}

// NewHTTPSender creates a new HTTP sender. The token is optional.
func NewHTTPSender(serverURL, token string, timeout time.Duration) *HTTPSender {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:    2,
			IdleConnTimeout: 30 * time.Second,
		},
	}

	return &HTTPSender{
		serverURL: serverURL,
		token:     token,
		client:    client,
	}
}

// Send pushes a single snapshot as gzipped JSON
func (h *HTTPSender) Send(ctx context.Context, snapshot *models.Snapshot) (*models.ServerResponse, error) {
	if snapshot == nil {
		return nil, nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	// Compress with gzip
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := gzipWriter.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.serverURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("User-Agent", fmt.Sprintf("linuxmon/%s", config.Version))
	req.Header.Set("X-Agent-Version", config.Version)

	if h.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", h.token))
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	serverResp := &models.ServerResponse{Status: "success"}
	if len(respBody) > 0 {
		// a body that is not a ServerResponse still means the push succeeded
		_ = json.Unmarshal(respBody, serverResp)
	}
	return serverResp, nil
}

// Close closes the HTTP client
func (h *HTTPSender) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
