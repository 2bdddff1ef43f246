package rules

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/monify-labs/linuxmon/internal/config"
)

// Fetcher retrieves the raw rule document
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetchError carries the URL and underlying cause of a failed fetch
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%v | %s", e.Err, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPFetcher performs a single GET per call, without retries
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher whose requests are bounded by timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the response body, or a *FetchError
func (h *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", fmt.Sprintf("linuxmon/%s", config.Version))

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("unexpected status code %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return body, nil
}

// Close releases idle connections
func (h *HTTPFetcher) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
