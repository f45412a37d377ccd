package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPChecker probes a URL with a GET request and accepts any status code
// in the configured range. The defaults match the service readiness probe:
// a one second timeout and success on 2xx only.
type HTTPChecker struct {
	// URL is the full HTTP URL to probe (e.g. "http://127.0.0.1:42123/").
	URL string

	// ExpectedStatusMin and ExpectedStatusMax bound the status codes
	// treated as healthy, inclusive on both ends.
	ExpectedStatusMin int
	ExpectedStatusMax int

	// Client is the HTTP client used for the probe.
	Client *http.Client
}

// NewHTTPChecker creates a readiness checker for url.
func NewHTTPChecker(url string) *HTTPChecker {
	return &HTTPChecker{
		URL:               url,
		ExpectedStatusMin: 200,
		ExpectedStatusMax: 299,
		Client: &http.Client{
			Timeout: time.Second,
		},
	}
}

// WithTimeout sets the per-probe timeout.
func (h *HTTPChecker) WithTimeout(timeout time.Duration) *HTTPChecker {
	h.Client.Timeout = timeout
	return h
}

// WithStatusRange sets the status codes accepted as healthy.
func (h *HTTPChecker) WithStatusRange(min, max int) *HTTPChecker {
	h.ExpectedStatusMin = min
	h.ExpectedStatusMax = max
	return h
}

// Check performs one probe.
func (h *HTTPChecker) Check(ctx context.Context) Result {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return Result{
			Healthy:   false,
			Message:   fmt.Sprintf("failed to create request: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return Result{
			Healthy:   false,
			Message:   fmt.Sprintf("request failed: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode >= h.ExpectedStatusMin && resp.StatusCode <= h.ExpectedStatusMax

	message := fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if !healthy {
		message = fmt.Sprintf("%s (expected %d-%d)", message, h.ExpectedStatusMin, h.ExpectedStatusMax)
	}

	return Result{
		Healthy:   healthy,
		Message:   message,
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}
