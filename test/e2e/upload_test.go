package e2e

import (
	"net/http"
	"strings"
	"testing"

	"github.com/etesdev/etes/test/framework"
)

// TestUploadValidation covers the upload endpoint's auth and input
// checks end to end.
func TestUploadValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping end-to-end test in short mode")
	}

	harness, err := framework.NewHarness(nil)
	if err != nil {
		t.Fatalf("Failed to create harness: %v", err)
	}
	defer func() { _ = harness.Cleanup() }()

	if err := harness.Start(); err != nil {
		t.Fatalf("Failed to start instance: %v", err)
	}

	client := harness.Client()
	valid := strings.Repeat("5", 40)

	tests := []struct {
		name       string
		trigger    string
		build      string
		apiKey     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "wrong key",
			trigger:    valid,
			build:      valid,
			apiKey:     "not-the-key",
			wantStatus: http.StatusBadRequest,
			wantBody:   "Client error: Invalid API key",
		},
		{
			name:       "missing header",
			trigger:    valid,
			build:      valid,
			apiKey:     "",
			wantStatus: http.StatusBadRequest,
			wantBody:   "Client error: No authorization header found",
		},
		{
			name:       "malformed hash",
			trigger:    "nothex",
			build:      valid,
			apiKey:     harness.Config.APIKey,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Client error: Invalid commit hash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, err := client.Upload(tt.trigger, tt.build, tt.apiKey, strings.NewReader("payload"))
			if err != nil {
				t.Fatalf("Upload request failed: %v", err)
			}
			if status != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, status)
			}
			if body != tt.wantBody {
				t.Errorf("Expected body %q, got %q", tt.wantBody, body)
			}
		})
	}

	// None of the rejected uploads may leave an artifact behind.
	state, err := client.Data("auditor")
	if err != nil {
		t.Fatalf("Failed to fetch snapshot: %v", err)
	}
	if len(state.Executables) != 0 {
		t.Errorf("Rejected uploads left artifacts: %+v", state.Executables)
	}
}
