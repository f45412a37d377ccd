package e2e

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/etesdev/etes/pkg/types"
	"github.com/etesdev/etes/test/framework"
)

// TestProxyRouting covers the wildcard-host dispatch: commit subdomains
// start and reuse services, name subdomains forward to the child
// process, and unknown subdomains advertise the portal.
func TestProxyRouting(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping end-to-end test in short mode")
	}

	trigger := strings.Repeat("3", 40)
	build := strings.Repeat("4", 40)

	harness, err := framework.NewHarness(nil)
	if err != nil {
		t.Fatalf("Failed to create harness: %v", err)
	}
	defer func() { _ = harness.Cleanup() }()

	if err := harness.PlantExecutable(trigger, build); err != nil {
		t.Fatalf("Failed to plant artifact: %v", err)
	}
	if err := harness.Start(); err != nil {
		t.Fatalf("Failed to start instance: %v", err)
	}

	client := harness.Client()
	waiter := framework.DefaultWaiter()
	ctx := context.Background()

	t.Run("PlantedArtifactListed", func(t *testing.T) {
		if err := waiter.WaitForExecutable(ctx, client, build); err != nil {
			t.Fatalf("Startup scan missed the artifact: %v", err)
		}
	})

	// The implicitly started service; filled in by the first visit.
	var name string

	t.Run("CommitVisitStartsService", func(t *testing.T) {
		resp, err := client.ProxyRequest(build+".preview.example.org", "/")
		if err != nil {
			t.Fatalf("Proxy request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusTemporaryRedirect {
			t.Fatalf("Expected status 307, got %d", resp.StatusCode)
		}

		location := resp.Header.Get("Location")
		name = strings.TrimSuffix(strings.TrimPrefix(location, "https://"), ".preview.example.org")
		if name == "" || strings.Contains(name, ".") {
			t.Fatalf("Unexpected redirect target %q", location)
		}

		started, err := waiter.WaitForCommitService(ctx, client, build)
		if err != nil {
			t.Fatalf("No service started for the visited commit: %v", err)
		}
		if started != name {
			t.Errorf("Redirect names %s but %s is running", name, started)
		}

		if err := waiter.WaitForServiceState(ctx, client, name, types.ServiceStateRunning); err != nil {
			t.Fatalf("Implicitly started service never ran: %v", err)
		}
	})

	t.Run("SecondVisitReusesService", func(t *testing.T) {
		resp, err := client.ProxyRequest(build+".preview.example.org", "/")
		if err != nil {
			t.Fatalf("Proxy request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusTemporaryRedirect {
			t.Fatalf("Expected status 307, got %d", resp.StatusCode)
		}
		want := fmt.Sprintf("https://%s.preview.example.org", name)
		if got := resp.Header.Get("Location"); got != want {
			t.Errorf("Expected redirect to %s, got %s", want, got)
		}
	})

	t.Run("ForwardsToService", func(t *testing.T) {
		resp, err := client.ProxyRequest(name+".preview.example.org", "/ping")
		if err != nil {
			t.Fatalf("Proxy request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("Failed to read response: %v", err)
		}
		if string(body) != "upstream /ping" {
			t.Errorf("Unexpected upstream response %q", body)
		}
	})

	t.Run("UnknownSubdomainNotFound", func(t *testing.T) {
		resp, err := client.ProxyRequest("nothing.preview.example.org", "/")
		if err != nil {
			t.Fatalf("Proxy request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("Failed to read response: %v", err)
		}
		if !strings.Contains(string(body), "No service found on this domain.") {
			t.Errorf("Missing not-found banner: %q", body)
		}
		if !strings.Contains(string(body), `href="https://preview.example.org"`) {
			t.Errorf("Missing portal link: %q", body)
		}
	})
}
