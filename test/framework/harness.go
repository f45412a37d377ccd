package framework

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/etesdev/etes/pkg/config"
	"github.com/etesdev/etes/pkg/manager"
	"github.com/etesdev/etes/pkg/registry"
	"github.com/etesdev/etes/pkg/util"
)

// startTimeout bounds how long a harness waits for the listeners to
// come up or drain.
const startTimeout = 30 * time.Second

// NewHarness prepares an instance configuration on free loopback ports
// with a fresh temporary artifact directory. Nothing runs until Start.
func NewHarness(opts *Options) (*Harness, error) {
	if opts == nil {
		opts = &Options{}
	}

	managementPort, err := util.FreePort()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate management port: %w", err)
	}
	proxyPort, err := util.FreePort()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate proxy port: %w", err)
	}

	binDir, err := os.MkdirTemp("", "etes-e2e-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}

	githubURL := opts.GithubAPIURL
	if githubURL == "" {
		// Nothing listens on port 1; the fetch fails fast and the
		// instance serves an empty metadata snapshot.
		githubURL = "http://127.0.0.1:1/graphql"
	}

	commandArgs := opts.CommandArgs
	if commandArgs == nil {
		commandArgs = []string{"-test.run=TestHelperProcess", "--", "serve", "{port}"}
	}

	commandEnv := map[string]string{"GO_WANT_HELPER_PROCESS": "1"}
	for key, value := range opts.CommandEnv {
		commandEnv[key] = value
	}

	cfg := &config.Config{
		Title:          "etes e2e",
		GithubOwner:    "acme",
		GithubRepo:     "demo",
		GithubToken:    "token-e2e",
		GithubAPIURL:   githubURL,
		SessionKey:     "e2e-session-key",
		APIKey:         "e2e-api-key",
		CommandArgs:    commandArgs,
		CommandEnv:     commandEnv,
		Words:          []string{"amber", "brisk", "cedar", "dusky", "ember"},
		Admins:         opts.Admins,
		BinDir:         binDir,
		ManagementAddr: fmt.Sprintf("127.0.0.1:%d", managementPort),
		ProxyAddr:      fmt.Sprintf("127.0.0.1:%d", proxyPort),
		MaxServices:    16,
	}

	return &Harness{
		Config: cfg,
		done:   make(chan error, 1),
		keep:   opts.KeepArtifacts,
	}, nil
}

// Start boots the instance and blocks until both listeners answer.
func (h *Harness) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	h.App = manager.New(h.Config)
	go func() {
		h.done <- h.App.Run(ctx)
	}()

	management := fmt.Sprintf("http://%s/etes/api/v1/data/harness", h.Config.ManagementAddr)
	if err := h.waitForHTTP(management); err != nil {
		return fmt.Errorf("management listener not ready: %w", err)
	}

	proxy := fmt.Sprintf("http://%s/", h.Config.ProxyAddr)
	if err := h.waitForHTTP(proxy); err != nil {
		return fmt.Errorf("proxy listener not ready: %w", err)
	}

	return nil
}

// Stop cancels the instance and waits for the shutdown to finish.
func (h *Harness) Stop() error {
	if h.cancel == nil {
		return nil
	}
	h.cancel()
	h.cancel = nil

	select {
	case err := <-h.done:
		return err
	case <-time.After(startTimeout):
		return fmt.Errorf("timeout waiting for shutdown")
	}
}

// Cleanup stops the instance and removes the artifact directory.
func (h *Harness) Cleanup() error {
	if err := h.Stop(); err != nil {
		// Log but don't fail cleanup on stop errors
		fmt.Printf("Warning: error during stop: %v\n", err)
	}

	if !h.keep {
		if err := os.RemoveAll(h.Config.BinDir); err != nil {
			return fmt.Errorf("failed to remove artifact dir: %w", err)
		}
	}
	return nil
}

// Client returns a client for the instance's public surface.
func (h *Harness) Client() *Client {
	return &Client{
		management: h.Config.ManagementAddr,
		proxy:      h.Config.ProxyAddr,
		http: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// PlantExecutable copies the running test binary into the artifact
// directory under the given commit pair. It must be called before Start
// so the startup scan picks the artifact up; once the instance runs,
// upload through the Client instead.
func (h *Harness) PlantExecutable(triggerHash, buildHash string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate test binary: %w", err)
	}
	data, err := os.ReadFile(self)
	if err != nil {
		return fmt.Errorf("failed to read test binary: %w", err)
	}

	artifact := registry.ExecutableFor(h.Config.BinDir, buildHash, triggerHash)
	if err := os.WriteFile(artifact.Path, data, 0o755); err != nil {
		return fmt.Errorf("failed to plant artifact: %w", err)
	}
	return nil
}

// waitForHTTP polls url until any HTTP response arrives. The status
// code does not matter; a response means the listener is up.
func (h *Harness) waitForHTTP(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		resp, err := http.Get(url)
		if err == nil {
			return resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("no response from %s: %w", url, ctx.Err())
		case <-ticker.C:
		}
	}
}
