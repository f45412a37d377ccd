package github

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/etesdev/etes/pkg/config"
	"github.com/etesdev/etes/pkg/events"
	"github.com/etesdev/etes/pkg/log"
	"github.com/etesdev/etes/pkg/types"
)

// Manager caches repository metadata fetched from the GitHub GraphQL
// API. The cache is replaced wholesale on every successful update, so
// readers always see a coherent snapshot.
type Manager struct {
	cfg    *config.Config
	client Doer
	url    string
	logger zerolog.Logger

	mu    sync.RWMutex
	state types.GitHubState
}

// New creates a manager for the configured repository.
func New(cfg *config.Config) *Manager {
	url := cfg.GithubAPIURL
	if url == "" {
		url = graphqlURL
	}

	return &Manager{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		url:    url,
		logger: log.WithComponent("github"),
	}
}

// State returns the cached metadata snapshot.
func (m *Manager) State() types.GitHubState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// ValidCommits returns the commit hashes considered live: release
// commits plus green pull request heads. The garbage collector uses this
// as its keep set.
func (m *Manager) ValidCommits() []string {
	return m.State().ValidCommits()
}

// Update fetches fresh metadata and replaces the cache.
func (m *Manager) Update(ctx context.Context) error {
	state, err := m.fetch(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	m.logger.Info().
		Int("commits", len(state.Commits)).
		Int("releases", len(state.Releases)).
		Int("pulls", len(state.Pulls)).
		Msg("Fetched GitHub data")
	return nil
}

// Run answers GithubRefresh commands from the bus until ctx is
// cancelled. A successful update broadcasts the new snapshot; a failure
// is reported back to the requesting user. Refreshes are handled one at
// a time.
func (m *Manager) Run(ctx context.Context, broker *events.Broker) error {
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for {
		select {
		case event, ok := <-sub:
			if !ok {
				return nil
			}
			refresh, ok := event.(events.GithubRefresh)
			if !ok {
				continue
			}

			if err := m.Update(ctx); err != nil {
				m.logger.Error().Err(err).Msg("Failed to fetch GitHub data")
				broker.Publish(events.Error{
					Message: fmt.Sprintf("Failed to fetch GitHub data: %s", err),
					User:    refresh.User,
				})
				continue
			}

			broker.Publish(events.GithubState{Payload: m.State()})
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
