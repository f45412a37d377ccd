package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/etesdev/etes/pkg/config"
	"github.com/etesdev/etes/pkg/events"
	"github.com/etesdev/etes/pkg/health"
	"github.com/etesdev/etes/pkg/log"
	"github.com/etesdev/etes/pkg/metrics"
	"github.com/etesdev/etes/pkg/registry"
	"github.com/etesdev/etes/pkg/types"
	"github.com/etesdev/etes/pkg/util"
)

// Readiness probe cadence: 10 attempts, one second apart, with a one
// second per-request timeout inside the checker.
const (
	defaultProbeAttempts = 10
	defaultProbeInterval = time.Second
)

// Supervisor owns the service map. It starts and stops child processes
// on bus commands, probes them for readiness, and publishes the full
// service list after every mutation.
type Supervisor struct {
	cfg      *config.Config
	registry *registry.Registry
	broker   *events.Broker
	logger   zerolog.Logger

	mu       sync.RWMutex
	services map[string]*Service

	probeAttempts int
	probeInterval time.Duration
}

// New creates a supervisor over the given registry and event broker.
func New(cfg *config.Config, reg *registry.Registry, broker *events.Broker) *Supervisor {
	return &Supervisor{
		cfg:           cfg,
		registry:      reg,
		broker:        broker,
		logger:        log.WithComponent("supervisor"),
		services:      make(map[string]*Service),
		probeAttempts: defaultProbeAttempts,
		probeInterval: defaultProbeInterval,
	}
}

// Snapshot projects the service map to client views, newest first.
func (s *Supervisor) Snapshot() []types.ServiceData {
	s.mu.RLock()
	views := lo.MapToSlice(s.services, func(_ string, service *Service) types.ServiceData {
		return service.Data()
	})
	s.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views
}

// PortOf returns the port of a named service.
func (s *Supervisor) PortOf(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	service, ok := s.services[name]
	if !ok {
		return 0, false
	}
	return service.port, true
}

// NameOfCommit returns a service whose artifact was built from or
// triggered by the given commit.
func (s *Supervisor) NameOfCommit(commit string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for name, service := range s.services {
		if service.executable.Matches(commit) {
			return name, true
		}
	}
	return "", false
}

// IsOwner reports whether user created the named service or is an
// admin. Unknown services belong to nobody.
func (s *Supervisor) IsOwner(name string, user types.User) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	service, ok := s.services[name]
	if !ok {
		return false
	}
	return service.creator.Equal(user) || user.IsAdmin(s.cfg.Admins)
}

// Start resolves the artifact for commit, spawns it under the given
// name, and probes it for readiness. Every failure is reported to the
// caller as an Error event; every state change is broadcast as a
// ServiceState event.
func (s *Supervisor) Start(ctx context.Context, name, commit string, user types.User) {
	executable, ok := s.registry.FindByCommit(commit)
	if !ok {
		s.broker.Publish(events.Error{Message: "Executable not found", User: user})
		return
	}

	if !util.IsValidName(name) {
		s.broker.Publish(events.Error{Message: "Service name must be alphanumeric", User: user})
		return
	}

	s.logger.Info().Str("service", name).Msg("Starting service")

	if err := s.addService(name, executable, user); err != nil {
		s.logger.Error().Err(err).Str("service", name).Msg("Failed to start service")
		s.broker.Publish(events.Error{Message: fmt.Sprintf("Failed to start service: %s", err), User: user})
		s.broker.Publish(events.ServiceState{Services: s.Snapshot()})
		return
	}

	s.broker.Publish(events.ServiceState{Services: s.Snapshot()})

	if err := s.waitForStartup(ctx, name); err != nil {
		s.logger.Error().Err(err).Str("service", name).Msg("Failed to start service")
		s.broker.Publish(events.ServiceState{Services: s.Snapshot()})
		s.broker.Publish(events.Error{Message: fmt.Sprintf("Failed to start service: %s", err), User: user})
		return
	}

	s.logger.Info().Str("service", name).Msg("Started service")
	s.broker.Publish(events.ServiceState{Services: s.Snapshot()})
}

// Stop removes the named service and kills its child. Only the creator
// or an admin may stop a service.
func (s *Supervisor) Stop(name string, user types.User) {
	if !s.IsOwner(name, user) {
		s.broker.Publish(events.Error{Message: "You are not the owner of this service", User: user})
		return
	}

	s.mu.Lock()
	service, ok := s.services[name]
	if ok {
		delete(s.services, name)
		metrics.ServicesRunning.Set(float64(len(s.services)))
	}
	s.mu.Unlock()

	if ok {
		if err := service.signalStop(); err != nil {
			s.logger.Error().Err(err).Str("service", name).Msg("Failed to stop service")
		}
	}

	s.broker.Publish(events.ServiceState{Services: s.Snapshot()})
}

// addService allocates, spawns, and inserts a service. A spawn failure
// still inserts the errored record so the failure is visible in the
// service list.
func (s *Supervisor) addService(name string, executable registry.Executable, creator types.User) error {
	s.mu.RLock()
	_, exists := s.services[name]
	s.mu.RUnlock()
	if exists {
		return fmt.Errorf("Service %s already exists!", name)
	}

	service, err := newService(name, executable, creator)
	if err != nil {
		return errors.New("no free port")
	}

	spawnErr := service.spawn(s.cfg, s.logger)

	s.mu.Lock()
	if _, taken := s.services[name]; taken {
		s.mu.Unlock()
		// Lost the race against a concurrent start of the same name.
		if service.kill != nil {
			_ = service.signalStop()
		}
		return fmt.Errorf("Service %s already exists!", name)
	}
	s.services[name] = service
	metrics.ServicesRunning.Set(float64(len(s.services)))
	s.mu.Unlock()

	return spawnErr
}

// waitForStartup runs the readiness probe against the service's port and
// records the resulting state transition.
func (s *Supervisor) waitForStartup(ctx context.Context, name string) error {
	port, ok := s.PortOf(name)
	if !ok {
		return fmt.Errorf("Service %s not found", name)
	}

	checker := health.NewHTTPChecker(fmt.Sprintf("http://127.0.0.1:%d/", port))
	if err := health.WaitReady(ctx, checker, s.probeAttempts, s.probeInterval); err != nil {
		message := "Service did not start"
		s.setState(name, types.ServiceStateError, &message)
		return errors.New(message)
	}

	s.setState(name, types.ServiceStateRunning, nil)
	metrics.ServiceStarts.Inc()
	return nil
}

func (s *Supervisor) setState(name string, state types.ServiceState, errMsg *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if service, ok := s.services[name]; ok {
		service.state = state
		service.err = errMsg
	}
}

// Run subscribes to the bus and dispatches start and stop commands until
// ctx is cancelled. Every command runs in its own goroutine so a slow
// readiness probe never blocks the next command.
func (s *Supervisor) Run(ctx context.Context) error {
	sub := s.broker.Subscribe()
	defer s.broker.Unsubscribe(sub)

	for {
		select {
		case event, ok := <-sub:
			if !ok {
				return nil
			}
			s.dispatch(ctx, event)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Supervisor) dispatch(ctx context.Context, event events.Event) {
	switch e := event.(type) {
	case events.StartService:
		go s.Start(ctx, e.Name, e.Executable.Hash, e.User)
	case events.StopService:
		go s.Stop(e.Name, e.User)
	case events.MemoryState:
		// sampled every few seconds, not worth a log line
	default:
		if caller, ok := events.Caller(event); ok {
			s.logger.Info().Str("event", events.Name(event)).Stringer("user", caller).Msg("Received event")
		} else {
			s.logger.Info().Str("event", events.Name(event)).Msg("Received event")
		}
	}
}
