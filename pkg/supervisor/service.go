package supervisor

import (
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/etesdev/etes/pkg/config"
	"github.com/etesdev/etes/pkg/metrics"
	"github.com/etesdev/etes/pkg/registry"
	"github.com/etesdev/etes/pkg/types"
	"github.com/etesdev/etes/pkg/util"
)

// Service is one supervised child process and its lifecycle state. The
// record is guarded by the supervisor's lock once it is in the map; the
// child itself belongs to the supervising goroutine.
type Service struct {
	name       string
	executable registry.Executable
	port       int
	creator    types.User
	createdAt  time.Time
	state      types.ServiceState
	err        *string
	kill       chan struct{}
}

// newService allocates a port and fills in the initial pending record.
// The child is not spawned yet.
func newService(name string, executable registry.Executable, creator types.User) (*Service, error) {
	port, err := util.FreePort()
	if err != nil {
		return nil, err
	}

	return &Service{
		name:       name,
		executable: executable,
		port:       port,
		creator:    creator,
		createdAt:  time.Now().UTC(),
		state:      types.ServiceStatePending,
	}, nil
}

// spawn starts the child with the configured argv template, each literal
// "{port}" replaced by the allocated port, and hands it to a supervising
// goroutine. On spawn failure the record is marked errored and the error
// returned; the caller still inserts it so observers see what went wrong.
func (s *Service) spawn(cfg *config.Config, logger zerolog.Logger) error {
	args := make([]string, len(cfg.CommandArgs))
	for i, arg := range cfg.CommandArgs {
		args[i] = strings.ReplaceAll(arg, "{port}", strconv.Itoa(s.port))
	}

	cmd := exec.Command(s.executable.Path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(cfg.CommandEnv) > 0 {
		cmd.Env = os.Environ()
		for key, value := range cfg.CommandEnv {
			cmd.Env = append(cmd.Env, key+"="+value)
		}
	}

	if err := cmd.Start(); err != nil {
		message := "Failed to start service: " + err.Error()
		s.state = types.ServiceStateError
		s.err = &message
		return err
	}

	s.kill = make(chan struct{})
	go superviseChild(cmd, s.port, s.kill, logger)
	return nil
}

// signalStop fires the one-shot kill signal. Safe when the child already
// exited; an error means the service never had a child at all.
func (s *Service) signalStop() error {
	if s.kill == nil {
		return errors.New("service has no child process")
	}
	close(s.kill)
	return nil
}

// superviseChild races child exit against the kill signal and collects
// the process either way so it never lingers as a zombie.
func superviseChild(cmd *exec.Cmd, port int, kill <-chan struct{}, logger zerolog.Logger) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error().Err(err).Int("port", port).Msg("Child exited with error")
		}
	case <-kill:
		logger.Info().Int("port", port).Msg("Killing child")
		if err := cmd.Process.Kill(); err != nil {
			logger.Error().Err(err).Int("port", port).Msg("Failed to kill child")
		}
		<-done
	}

	metrics.ServiceStops.Inc()
	logger.Info().Int("port", port).Msg("Finished child")
}

// Data projects the service for clients. Anonymous creator ids are
// hashed and the error string is copied.
func (s *Service) Data() types.ServiceData {
	var errCopy *string
	if s.err != nil {
		message := *s.err
		errCopy = &message
	}

	return types.ServiceData{
		Name:       s.name,
		Port:       s.port,
		Executable: s.executable.Data(),
		State:      s.state,
		Creator:    s.creator.HashAnonymous(),
		Error:      errCopy,
		CreatedAt:  s.createdAt,
	}
}
