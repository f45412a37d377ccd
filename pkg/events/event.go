package events

import (
	"github.com/etesdev/etes/pkg/types"
)

// Type identifies an event variant on the wire.
type Type string

const (
	TypeGithubRefresh    Type = "github_refresh"
	TypeStartService     Type = "start_service"
	TypeStopService      Type = "stop_service"
	TypeError            Type = "error"
	TypeGithubState      Type = "github_state"
	TypeServiceState     Type = "service_state"
	TypeExecutablesState Type = "executables_state"
	TypeMemoryState      Type = "memory_state"
)

// Event is a single message on the bus. The concrete variants are the
// structs below; Type is the discriminator used by Marshal and Unmarshal.
type Event interface {
	Type() Type
}

// GithubRefresh asks the GitHub worker to refetch repository metadata.
type GithubRefresh struct {
	User types.User `json:"user"`
}

// StartService asks the supervisor to start a service for an executable.
// Only the executable's build hash is consulted; the trigger hash rides
// along because the frontend sends the full executable reference.
type StartService struct {
	Executable types.ExecutableData `json:"executable"`
	Name       string               `json:"name"`
	User       types.User           `json:"user"`
}

// StopService asks the supervisor to stop a named service.
type StopService struct {
	Name string     `json:"name"`
	User types.User `json:"user"`
}

// Error reports a failed operation back to the user that requested it.
type Error struct {
	Message string     `json:"message"`
	User    types.User `json:"user"`
}

// GithubState carries a fresh snapshot of repository metadata.
type GithubState struct {
	Payload types.GitHubState `json:"payload"`
}

// ServiceState carries the current list of supervised services.
type ServiceState struct {
	Services []types.ServiceData `json:"services"`
}

// ExecutablesState carries the current list of registered executables.
type ExecutablesState struct {
	Executables []types.ExecutableData `json:"executables"`
}

// MemoryState carries a host memory sample.
type MemoryState struct {
	Used  uint64 `json:"used"`
	Total uint64 `json:"total"`
}

func (GithubRefresh) Type() Type    { return TypeGithubRefresh }
func (StartService) Type() Type     { return TypeStartService }
func (StopService) Type() Type      { return TypeStopService }
func (Error) Type() Type            { return TypeError }
func (GithubState) Type() Type      { return TypeGithubState }
func (ServiceState) Type() Type     { return TypeServiceState }
func (ExecutablesState) Type() Type { return TypeExecutablesState }
func (MemoryState) Type() Type      { return TypeMemoryState }

// Name returns the label used when logging an event. Start requests are
// logged as "run"; every other variant is logged by its wire type.
func Name(e Event) string {
	if _, ok := e.(StartService); ok {
		return "run"
	}
	return string(e.Type())
}

// Caller returns the user that triggered the event. Only the variants
// that carry a user have a caller.
func Caller(e Event) (types.User, bool) {
	switch v := e.(type) {
	case GithubRefresh:
		return v.User, true
	case StartService:
		return v.User, true
	case StopService:
		return v.User, true
	case Error:
		return v.User, true
	}
	return types.User{}, false
}

// IsClientEvent reports whether observers are allowed to submit the
// event over a websocket session.
func IsClientEvent(e Event) bool {
	switch e.(type) {
	case GithubRefresh, StartService, StopService:
		return true
	}
	return false
}

// ShouldForward reports whether the event is delivered to the given
// observer. Errors are private to the user whose request failed, and
// client events never echo back out to sessions.
func ShouldForward(e Event, user types.User) bool {
	if v, ok := e.(Error); ok {
		return v.User.Equal(user)
	}
	return !IsClientEvent(e)
}

// WithUser returns a copy of the event stamped with the given user.
// Client events and errors are re-stamped; every other variant is
// returned unchanged.
func WithUser(e Event, user types.User) Event {
	switch v := e.(type) {
	case GithubRefresh:
		v.User = user
		return v
	case StartService:
		v.User = user
		return v
	case StopService:
		v.User = user
		return v
	case Error:
		v.User = user
		return v
	}
	return e
}
