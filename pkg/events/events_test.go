package events

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etesdev/etes/pkg/types"
)

func TestMarshalTaggedEncoding(t *testing.T) {
	frank := types.AnonymousUser("frank")

	tests := []struct {
		name  string
		event Event
		json  string
	}{
		{
			name: "start service",
			event: StartService{
				Executable: types.ExecutableData{Hash: strings.Repeat("f", 40), TriggerHash: strings.Repeat("f", 40)},
				Name:       "foobar",
				User:       frank,
			},
			json: `{"type":"start_service","executable":{"hash":"ffffffffffffffffffffffffffffffffffffffff","triggerHash":"ffffffffffffffffffffffffffffffffffffffff"},"name":"foobar","user":"frank"}`,
		},
		{
			name:  "stop service",
			event: StopService{Name: "foobar", User: frank},
			json:  `{"type":"stop_service","name":"foobar","user":"frank"}`,
		},
		{
			name:  "github refresh",
			event: GithubRefresh{User: frank},
			json:  `{"type":"github_refresh","user":"frank"}`,
		},
		{
			name:  "error",
			event: Error{Message: "Failed to start service: no free port", User: frank},
			json:  `{"type":"error","message":"Failed to start service: no free port","user":"frank"}`,
		},
		{
			name:  "memory state",
			event: MemoryState{Used: 1024, Total: 4096},
			json:  `{"type":"memory_state","used":1024,"total":4096}`,
		},
		{
			name:  "service state",
			event: ServiceState{Services: []types.ServiceData{}},
			json:  `{"type":"service_state","services":[]}`,
		},
		{
			name:  "executables state",
			event: ExecutablesState{Executables: []types.ExecutableData{{Hash: "aa", TriggerHash: "bb"}}},
			json:  `{"type":"executables_state","executables":[{"hash":"aa","triggerHash":"bb"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(data))

			decoded, err := Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, tt.event, decoded)
		})
	}
}

func TestUnmarshalDispatch(t *testing.T) {
	// The frontend may omit triggerHash; only the build hash is required.
	event, err := Unmarshal([]byte(`{"type":"start_service","executable":{"hash":"abc"},"name":"foobar","user":"frank"}`))
	require.NoError(t, err)

	start, ok := event.(StartService)
	require.True(t, ok)
	assert.Equal(t, "abc", start.Executable.Hash)
	assert.Empty(t, start.Executable.TriggerHash)
	assert.Equal(t, "foobar", start.Name)
	assert.True(t, start.User.Equal(types.AnonymousUser("frank")))
}

func TestUnmarshalGithubUserPrincipal(t *testing.T) {
	event, err := Unmarshal([]byte(`{"type":"github_refresh","user":{"login":"octocat","name":"The Octocat","avatar_url":"https://example.com/a.png"}}`))
	require.NoError(t, err)

	refresh, ok := event.(GithubRefresh)
	require.True(t, ok)
	github, ok := refresh.User.GitHub()
	require.True(t, ok)
	assert.Equal(t, "octocat", github.Login)
}

func TestUnmarshalRejectsUnknownType(t *testing.T) {
	_, err := Unmarshal([]byte(`{"type":"drop_tables"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")

	_, err = Unmarshal([]byte(`not json`))
	require.Error(t, err)
}

func TestName(t *testing.T) {
	assert.Equal(t, "run", Name(StartService{}))
	assert.Equal(t, "stop_service", Name(StopService{}))
	assert.Equal(t, "memory_state", Name(MemoryState{}))
	assert.Equal(t, "error", Name(Error{}))
}

func TestCaller(t *testing.T) {
	frank := types.AnonymousUser("frank")

	for _, event := range []Event{
		GithubRefresh{User: frank},
		StartService{User: frank},
		StopService{User: frank},
		Error{User: frank},
	} {
		caller, ok := Caller(event)
		assert.True(t, ok, "expected a caller for %s", event.Type())
		assert.True(t, caller.Equal(frank))
	}

	for _, event := range []Event{
		GithubState{},
		ServiceState{},
		ExecutablesState{},
		MemoryState{},
	} {
		_, ok := Caller(event)
		assert.False(t, ok, "expected no caller for %s", event.Type())
	}
}

func TestShouldForward(t *testing.T) {
	frank := types.AnonymousUser("frank")
	mallory := types.AnonymousUser("mallory")

	tests := []struct {
		name  string
		event Event
		user  types.User
		want  bool
	}{
		{"error to its caller", Error{Message: "boom", User: frank}, frank, true},
		{"error to another user", Error{Message: "boom", User: frank}, mallory, false},
		{"start never echoes", StartService{Name: "x", User: frank}, frank, false},
		{"stop never echoes", StopService{Name: "x", User: frank}, frank, false},
		{"refresh never echoes", GithubRefresh{User: frank}, frank, false},
		{"github state broadcasts", GithubState{}, frank, true},
		{"service state broadcasts", ServiceState{}, frank, true},
		{"executables state broadcasts", ExecutablesState{}, frank, true},
		{"memory state broadcasts", MemoryState{}, frank, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldForward(tt.event, tt.user))
		})
	}
}

func TestWithUser(t *testing.T) {
	frank := types.AnonymousUser("frank")
	mallory := types.AnonymousUser("mallory")

	restamped := WithUser(StartService{Executable: types.ExecutableData{Hash: "abc"}, Name: "x", User: mallory}, frank)
	start, ok := restamped.(StartService)
	require.True(t, ok)
	assert.True(t, start.User.Equal(frank))
	assert.Equal(t, "abc", start.Executable.Hash)

	restamped = WithUser(Error{Message: "boom", User: mallory}, frank)
	errEvent, ok := restamped.(Error)
	require.True(t, ok)
	assert.True(t, errEvent.User.Equal(frank))

	unchanged := WithUser(MemoryState{Used: 1, Total: 2}, frank)
	assert.Equal(t, MemoryState{Used: 1, Total: 2}, unchanged)
}
