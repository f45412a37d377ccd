package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServiceDataJSON pins the wire shape consumed by the frontend
func TestServiceDataJSON(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	svc := ServiceData{
		Name: "proud-otter-flies",
		Port: 4201,
		Executable: ExecutableData{
			Hash:        "4f5d3be66fb5324eda7c05c9d95b777f057d25f9",
			TriggerHash: "4f5d3be66fb5324eda7c05c9d95b777f057d25f9",
		},
		State:     ServiceStateRunning,
		Creator:   AnonymousUser("frank"),
		CreatedAt: created,
	}

	data, err := json.Marshal(svc)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"name": "proud-otter-flies",
		"port": 4201,
		"executable": {
			"hash": "4f5d3be66fb5324eda7c05c9d95b777f057d25f9",
			"triggerHash": "4f5d3be66fb5324eda7c05c9d95b777f057d25f9"
		},
		"state": "running",
		"creator": "frank",
		"error": null,
		"createdAt": "2025-03-14T09:26:53Z"
	}`, string(data))
}

// TestServiceDataErrorField verifies the error message is carried when set
func TestServiceDataErrorField(t *testing.T) {
	msg := "Failed to start service: no free port"
	svc := ServiceData{
		Name:  "sad-panda-waits",
		State: ServiceStateError,
		Error: &msg,
	}

	data, err := json.Marshal(svc)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, msg, decoded["error"])
	assert.Equal(t, "error", decoded["state"])
}

// TestExecutableDataJSON pins the camelCase trigger hash field
func TestExecutableDataJSON(t *testing.T) {
	exe := ExecutableData{
		Hash:        "2222222222222222222222222222222222222222",
		TriggerHash: "1111111111111111111111111111111111111111",
	}

	data, err := json.Marshal(exe)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"hash": "2222222222222222222222222222222222222222",
		"triggerHash": "1111111111111111111111111111111111111111"
	}`, string(data))
}

// TestGitHubStateValidCommits verifies which build hashes are deployable
func TestGitHubStateValidCommits(t *testing.T) {
	state := GitHubState{
		Releases: []Release{
			{Name: "v1.0.0", Commit: Commit{Hash: "aaaa000000000000000000000000000000000000"}},
			{Name: "v1.1.0", Commit: Commit{Hash: "bbbb000000000000000000000000000000000000"}},
		},
		Pulls: []Pull{
			{Number: 1, Status: WorkflowSuccess, Commit: Commit{Hash: "cccc000000000000000000000000000000000000"}},
			{Number: 2, Status: WorkflowPending, Commit: Commit{Hash: "dddd000000000000000000000000000000000000"}},
			{Number: 3, Status: WorkflowFailure, Commit: Commit{Hash: "eeee000000000000000000000000000000000000"}},
		},
	}

	valid := state.ValidCommits()
	assert.ElementsMatch(t, []string{
		"aaaa000000000000000000000000000000000000",
		"bbbb000000000000000000000000000000000000",
		"cccc000000000000000000000000000000000000",
	}, valid)
}

// TestGitHubStateJSON pins the nested camelCase encoding
func TestGitHubStateJSON(t *testing.T) {
	created := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	url := "https://github.com/owner/repo/commit/abc"
	msg := "Fix the fix"
	name := "The Octocat"

	state := GitHubState{
		Commits: []Commit{{Date: created, Hash: "abc", URL: url, Message: msg}},
		Releases: []Release{{
			Name:      "v2.0.0",
			URL:       "https://github.com/owner/repo/releases/v2.0.0",
			TagName:   "v2.0.0",
			CreatedAt: created,
			Commit:    Commit{Date: created, Hash: "abc"},
		}},
		Pulls: []Pull{{
			Number:    7,
			CreatedAt: created,
			IsDraft:   false,
			Title:     "Add everything",
			Assignees: []Assignee{{AvatarURL: "https://example.com/a.png", Login: "octocat", Name: &name}},
			Status:    WorkflowSuccess,
			Commit:    Commit{Date: created, Hash: "abc"},
		}},
	}

	data, err := json.Marshal(state)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	commits := decoded["commits"].([]any)
	commit := commits[0].(map[string]any)
	assert.Equal(t, "abc", commit["hash"])
	assert.Equal(t, url, commit["url"])
	assert.Equal(t, msg, commit["message"])

	releases := decoded["releases"].([]any)
	release := releases[0].(map[string]any)
	assert.Equal(t, "v2.0.0", release["tagName"])
	assert.Contains(t, release, "createdAt")

	pulls := decoded["pulls"].([]any)
	pull := pulls[0].(map[string]any)
	assert.Equal(t, false, pull["isDraft"])
	assert.Equal(t, "SUCCESS", pull["status"])

	assignees := pull["assignees"].([]any)
	assignee := assignees[0].(map[string]any)
	assert.Equal(t, "octocat", assignee["login"])
	assert.Equal(t, "https://example.com/a.png", assignee["avatarUrl"])
}

// TestCommitOptionalFields verifies url and message are omitted when absent
func TestCommitOptionalFields(t *testing.T) {
	commit := Commit{Date: time.Now(), Hash: "abc"}

	data, err := json.Marshal(commit)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "url")
	assert.NotContains(t, decoded, "message")
}

// TestAssigneeNullableName verifies name is serialized even when nil
func TestAssigneeNullableName(t *testing.T) {
	assignee := Assignee{AvatarURL: "https://example.com/a.png", Login: "octocat"}

	data, err := json.Marshal(assignee)
	require.NoError(t, err)
	assert.JSONEq(t, `{"avatarUrl":"https://example.com/a.png","login":"octocat","name":null}`, string(data))
}

// TestInitialStateJSON pins top-level snapshot field names
func TestInitialStateJSON(t *testing.T) {
	state := InitialState{
		IsAdmin: true,
		User:    AnonymousUser("frank").HashAnonymous(),
		Title:   "etes",
		BaseURL: "https://github.com/owner/repo",
		Words:   []string{"proud", "otter", "flies"},
	}

	data, err := json.Marshal(state)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "isAdmin")
	assert.Contains(t, decoded, "baseUrl")
	assert.Contains(t, decoded, "memory")
	assert.Contains(t, decoded, "executables")
	assert.Contains(t, decoded, "services")
	assert.Contains(t, decoded, "words")
	assert.Equal(t, "https://github.com/owner/repo", decoded["baseUrl"])
}
