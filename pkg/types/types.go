package types

import (
	"time"
)

// ServiceState is the lifecycle state of a running service.
type ServiceState string

const (
	// ServiceStatePending means the child process was spawned and the
	// readiness probe has not succeeded yet.
	ServiceStatePending ServiceState = "pending"
	// ServiceStateRunning means the readiness probe saw a 2xx response.
	ServiceStateRunning ServiceState = "running"
	// ServiceStateError means the spawn failed or the probe timed out.
	ServiceStateError ServiceState = "error"
)

// ExecutableData is the client-facing projection of an artifact: the commit
// that was built and the commit whose CI triggered the build.
type ExecutableData struct {
	Hash        string `json:"hash"`
	TriggerHash string `json:"triggerHash"`
}

// ServiceData is the client-facing projection of a service. Anonymous
// creator ids are hashed before they reach any observer.
type ServiceData struct {
	Name       string         `json:"name"`
	Port       int            `json:"port"`
	Executable ExecutableData `json:"executable"`
	State      ServiceState   `json:"state"`
	Creator    User           `json:"creator"`
	Error      *string        `json:"error"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// WorkflowStatus is the CI check rollup state of a pull request head.
type WorkflowStatus string

const (
	WorkflowPending  WorkflowStatus = "PENDING"
	WorkflowError    WorkflowStatus = "ERROR"
	WorkflowExpected WorkflowStatus = "EXPECTED"
	WorkflowFailure  WorkflowStatus = "FAILURE"
	WorkflowSuccess  WorkflowStatus = "SUCCESS"
)

// Commit is a single commit reference from the upstream repository.
type Commit struct {
	Date    time.Time `json:"date"`
	Hash    string    `json:"hash"`
	URL     string    `json:"url,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Release is a published release and the commit its tag points at.
type Release struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	TagName   string    `json:"tagName"`
	CreatedAt time.Time `json:"createdAt"`
	Commit    Commit    `json:"commit"`
}

// Assignee is a user assigned to a pull request.
type Assignee struct {
	AvatarURL string  `json:"avatarUrl"`
	Login     string  `json:"login"`
	Name      *string `json:"name"`
}

// Pull is an open pull request with its head commit and CI rollup state.
type Pull struct {
	Number    int64          `json:"number"`
	CreatedAt time.Time      `json:"createdAt"`
	IsDraft   bool           `json:"isDraft"`
	Title     string         `json:"title"`
	Assignees []Assignee     `json:"assignees"`
	Status    WorkflowStatus `json:"status"`
	Commit    Commit         `json:"commit"`
}

// GitHubState is the cached upstream metadata: recent default-branch
// commits, releases, and open pull requests.
type GitHubState struct {
	Commits  []Commit  `json:"commits"`
	Releases []Release `json:"releases"`
	Pulls    []Pull    `json:"pulls"`
}

// ValidCommits returns the set of commit hashes considered live: every
// release commit plus every pull request head whose CI rollup is SUCCESS.
// Only the artifact garbage collector consumes this.
func (s GitHubState) ValidCommits() []string {
	hashes := make([]string, 0, len(s.Releases)+len(s.Pulls))
	for _, release := range s.Releases {
		hashes = append(hashes, release.Commit.Hash)
	}
	for _, pull := range s.Pulls {
		if pull.Status == WorkflowSuccess {
			hashes = append(hashes, pull.Commit.Hash)
		}
	}
	return hashes
}

// MemoryState is a host memory gauge sample in bytes.
type MemoryState struct {
	Used  uint64 `json:"used"`
	Total uint64 `json:"total"`
}

// InitialState is the snapshot a client fetches on page load or after an
// observer session fell behind and reconnected.
type InitialState struct {
	IsAdmin     bool             `json:"isAdmin"`
	User        User             `json:"user"`
	Title       string           `json:"title"`
	BaseURL     string           `json:"baseUrl"`
	Github      GitHubState      `json:"github"`
	Memory      MemoryState      `json:"memory"`
	Executables []ExecutableData `json:"executables"`
	Services    []ServiceData    `json:"services"`
	Words       []string         `json:"words"`
}
