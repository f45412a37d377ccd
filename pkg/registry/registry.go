package registry

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/etesdev/etes/pkg/log"
	"github.com/etesdev/etes/pkg/types"
)

// maxAge is how long an artifact survives after its commit stopped being
// referenced by any release or green pull request.
const maxAge = 30 * 24 * time.Hour

// Registry is the filesystem-backed catalog of uploaded executables. The
// directory is the source of truth; the in-memory snapshot is rebuilt by a
// full Refresh after every upload and at startup, never incrementally.
type Registry struct {
	dir    string
	logger zerolog.Logger

	mu          sync.RWMutex
	executables []Executable
}

// New creates a registry over dir. The directory is created on first Sweep;
// until then a missing directory scans as empty.
func New(dir string) *Registry {
	return &Registry{
		dir:    dir,
		logger: log.WithComponent("registry"),
	}
}

// Dir returns the registry directory.
func (r *Registry) Dir() string {
	return r.dir
}

// ExecutableFor derives the on-disk location for a (build, trigger) pair
// inside the registry directory.
func (r *Registry) ExecutableFor(hash, triggerHash string) Executable {
	return ExecutableFor(r.dir, hash, triggerHash)
}

// scan enumerates the registry directory and parses every well-formed
// artifact filename. Enumeration failure is not fatal: it logs a warning
// and yields an empty catalog, matching a freshly provisioned host.
func (r *Registry) scan() []Executable {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		r.logger.Warn().Err(err).Str("dir", r.dir).Msg("Failed to scan executables")
		return nil
	}

	executables := make([]Executable, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if executable, ok := parseExecutable(r.dir, entry.Name()); ok {
			executables = append(executables, executable)
		}
	}
	return executables
}

// Refresh rebuilds the snapshot from the directory.
func (r *Registry) Refresh() {
	executables := r.scan()

	r.mu.Lock()
	r.executables = executables
	r.mu.Unlock()
}

// Snapshot returns a copy of the current catalog.
func (r *Registry) Snapshot() []Executable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]Executable, len(r.executables))
	copy(snapshot, r.executables)
	return snapshot
}

// Executables returns the catalog as client-facing projections.
func (r *Registry) Executables() []types.ExecutableData {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := make([]types.ExecutableData, 0, len(r.executables))
	for _, executable := range r.executables {
		data = append(data, executable.Data())
	}
	return data
}

// FindByCommit returns an executable whose build or trigger hash equals
// commit. When duplicates exist the first match in scan order wins; scan
// order follows directory enumeration and is not defined further.
func (r *Registry) FindByCommit(commit string) (Executable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, executable := range r.executables {
		if executable.Matches(commit) {
			return executable, true
		}
	}
	return Executable{}, false
}

// Sweep removes artifacts that are older than 30 days and no longer
// referenced by validCommits. Referenced artifacts are kept regardless of
// age, recent artifacts regardless of reference. Per-file errors are logged
// and skipped so one bad artifact never aborts the collection. The snapshot
// is refreshed afterwards.
func (r *Registry) Sweep(validCommits []string) (kept, removed int, err error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("create registry dir %s: %w", r.dir, err)
	}

	valid := make(map[string]struct{}, len(validCommits))
	for _, commit := range validCommits {
		valid[commit] = struct{}{}
	}

	for _, executable := range r.scan() {
		if r.sweepOne(executable, valid) {
			removed++
		} else {
			kept++
		}
	}

	r.Refresh()
	return kept, removed, nil
}

// sweepOne decides the fate of a single artifact and reports whether it
// was removed.
func (r *Registry) sweepOne(executable Executable, valid map[string]struct{}) bool {
	if _, ok := valid[executable.Hash]; ok {
		return false
	}
	if _, ok := valid[executable.TriggerHash]; ok {
		return false
	}

	info, err := os.Stat(executable.Path)
	if err != nil {
		r.logger.Warn().Err(err).Str("path", executable.Path).Msg("Keeping unreadable executable")
		return false
	}

	// Artifacts are write-once, so the modification time is the upload time.
	age := time.Since(info.ModTime())
	if age <= maxAge {
		r.logger.Info().
			Str("path", executable.Path).
			Int64("age_days", int64(age.Hours()/24)).
			Msg("Keeping recent executable")
		return false
	}

	if err := os.Remove(executable.Path); err != nil {
		r.logger.Warn().Err(err).Str("path", executable.Path).Msg("Failed to remove old executable")
		return false
	}

	r.logger.Info().Str("path", executable.Path).Msg("Removing old executable")
	return true
}
