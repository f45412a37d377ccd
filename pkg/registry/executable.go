package registry

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/etesdev/etes/pkg/types"
	"github.com/etesdev/etes/pkg/util"
)

// Extension is the suffix every registered artifact carries on disk.
const Extension = ".bin"

// Executable is one artifact on disk: the binary built from Hash, uploaded
// by the CI run that TriggerHash started. For release builds both hashes are
// the same commit. Executables have value semantics and may be copied freely.
type Executable struct {
	Path        string
	Hash        string
	TriggerHash string
}

// ExecutableFor derives the canonical on-disk location for a (build,
// trigger) pair inside dir: "<hash>.bin" when the build was triggered by
// its own commit, "<trigger>_<hash>.bin" otherwise.
func ExecutableFor(dir, hash, triggerHash string) Executable {
	name := hash + Extension
	if hash != triggerHash {
		name = fmt.Sprintf("%s_%s%s", triggerHash, hash, Extension)
	}
	return Executable{
		Path:        filepath.Join(dir, name),
		Hash:        hash,
		TriggerHash: triggerHash,
	}
}

// parseExecutable reconstructs an Executable from a directory entry name.
// Filenames that do not follow the naming scheme yield ok=false and are
// skipped by the scanner.
func parseExecutable(dir, name string) (Executable, bool) {
	stem, found := strings.CutSuffix(name, Extension)
	if !found {
		return Executable{}, false
	}

	hash := stem
	triggerHash := stem
	if trigger, build, found := strings.Cut(stem, "_"); found {
		triggerHash = trigger
		hash = build
	}

	if !util.IsValidHash(hash) || !util.IsValidHash(triggerHash) {
		return Executable{}, false
	}

	return Executable{
		Path:        filepath.Join(dir, name),
		Hash:        hash,
		TriggerHash: triggerHash,
	}, true
}

// Matches reports whether the executable was built from or triggered by
// the given commit.
func (e Executable) Matches(commit string) bool {
	return e.Hash == commit || e.TriggerHash == commit
}

// Data returns the client-facing projection of the executable.
func (e Executable) Data() types.ExecutableData {
	return types.ExecutableData{Hash: e.Hash, TriggerHash: e.TriggerHash}
}
