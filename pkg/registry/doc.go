/*
Package registry is the filesystem-backed catalog of uploaded executables.

Artifacts arrive pre-built through the upload endpoint and live in a single
flat directory (bin_dir, ./bin by default). The filename is the address: a
binary built from commit <hash> whose CI run was triggered by <trigger> is
stored as

	<hash>.bin              when hash == trigger (release builds)
	<trigger>_<hash>.bin    otherwise (pull request builds)

Both segments must be 40-character lowercase hex commit hashes; anything else
in the directory is ignored by the scanner.

# Snapshot Semantics

The directory is the only persistent state in etes. The in-memory catalog is
rebuilt by a full Refresh at startup and after every upload; there are no
incremental updates and no other writers. Readers get copies, so a snapshot
taken before an upload stays coherent.

# Garbage Collection

Sweep runs once at startup (and via the gc command). An artifact is removed
only when both conditions hold:

  - neither its build nor trigger hash appears in the valid commit set
    (release commits plus green pull request heads), and
  - its file is older than 30 days.

Per-file stat or unlink failures are logged and skipped; a single bad file
never aborts the sweep.

# Usage

	reg := registry.New(cfg.BinDir)
	kept, removed, err := reg.Sweep(github.ValidCommits())

	if executable, ok := reg.FindByCommit(commit); ok {
		// spawn executable.Path
	}
*/
package registry
