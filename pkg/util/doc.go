/*
Package util provides the shared primitives of etes: grammar checks for
service names and commit hashes, random identifiers, content hashing, the
three-word service name generator, and OS-assigned port allocation.

# Grammars

Service names are non-empty strings shorter than 128 characters drawn from
[A-Za-z0-9-]. Commit hashes are exactly 40 lowercase hexadecimal characters,
matching what git prints for SHA-1 object ids.

# Usage

	if !util.IsValidHash(subdomain) { ... }

	name := util.RandomName(cfg.Words) // e.g. "proud-lazy-otter"

	port, err := util.FreePort()
*/
package util
