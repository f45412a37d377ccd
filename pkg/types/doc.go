/*
Package types defines the shared serializable domain model of etes.

This package contains the types that cross the wire between the server, the
browser frontend, and observer sessions: principals, service and executable
projections, upstream repository metadata, and the initial-state snapshot.
All other packages depend on types; types depends only on util and httperr.

# Core Types

Principals:
  - User: anonymous (opaque id) or GitHub (OAuth identity); untagged JSON
  - GitHubUser: login, display name, avatar; equality by login

Service lifecycle:
  - ServiceState: pending, running, error
  - ServiceData: client-facing projection of one service

Artifacts:
  - ExecutableData: build hash + trigger hash pair

Upstream metadata:
  - GitHubState: commits, releases, open pulls
  - WorkflowStatus: CI rollup (PENDING/ERROR/EXPECTED/FAILURE/SUCCESS)

Snapshots:
  - MemoryState: host memory gauge
  - InitialState: composed snapshot served at /etes/api/v1/data/{caller}

# Wire Encoding

Everything here uses camelCase JSON except User and GitHubUser, which keep
the field names the GitHub API returns (login, name, avatar_url). User is
untagged: a bare JSON string is an anonymous id, an object is a GitHub
identity. ServiceData.Creator is always hashed for anonymous users before
serialization so session identifiers never leak to other observers.

# Design Patterns

Enumerations are typed string constants:

	type ServiceState string
	const ServiceStateRunning ServiceState = "running"

Optional wire fields use pointers when the frontend distinguishes null from
absent (ServiceData.Error), and omitempty when absence is the signal
(Commit.URL).
*/
package types
