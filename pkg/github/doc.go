/*
Package github caches repository metadata from the GitHub GraphQL API.

One query (query.graphql) fetches the 20 newest default-branch commits,
the 20 newest releases with their tag commits, and the 50 newest open
pull requests with assignees and the CI check rollup of their head
commits. The result is cached in memory and replaced wholesale on every
successful update; there is no polling, only explicit refreshes.

Refreshes arrive as GithubRefresh events on the bus (Run) or as direct
Update calls (startup, after an upload, the gc command). The cache also
answers ValidCommits, the keep set for artifact garbage collection:
every release commit plus every pull head whose rollup is SUCCESS.
*/
package github
