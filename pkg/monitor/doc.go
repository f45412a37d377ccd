// Package monitor samples the host memory gauge every ten seconds and
// broadcasts each sample on the event bus. The latest sample is cached
// for the initial-state snapshot.
package monitor
