/*
Package events defines the event bus that connects every etes component.

All state changes and user commands flow through a single in-memory
broker: websocket sessions publish client commands, the supervisor and
the GitHub and memory workers publish state snapshots, and every
subscriber sees the full stream and filters on its own side.

# Architecture

	┌────────────────────── EVENT BUS ──────────────────────┐
	│                                                        │
	│  Publishers                 Subscribers                │
	│  ──────────                 ───────────                │
	│  websocket sessions   ┌──►  supervisor dispatcher      │
	│  supervisor          ─┤     GitHub refresh worker      │
	│  GitHub worker        │     websocket sessions         │
	│  memory monitor       └──►  (one channel each)         │
	│                                                        │
	│  Publish → event channel (512) → broadcast loop        │
	│          → subscriber channels (512 each, lossy)       │
	└────────────────────────────────────────────────────────┘

# Event Variants

Client events (submitted by sessions, never echoed back out):

  - GithubRefresh: refetch repository metadata
  - StartService: start a service for an executable (logged as "run")
  - StopService: stop a named service

Server events (broadcast to sessions):

  - GithubState: repository metadata snapshot
  - ServiceState: full service list snapshot
  - ExecutablesState: full executable list snapshot
  - MemoryState: host memory sample

Error is the odd one out: published by workers but forwarded only to
the session of the user whose request failed.

# Wire Encoding

Events cross the websocket as a single JSON object tagged with a
snake_case "type" field:

	{"type":"start_service","executable":{"hash":"4f5d…","triggerHash":"4f5d…"},"name":"proud-otter","user":"frank"}
	{"type":"memory_state","used":1073741824,"total":8589934592}

Marshal and Unmarshal implement the tagged encoding; Unmarshal rejects
unknown types so sessions cannot inject arbitrary variants.

# Delivery Semantics

The broker is bounded and lossy. Publish queues onto a channel of
Capacity events; a broadcast loop fans each event out to per-subscriber
channels of the same size with a non-blocking send. A subscriber that
stops draining loses events rather than stalling the bus. Publishing
with no subscribers logs a warning and drops the event.

Ordering is preserved per subscriber as long as the subscriber keeps
up. There is no replay: new subscribers only see events published after
they subscribe, which is why sessions bootstrap from the initial-state
snapshot endpoint instead of the bus.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			if !events.ShouldForward(event, user) {
				continue
			}
			// deliver to the session
		}
	}()

	broker.Publish(events.MemoryState{Used: used, Total: total})

# Best Practices

Do:
  - Drain subscriber channels promptly; slow consumers drop events
  - Re-stamp inbound client events with WithUser before publishing
  - Filter with ShouldForward on the consumer side

Don't:
  - Publish before Start or after Stop
  - Rely on delivery for anything that must not be lost
  - Forward Error events to anyone but their caller
*/
package events
