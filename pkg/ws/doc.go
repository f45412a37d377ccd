/*
Package ws connects browser observers to the event bus over websockets.

Each connection is one session: the caller identifier in the path (or
the GitHub session cookie, when present) becomes the session's
principal, the session subscribes to the bus, and two pumps run until
either side closes.

Inbound frames must decode to client events (start, stop, refresh);
they are re-stamped with the session's principal before publishing so
a client can never act as somebody else. Anything else is logged and
discarded. Outbound, every bus event passes the filter policy: errors
reach only the user whose request failed, client events never echo.

The bus is lossy, so a session that stops draining misses events; the
frontend recovers by refetching the initial-state snapshot.
*/
package ws
