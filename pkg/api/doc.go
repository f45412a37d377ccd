/*
Package api serves the management surface: the JSON API the frontend
talks to, the websocket endpoint, the OAuth routes, the CI upload
endpoint, Prometheus metrics, and the frontend itself.

# Routes

	GET /etes/login                                     start the OAuth flow
	GET /etes/logout                                    drop the session
	GET /etes/authorize                                 OAuth callback

	GET /etes/api/v1/data/{caller}                      initial-state snapshot
	GET /etes/api/v1/ws/{caller}                        observer websocket
	PUT /etes/api/v1/executable/{trigger_hash}/{build_hash}  CI upload

	GET /metrics                                        Prometheus metrics
	*                                                   frontend (SPA fallback)

The listener is meant to sit behind a TLS-terminating proxy on
localhost; nothing here speaks TLS itself.

# Upload Contract

CI uploads a freshly built binary with PUT, authenticated by a bearer
token compared against the configured API key in constant time. The
body is streamed straight to the registry directory, replacing any
previous artifact for the same commit pair, and marked executable.
A successful upload broadcasts the new executable list to all
observers and opportunistically refreshes GitHub metadata so the new
commit shows up without waiting for the next periodic fetch.

# Frontend

The built frontend is served from the configured web directory. The
index page is patched with the configured favicon and title on startup,
and every path that matches no file on disk falls back to it so
client-side routes survive a reload. A missing web directory is not an
error; the API keeps working and frontend routes answer 404.
*/
package api
