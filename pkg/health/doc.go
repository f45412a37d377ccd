/*
Package health implements the readiness probe for freshly spawned services.

A service counts as ready once it answers an HTTP GET on its assigned port
with a 2xx status. The supervisor polls the root path with a short per-request
timeout and a fixed number of attempts; if the loop is exhausted the service
is declared failed and killed.

# Usage

	checker := health.NewHTTPChecker("http://127.0.0.1:41830/")
	if err := health.WaitReady(ctx, checker, 10, time.Second); err != nil {
		// service never came up
	}

Checker is an interface so tests can substitute deterministic probes.
*/
package health
