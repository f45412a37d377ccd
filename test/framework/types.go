package framework

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/etesdev/etes/pkg/config"
	"github.com/etesdev/etes/pkg/manager"
)

// Options tunes a test harness. The zero value is suitable for most
// end-to-end tests.
type Options struct {
	// CommandArgs overrides the argv template for started services. The
	// default re-executes the test binary in helper-process mode, so the
	// test package must define a TestHelperProcess that answers HTTP on
	// the substituted port.
	CommandArgs []string
	// CommandEnv adds environment variables for started services.
	CommandEnv map[string]string
	// GithubAPIURL points the metadata fetch at a stub server. The
	// default is an unreachable loopback endpoint, which the instance
	// tolerates by serving an empty metadata snapshot.
	GithubAPIURL string
	// Admins lists GitHub logins allowed to stop anyone's service.
	Admins []string
	// KeepArtifacts keeps the artifact directory after Cleanup (for
	// debugging failed runs).
	KeepArtifacts bool
}

// Harness runs one in-process instance under test: both listeners on
// free loopback ports and a temporary artifact directory.
type Harness struct {
	// Config is the instance configuration. Tests may read it for the
	// listener addresses, the upload key, or the word list.
	Config *config.Config
	// App is the running instance.
	App *manager.App

	cancel context.CancelFunc
	done   chan error
	keep   bool
}

// Client drives an instance's public HTTP surface: the management API,
// the websocket endpoint, and the wildcard-host proxy.
type Client struct {
	// management and proxy are the listener addresses (host:port).
	management string
	proxy      string
	// http never follows redirects so tests can assert on them.
	http *http.Client
}

// Session is one connected websocket observer.
type Session struct {
	conn *websocket.Conn
}

// Waiter polls the snapshot endpoint until a condition holds.
type Waiter struct {
	// Timeout bounds the whole wait.
	Timeout time.Duration
	// Interval is the polling cadence.
	Interval time.Duration
}
