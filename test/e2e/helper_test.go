package e2e

import (
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

// TestHelperProcess is not a test. Started services re-execute the test
// binary with "-test.run=TestHelperProcess" so the instance has a real
// child process to supervise. "serve" answers HTTP on the given port and
// echoes the request path, which the proxy tests assert on.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	// The instance does not kill running services on shutdown, so exit
	// when the test binary does; a child that outlives the run holds its
	// stdout pipe and makes go test wait out its WaitDelay and fail.
	parent := os.Getppid()
	go func() {
		for os.Getppid() == parent {
			time.Sleep(100 * time.Millisecond)
		}
		os.Exit(0)
	}()

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	if len(args) < 2 || args[0] != "serve" {
		os.Exit(2)
	}

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "upstream %s", r.URL.Path)
	})
	if err := http.ListenAndServe("127.0.0.1:"+args[1], nil); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

// testBinary returns the bytes of the running test binary, which doubles
// as the artifact under test.
func testBinary(t *testing.T) []byte {
	t.Helper()

	self, err := os.Executable()
	if err != nil {
		t.Fatalf("Failed to locate test binary: %v", err)
	}
	data, err := os.ReadFile(self)
	if err != nil {
		t.Fatalf("Failed to read test binary: %v", err)
	}
	return data
}
