package api

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/etesdev/etes/pkg/events"
	"github.com/etesdev/etes/pkg/httperr"
	"github.com/etesdev/etes/pkg/metrics"
	"github.com/etesdev/etes/pkg/util"
)

// handleUpload accepts a freshly built binary from CI and registers it
// under its (trigger, build) commit pair.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	triggerHash := chi.URLParam(r, "trigger_hash")
	buildHash := chi.URLParam(r, "build_hash")

	if !util.IsValidHash(triggerHash) || !util.IsValidHash(buildHash) {
		httperr.Write(w, httperr.Client("Invalid commit hash"))
		return
	}

	s.logger.Info().Str("trigger", triggerHash).Str("build", buildHash).Msg("Incoming upload")

	if err := s.checkUploadKey(r); err != nil {
		s.logger.Error().Err(err).Str("trigger", triggerHash).Str("build", buildHash).Msg("Rejected upload")
		httperr.Write(w, err)
		return
	}

	executable := s.registry.ExecutableFor(buildHash, triggerHash)
	size, err := writeArtifact(executable.Path, r.Body)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	s.logger.Info().Str("trigger", triggerHash).Str("build", buildHash).Int64("bytes", size).Msg("Upload complete")
	metrics.Uploads.Inc()
	metrics.UploadBytes.Observe(float64(size))

	s.registry.Refresh()
	s.broker.Publish(events.ExecutablesState{Executables: s.registry.Executables()})

	// Fresh metadata usually references the uploaded commit. A failed
	// fetch only delays the update until the next periodic refresh.
	if err := s.github.Update(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch GitHub data")
	} else {
		s.broker.Publish(events.GithubState{Payload: s.github.State()})
	}

	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, "Upload of executable for %s and %s successful", triggerHash, buildHash)
}

// checkUploadKey validates the bearer token against the configured API
// key in constant time.
func (s *Server) checkUploadKey(r *http.Request) error {
	header := r.Header.Get("Authorization")
	if header == "" {
		return httperr.Client("No authorization header found")
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return httperr.Client("Missing 'Bearer' in authorization header value")
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.APIKey)) != 1 {
		return httperr.Client("Invalid API key")
	}
	return nil
}

// writeArtifact streams body to path, replacing any previous artifact,
// and marks the result executable.
func writeArtifact(path string, body io.Reader) (int64, error) {
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return 0, httperr.Wrap("Failed to remove existing file", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, httperr.Wrap("Failed to create file", err)
	}

	writer := bufio.NewWriter(file)
	size, err := io.Copy(writer, body)
	if err != nil {
		file.Close()
		return 0, httperr.Wrap("Failed to write file", err)
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return 0, httperr.Wrap("Failed to write file", err)
	}
	if err := file.Close(); err != nil {
		return 0, httperr.Wrap("Failed to write file", err)
	}

	if err := os.Chmod(path, 0o755); err != nil {
		return 0, httperr.Wrap("Failed to make file executable", err)
	}
	return size, nil
}
