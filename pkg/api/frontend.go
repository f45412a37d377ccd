package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/etesdev/etes/pkg/config"
	"github.com/etesdev/etes/pkg/log"
)

// frontend serves the built single-page frontend from the web directory.
type frontend struct {
	dir    string
	index  []byte
	files  http.Handler
	logger zerolog.Logger
}

// newFrontend loads the index page and patches the favicon and title
// placeholders. A missing web directory leaves the frontend disabled;
// the API routes keep working.
func newFrontend(cfg *config.Config) *frontend {
	f := &frontend{dir: cfg.WebDir, logger: log.WithComponent("frontend")}

	index, err := os.ReadFile(filepath.Join(cfg.WebDir, "index.html"))
	if err != nil {
		f.logger.Warn().Err(err).Str("dir", cfg.WebDir).Msg("Frontend assets not found")
		return f
	}

	page := strings.ReplaceAll(string(index), "%FAVICON%", cfg.Favicon)
	page = strings.ReplaceAll(page, "%TITLE%", cfg.Title)
	f.index = []byte(page)
	f.files = http.FileServer(http.Dir(cfg.WebDir))
	return f
}

// ServeHTTP serves files that exist on disk and falls back to the index
// page for everything else, so client-side routes survive a reload.
func (f *frontend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.index == nil {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(f.dir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		f.files.ServeHTTP(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(f.index); err != nil {
		f.logger.Error().Err(err).Msg("Failed to write index page")
	}
}
