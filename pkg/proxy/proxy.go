package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/etesdev/etes/pkg/auth"
	"github.com/etesdev/etes/pkg/config"
	"github.com/etesdev/etes/pkg/events"
	"github.com/etesdev/etes/pkg/log"
	"github.com/etesdev/etes/pkg/metrics"
	"github.com/etesdev/etes/pkg/types"
	"github.com/etesdev/etes/pkg/util"
)

const shutdownTimeout = 10 * time.Second

// notFoundPage links stray visitors back to the portal on the parent domain.
const notFoundPage = `<h1>No service found on this domain.</h1><h2>Visit <a href="https://%s">%s</a> to view a list of running instances.</h2>`

// ServiceDirectory is the view of the supervisor the proxy routes by.
type ServiceDirectory interface {
	// PortOf returns the loopback port of a named service.
	PortOf(name string) (int, bool)
	// NameOfCommit returns a service whose artifact matches the commit.
	NameOfCommit(commit string) (string, bool)
}

// Proxy is the wildcard-host reverse proxy in front of all services.
type Proxy struct {
	cfg      *config.Config
	services ServiceDirectory
	broker   *events.Broker
	auth     *auth.Service
	logger   zerolog.Logger
	server   *http.Server
}

// New creates a proxy over the given service directory. Implicit starts
// are published to the broker; auth resolves the session cookie so
// logged-in users own the services their visits start.
func New(cfg *config.Config, services ServiceDirectory, broker *events.Broker, authSvc *auth.Service) *Proxy {
	p := &Proxy{
		cfg:      cfg,
		services: services,
		broker:   broker,
		auth:     authSvc,
		logger:   log.WithComponent("proxy"),
	}
	p.server = &http.Server{
		Addr:         cfg.ProxyAddr,
		Handler:      http.HandlerFunc(p.handle),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return p
}

// Run serves the proxy until ctx is cancelled, then drains in-flight
// requests.
func (p *Proxy) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", p.cfg.ProxyAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", p.cfg.ProxyAddr, err)
	}

	p.logger.Info().Str("addr", p.cfg.ProxyAddr).Msg("Proxy listening")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- p.server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("proxy server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := p.server.Shutdown(shutdownCtx); err != nil {
		p.logger.Error().Err(err).Msg("Failed to shut down proxy server")
	}
	return ctx.Err()
}

// handle dispatches a request on its Host header.
func (p *Proxy) handle(w http.ResponseWriter, r *http.Request) {
	subdomain, domain := splitHost(r.Host)

	if util.IsValidHash(subdomain) {
		p.redirectToService(w, r, subdomain, domain)
		return
	}

	port, ok := p.services.PortOf(subdomain)
	if !ok {
		p.notFound(w, domain)
		return
	}

	p.forward(w, r, subdomain, port)
}

// redirectToService sends the browser to the service running the given
// commit. When none is running one is started under a fresh random name;
// the start is published to the bus and races the redirect, so the
// browser may land on the service while it is still pending.
func (p *Proxy) redirectToService(w http.ResponseWriter, r *http.Request, commit, domain string) {
	if name, ok := p.services.NameOfCommit(commit); ok {
		metrics.ProxyRequests.WithLabelValues("redirect").Inc()
		http.Redirect(w, r, fmt.Sprintf("https://%s.%s", name, domain), http.StatusTemporaryRedirect)
		return
	}

	user := p.principal(r)
	name := util.RandomName(p.cfg.Words)

	p.logger.Info().Str("service", name).Str("commit", commit).Stringer("user", user).Msg("Starting service for visited commit")
	p.broker.Publish(events.StartService{
		Executable: types.ExecutableData{Hash: commit},
		Name:       name,
		User:       user,
	})

	metrics.ProxyRequests.WithLabelValues("implicit_start").Inc()
	http.Redirect(w, r, fmt.Sprintf("https://%s.%s", name, domain), http.StatusTemporaryRedirect)
}

// principal resolves the acting user behind a proxy request: the GitHub
// session when the request carries one, otherwise a fresh anonymous id.
func (p *Proxy) principal(r *http.Request) types.User {
	if github := p.auth.SessionUser(r); github != nil {
		return types.GitHubUserPrincipal(*github)
	}
	return types.AnonymousUser(util.RandomString())
}

// forward proxies the request to the service's loopback port, keeping
// path and query intact.
func (p *Proxy) forward(w http.ResponseWriter, r *http.Request, name string, port int) {
	target, err := url.Parse(fmt.Sprintf("http://127.0.0.1:%d", port))
	if err != nil {
		p.logger.Error().Err(err).Str("service", name).Msg("Invalid upstream address")
		metrics.ProxyRequests.WithLabelValues("upstream_error").Inc()
		http.Error(w, "Upstream error", http.StatusBadGateway)
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)

	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		// Preserve the original host for services that care about it.
		req.Host = r.Host
		req.Header.Set("X-Forwarded-For", r.RemoteAddr)
		req.Header.Set("X-Forwarded-Proto", "https")
		req.Header.Set("X-Forwarded-Host", r.Host)
	}
	proxy.ModifyResponse = func(*http.Response) error {
		metrics.ProxyRequests.WithLabelValues("forwarded").Inc()
		return nil
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
		p.logger.Error().Err(err).Str("service", name).Int("port", port).Msg("Upstream request failed")
		metrics.ProxyRequests.WithLabelValues("upstream_error").Inc()
		http.Error(w, "Upstream error", http.StatusBadGateway)
	}

	proxy.ServeHTTP(w, r)
}

func (p *Proxy) notFound(w http.ResponseWriter, domain string) {
	metrics.ProxyRequests.WithLabelValues("not_found").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, notFoundPage, domain, domain)
}

// splitHost cuts a Host header into its first dot-segment and the rest.
// "abc12.preview.example.org:3001" yields ("abc12", "preview.example.org").
func splitHost(host string) (subdomain, domain string) {
	if idx := strings.IndexByte(host, ':'); idx != -1 {
		host = host[:idx]
	}
	subdomain, domain, _ = strings.Cut(host, ".")
	return subdomain, domain
}
