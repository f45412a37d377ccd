package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"github.com/etesdev/etes/pkg/config"
	"github.com/etesdev/etes/pkg/httperr"
	"github.com/etesdev/etes/pkg/log"
	"github.com/etesdev/etes/pkg/types"
	"github.com/etesdev/etes/pkg/util"
)

// Cookie names shared with the frontend.
const (
	SessionCookie = "SESSION"
	CSRFCookie    = "CSRF"
)

const (
	userAgent     = "etes"
	githubAccept  = "application/vnd.github+json"
	githubUserURL = "https://api.github.com/user"

	csrfMaxAge    = 60 * 60           // one hour
	sessionMaxAge = 30 * 24 * 60 * 60 // thirty days
)

// Doer executes a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Service implements the GitHub authorization-code flow and the
// encrypted session cookie carrying the resulting identity.
type Service struct {
	oauth   *oauth2.Config
	store   *sessions.CookieStore
	client  Doer
	userURL string
	logger  zerolog.Logger
}

// New wires the OAuth client for the configured GitHub application. The
// cookie store is keyed from the SHA-512 digest of the session key; the
// first 32 digest bytes double as the AES block key, so cookie payloads
// are encrypted, not just signed.
func New(cfg *config.Config) *Service {
	key := util.SHA512(cfg.SessionKey)

	store := sessions.NewCookieStore(key, key[:32])
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.GithubClientID,
			ClientSecret: cfg.GithubClientSecret,
			Endpoint:     oauthgithub.Endpoint,
			RedirectURL:  cfg.AuthorizeURL,
			Scopes:       []string{"read:user"},
		},
		store:   store,
		client:  http.DefaultClient,
		userURL: githubUserURL,
		logger:  log.WithComponent("auth"),
	}
}

// Login stores a fresh state token in the CSRF cookie and redirects the
// browser to the provider's authorization page.
func (s *Service) Login(w http.ResponseWriter, r *http.Request) {
	state := util.RandomString()

	csrf, _ := s.store.Get(r, CSRFCookie)
	csrf.Options.MaxAge = csrfMaxAge
	csrf.Values["state"] = state
	if err := csrf.Save(r, w); err != nil {
		httperr.Write(w, httperr.Wrap("Failed to set CSRF cookie", err))
		return
	}

	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Logout drops the session cookie and sends the browser home.
func (s *Service) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.store.Get(r, SessionCookie)
	if !session.IsNew {
		session.Options.MaxAge = -1
		if err := session.Save(r, w); err != nil {
			httperr.Write(w, httperr.Wrap("Failed to clear session cookie", err))
			return
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Authorize finishes the flow: exchange the code for an access token,
// check the state against the CSRF cookie, fetch the GitHub identity,
// and store it in the session cookie. The CSRF cookie is single use.
func (s *Service) Authorize(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("code") == "" || query.Get("state") == "" {
		httperr.Write(w, httperr.Client("Missing code or state"))
		return
	}

	token, err := s.oauth.Exchange(r.Context(), query.Get("code"))
	if err != nil {
		httperr.Write(w, httperr.Wrap("Invalid token provided", err))
		return
	}

	csrf, _ := s.store.Get(r, CSRFCookie)
	state, ok := csrf.Values["state"].(string)
	if csrf.IsNew || !ok {
		httperr.Write(w, httperr.Client("Missing CSRF cookie"))
		return
	}
	if query.Get("state") != state {
		httperr.Write(w, httperr.Client("Invalid CSRF token"))
		return
	}

	user, err := s.fetchUser(r.Context(), token.AccessToken)
	if err != nil {
		httperr.Write(w, httperr.Wrap("Failed to fetch user data", err))
		return
	}

	payload, err := json.Marshal(user)
	if err != nil {
		httperr.Write(w, httperr.Wrap("Failed to encode session", err))
		return
	}

	csrf.Options.MaxAge = -1
	if err := csrf.Save(r, w); err != nil {
		httperr.Write(w, httperr.Wrap("Failed to clear CSRF cookie", err))
		return
	}

	session, _ := s.store.Get(r, SessionCookie)
	session.Options.MaxAge = sessionMaxAge
	session.Values["user"] = string(payload)
	if err := session.Save(r, w); err != nil {
		httperr.Write(w, httperr.Wrap("Failed to set session cookie", err))
		return
	}

	s.logger.Info().Str("login", user.Login).Msg("User logged in")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SessionUser returns the GitHub identity from the session cookie, or
// nil when the request is anonymous or the cookie does not decode.
func (s *Service) SessionUser(r *http.Request) *types.GitHubUser {
	session, err := s.store.Get(r, SessionCookie)
	if err != nil || session.IsNew {
		return nil
	}

	payload, ok := session.Values["user"].(string)
	if !ok {
		return nil
	}

	var user types.GitHubUser
	if err := json.Unmarshal([]byte(payload), &user); err != nil {
		s.logger.Warn().Err(err).Msg("Discarding undecodable session cookie")
		return nil
	}
	return &user
}

func (s *Service) fetchUser(ctx context.Context, accessToken string) (types.GitHubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userURL, nil)
	if err != nil {
		return types.GitHubUser{}, err
	}
	req.Header.Set("Accept", githubAccept)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return types.GitHubUser{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.GitHubUser{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var user types.GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return types.GitHubUser{}, err
	}
	return user, nil
}
