package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/etesdev/etes/pkg/httperr"
	"github.com/etesdev/etes/pkg/util"
)

// GitHubUser is the identity established by the OAuth session cookie.
type GitHubUser struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Equal compares GitHub identities by login alone. Display name and avatar
// can change between sessions without changing who the user is.
func (u GitHubUser) Equal(other GitHubUser) bool {
	return u.Login == other.Login
}

// User is the acting principal behind a request, command, or service: either
// an anonymous caller identified by an opaque id, or a GitHub identity from
// the session cookie.
//
// On the wire a User is untagged: anonymous serializes as a JSON string,
// GitHub as an object with login, name, and avatar_url.
type User struct {
	anonymous string
	github    *GitHubUser
}

// AnonymousUser returns a User identified only by an opaque id.
func AnonymousUser(id string) User {
	return User{anonymous: id}
}

// GitHubUserPrincipal wraps a GitHub identity as a User.
func GitHubUserPrincipal(u GitHubUser) User {
	return User{github: &u}
}

// UserFromRequest resolves the acting principal: the authenticated GitHub
// identity when present, otherwise an anonymous user under the supplied
// caller id. The caller id must pass the name grammar.
func UserFromRequest(caller string, github *GitHubUser) (User, error) {
	if github != nil {
		return GitHubUserPrincipal(*github), nil
	}
	if !util.IsValidName(caller) {
		return User{}, httperr.Client("Invalid caller name")
	}
	return AnonymousUser(caller), nil
}

// GitHub returns the authenticated identity, if any.
func (u User) GitHub() (GitHubUser, bool) {
	if u.github == nil {
		return GitHubUser{}, false
	}
	return *u.github, true
}

// IsAnonymous reports whether the user carries no GitHub identity.
func (u User) IsAnonymous() bool {
	return u.github == nil
}

// IsAdmin reports whether the user is an authenticated login from the
// configured admin list. Anonymous users are never admins.
func (u User) IsAdmin(admins []string) bool {
	if u.github == nil {
		return false
	}
	for _, admin := range admins {
		if admin == u.github.Login {
			return true
		}
	}
	return false
}

// Equal compares principals: GitHub identities by login, anonymous ids
// byte for byte. An anonymous user never equals a GitHub user.
func (u User) Equal(other User) bool {
	if u.github != nil && other.github != nil {
		return u.github.Equal(*other.github)
	}
	if u.github == nil && other.github == nil {
		return u.anonymous == other.anonymous
	}
	return false
}

// HashAnonymous replaces an anonymous id with its SHA-256 hex digest so the
// raw session identifier never leaves the server. GitHub users pass through
// unchanged.
func (u User) HashAnonymous() User {
	if u.github != nil {
		return u
	}
	return AnonymousUser(util.SHA256Hex(u.anonymous))
}

func (u User) String() string {
	if u.github != nil {
		return fmt.Sprintf("GitHub(%s)", u.github.Login)
	}
	return fmt.Sprintf("Anonymous(%s)", u.anonymous)
}

// MarshalJSON implements the untagged encoding.
func (u User) MarshalJSON() ([]byte, error) {
	if u.github != nil {
		return json.Marshal(u.github)
	}
	return json.Marshal(u.anonymous)
}

// UnmarshalJSON accepts either encoding, trying the object form first.
func (u *User) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var github GitHubUser
		if err := json.Unmarshal(trimmed, &github); err != nil {
			return err
		}
		u.anonymous = ""
		u.github = &github
		return nil
	}

	var id string
	if err := json.Unmarshal(trimmed, &id); err != nil {
		return fmt.Errorf("user is neither an object nor a string: %w", err)
	}
	u.anonymous = id
	u.github = nil
	return nil
}
