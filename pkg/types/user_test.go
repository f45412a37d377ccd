package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUserJSONRoundTrip verifies the untagged encoding survives both ways
func TestUserJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		user User
		json string
	}{
		{
			name: "anonymous",
			user: AnonymousUser("frank"),
			json: `"frank"`,
		},
		{
			name: "github",
			user: GitHubUserPrincipal(GitHubUser{Login: "octocat", Name: "The Octocat", AvatarURL: "https://example.com/a.png"}),
			json: `{"login":"octocat","name":"The Octocat","avatar_url":"https://example.com/a.png"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.user)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(data))

			var decoded User
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.True(t, decoded.Equal(tt.user))
		})
	}
}

// TestUserEqual covers equality across variants
func TestUserEqual(t *testing.T) {
	frank := AnonymousUser("frank")
	mallory := AnonymousUser("mallory")
	octocat := GitHubUserPrincipal(GitHubUser{Login: "octocat", Name: "The Octocat"})
	octocatOtherName := GitHubUserPrincipal(GitHubUser{Login: "octocat", Name: "Renamed"})
	hubber := GitHubUserPrincipal(GitHubUser{Login: "hubber"})

	assert.True(t, frank.Equal(AnonymousUser("frank")))
	assert.False(t, frank.Equal(mallory))
	assert.True(t, octocat.Equal(octocatOtherName), "github equality is by login only")
	assert.False(t, octocat.Equal(hubber))
	assert.False(t, frank.Equal(octocat))
	assert.False(t, octocat.Equal(frank))
}

// TestUserHashAnonymous verifies anonymous ids are replaced by their digest
func TestUserHashAnonymous(t *testing.T) {
	hashed := AnonymousUser("test").HashAnonymous()
	assert.True(t, hashed.Equal(AnonymousUser("9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08")))

	github := GitHubUserPrincipal(GitHubUser{Login: "octocat"})
	assert.True(t, github.HashAnonymous().Equal(github), "github users pass through unchanged")
}

// TestUserIsAdmin verifies admin resolution against the configured list
func TestUserIsAdmin(t *testing.T) {
	admins := []string{"octocat", "hubber"}

	assert.True(t, GitHubUserPrincipal(GitHubUser{Login: "octocat"}).IsAdmin(admins))
	assert.False(t, GitHubUserPrincipal(GitHubUser{Login: "intruder"}).IsAdmin(admins))
	assert.False(t, AnonymousUser("octocat").IsAdmin(admins), "anonymous users are never admins")
	assert.False(t, AnonymousUser("x").IsAdmin(nil))
}

// TestUserFromRequest verifies principal resolution and caller validation
func TestUserFromRequest(t *testing.T) {
	github := &GitHubUser{Login: "octocat"}

	user, err := UserFromRequest("ignored-caller", github)
	require.NoError(t, err)
	assert.False(t, user.IsAnonymous())

	user, err = UserFromRequest("frank", nil)
	require.NoError(t, err)
	assert.True(t, user.IsAnonymous())
	assert.True(t, user.Equal(AnonymousUser("frank")))

	_, err = UserFromRequest("not a valid caller!", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid caller name")

	_, err = UserFromRequest("", nil)
	require.Error(t, err)
}

// TestUserString pins the log representation
func TestUserString(t *testing.T) {
	assert.Equal(t, "Anonymous(frank)", AnonymousUser("frank").String())
	assert.Equal(t, "GitHub(octocat)", GitHubUserPrincipal(GitHubUser{Login: "octocat"}).String())
}
