package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
title: etes
github_owner: owner
github_repo: repo
github_token: ghp_testtoken
github_client_id: client-id
github_client_secret: client-secret
authorize_url: https://etes.example.com/etes/authorize
session_key: cookie-key-material
api_key: upload-api-key
command_args: ["./service.bin", "--port", "{port}"]
words: [proud, otter, flies, fast]
admins: [octocat]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "etes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "etes", cfg.Title)
	assert.Equal(t, "owner", cfg.GithubOwner)
	assert.Equal(t, "repo", cfg.GithubRepo)
	assert.Equal(t, []string{"./service.bin", "--port", "{port}"}, cfg.CommandArgs)
	assert.Equal(t, []string{"proud", "otter", "flies", "fast"}, cfg.Words)
	assert.Equal(t, []string{"octocat"}, cfg.Admins)

	// Defaults for everything the file does not set.
	assert.Equal(t, "https://api.github.com/graphql", cfg.GithubAPIURL)
	assert.Equal(t, "./bin", cfg.BinDir)
	assert.Equal(t, "./web/dist", cfg.WebDir)
	assert.Equal(t, "127.0.0.1:3000", cfg.ManagementAddr)
	assert.Equal(t, "127.0.0.1:3001", cfg.ProxyAddr)
	assert.Equal(t, 1000, cfg.MaxServices)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		drop string
	}{
		{"api key", "api_key: upload-api-key"},
		{"session key", "session_key: cookie-key-material"},
		{"github token", "github_token: ghp_testtoken"},
		{"command args", `command_args: ["./service.bin", "--port", "{port}"]`},
		{"words", "words: [proud, otter, flies, fast]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Replace(validConfig, tt.drop, "", 1)

			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoadRejectsRepeatedWords(t *testing.T) {
	content := strings.Replace(validConfig,
		"words: [proud, otter, flies, fast]",
		"words: [same, same, same, same]", 1)

	_, err := Load(writeConfig(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "distinct")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ETES_TITLE", "from-env")
	t.Setenv("ETES_MAX_SERVICES", "5")

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Title)
	assert.Equal(t, 5, cfg.MaxServices)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("ETES_TITLE", "etes")
	t.Setenv("ETES_GITHUB_OWNER", "owner")
	t.Setenv("ETES_GITHUB_REPO", "repo")
	t.Setenv("ETES_GITHUB_TOKEN", "ghp_testtoken")
	t.Setenv("ETES_GITHUB_CLIENT_ID", "client-id")
	t.Setenv("ETES_GITHUB_CLIENT_SECRET", "client-secret")
	t.Setenv("ETES_AUTHORIZE_URL", "https://etes.example.com/etes/authorize")
	t.Setenv("ETES_SESSION_KEY", "cookie-key-material")
	t.Setenv("ETES_API_KEY", "upload-api-key")
	t.Setenv("ETES_COMMAND_ARGS", "./service.bin,--port,{port}")
	t.Setenv("ETES_WORDS", "proud,otter,flies")

	// Resolve from a directory without a config file so only the
	// environment contributes.
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "etes", cfg.Title)
	assert.Equal(t, []string{"./service.bin", "--port", "{port}"}, cfg.CommandArgs)
	assert.Equal(t, []string{"proud", "otter", "flies"}, cfg.Words)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRepoURL(t *testing.T) {
	cfg := Config{GithubOwner: "owner", GithubRepo: "repo"}
	assert.Equal(t, "https://github.com/owner/repo", cfg.RepoURL())
}
