package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// GithubBaseURL is the browser-facing GitHub origin used to build links
// in the frontend snapshot.
const GithubBaseURL = "https://github.com"

// Config holds the full etes configuration. It is loaded once at
// startup and treated as immutable afterwards.
type Config struct {
	// Title is the page title shown by the frontend.
	Title string `mapstructure:"title" validate:"required"`

	// GithubOwner and GithubRepo select the repository whose commits,
	// releases and pull requests drive the deployable set.
	GithubOwner string `mapstructure:"github_owner" validate:"required"`
	GithubRepo  string `mapstructure:"github_repo" validate:"required"`

	// GithubToken is the bearer token for the metadata fetch.
	GithubToken string `mapstructure:"github_token" validate:"required"`

	// GithubAPIURL is the GraphQL endpoint queried for repository
	// metadata. Only GitHub Enterprise deployments need to change it.
	GithubAPIURL string `mapstructure:"github_api_url" validate:"required,url"`

	// OAuth application credentials and the callback URL registered
	// with GitHub.
	GithubClientID     string `mapstructure:"github_client_id" validate:"required"`
	GithubClientSecret string `mapstructure:"github_client_secret" validate:"required"`
	AuthorizeURL       string `mapstructure:"authorize_url" validate:"required,url"`

	// SessionKey is the source material for the cookie encryption key.
	// Its SHA-512 digest is used, so any length works, but it must stay
	// secret and stable across restarts.
	SessionKey string `mapstructure:"session_key" validate:"required"`

	// APIKey is the bearer token required by the upload endpoint.
	APIKey string `mapstructure:"api_key" validate:"required"`

	// CommandArgs is the argv template for spawned services. Each
	// literal "{port}" is replaced by the allocated port.
	CommandArgs []string `mapstructure:"command_args" validate:"required,min=1"`

	// CommandEnv holds extra environment variables for spawned services.
	CommandEnv map[string]string `mapstructure:"command_env"`

	// Favicon is the glyph substituted into the frontend page.
	Favicon string `mapstructure:"favicon"`

	// Words feed the random three-word service name generator. At least
	// three distinct entries are required.
	Words []string `mapstructure:"words" validate:"required,min=3"`

	// Admins lists GitHub logins allowed to stop anyone's service.
	Admins []string `mapstructure:"admins"`

	// BinDir is the executable registry directory.
	BinDir string `mapstructure:"bin_dir" validate:"required"`

	// WebDir holds the built frontend assets. Missing directory is not
	// an error; the frontend routes then return 404.
	WebDir string `mapstructure:"web_dir"`

	// ManagementAddr serves the API, websocket and frontend. ProxyAddr
	// serves the wildcard-host reverse proxy.
	ManagementAddr string `mapstructure:"management_addr" validate:"required"`
	ProxyAddr      string `mapstructure:"proxy_addr" validate:"required"`

	// MaxServices is an advisory upper bound on concurrent services.
	MaxServices int `mapstructure:"max_services" validate:"min=1"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// RepoURL returns the browser URL of the configured repository.
func (c *Config) RepoURL() string {
	return fmt.Sprintf("%s/%s/%s", GithubBaseURL, c.GithubOwner, c.GithubRepo)
}

// Load reads configuration from a YAML file and ETES_* environment
// variables. When path is empty the file is searched in the working
// directory and /etc/etes; a missing file is fine in that case because
// the environment can carry everything.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("etes")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/etes")
	}

	v.SetEnvPrefix("ETES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the loaded configuration for consistency.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if len(lo.Uniq(c.Words)) < 3 {
		return fmt.Errorf("invalid configuration: words must contain at least 3 distinct entries")
	}
	return nil
}

// setDefaults configures default values. Required settings get empty
// defaults so environment-only deployments are visible to Unmarshal.
func setDefaults(v *viper.Viper) {
	for _, key := range []string{
		"title", "github_owner", "github_repo", "github_token",
		"github_client_id", "github_client_secret", "authorize_url",
		"session_key", "api_key", "favicon",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("command_args", []string{})
	v.SetDefault("command_env", map[string]string{})
	v.SetDefault("words", []string{})
	v.SetDefault("admins", []string{})

	v.SetDefault("github_api_url", "https://api.github.com/graphql")
	v.SetDefault("bin_dir", "./bin")
	v.SetDefault("web_dir", "./web/dist")
	v.SetDefault("management_addr", "127.0.0.1:3000")
	v.SetDefault("proxy_addr", "127.0.0.1:3001")
	v.SetDefault("max_services", 1000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}
