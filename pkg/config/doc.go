/*
Package config loads and validates the etes configuration.

Configuration comes from a YAML file (etes.yaml in the working
directory or /etc/etes, or an explicit --config path) overlaid with
ETES_* environment variables. ETES_GITHUB_TOKEN overrides github_token
and so on; list values are comma-separated in the environment. The
loaded Config is validated once and then treated as immutable for the
lifetime of the process.

# Settings

Repository and OAuth:

	title                 page title shown by the frontend
	github_owner/repo     repository whose metadata drives deployments
	github_token          bearer token for the metadata fetch
	github_client_id      OAuth application credentials
	github_client_secret
	authorize_url         OAuth callback URL registered with GitHub

Secrets and spawning:

	session_key           cookie encryption key material (SHA-512 derived)
	api_key               bearer token for the upload endpoint
	command_args          argv template; "{port}" is substituted
	command_env           extra environment for spawned services

Cosmetics and policy:

	favicon               frontend glyph
	words                 word list for the name generator (3+ distinct)
	admins                GitHub logins that may stop any service

Operations (all defaulted):

	bin_dir               executable registry directory (./bin)
	web_dir               built frontend assets (./web/dist)
	management_addr       API/websocket/frontend listener (127.0.0.1:3000)
	proxy_addr            wildcard-host proxy listener (127.0.0.1:3001)
	max_services          advisory service bound (1000)
	log_level, log_json   logging setup

# Usage

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err, "Invalid configuration")
	}

Validation failures name the offending field via go-playground/validator
so a bad deployment fails fast at startup rather than at first use.
*/
package config
