/*
Package log provides structured logging for etes using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Thread-safe concurrent writes

Configuration:
  - Level: debug/info/warn/error threshold
  - JSONOutput: JSON (production) vs console (development)
  - Output: io.Writer for log destination, stdout by default

Context Loggers:
  - WithComponent: tag all logs with the owning subsystem
  - WithService: tag logs with a service name
  - WithSession: tag logs with an observer session id

# Usage

Initializing the logger:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

Component loggers:

	logger := log.WithComponent("supervisor")
	logger.Info().Str("name", "proud-lazy-otter").Int("port", 42123).Msg("service started")

Structured error logging:

	logger.Error().Err(err).Str("path", path).Msg("scan failed")

# Output Examples

JSON format:

	{"level":"info","component":"supervisor","time":"2025-06-14T10:30:00Z","message":"service started"}

Console format:

	2025-06-14T10:30:00Z INF service started component=supervisor

# Best Practices

Do:
  - Use Info level in production
  - Use typed fields (.Str, .Int, .Err) for queryable data
  - Create component-specific loggers once per subsystem

Don't:
  - Log session keys, API keys, or OAuth tokens
  - Log in tight loops (the memory monitor logs nothing per tick)
*/
package log
