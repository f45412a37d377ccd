/*
Package manager is the composition root of etes.

It wires the executable registry, the service supervisor, the GitHub
metadata cache, the memory monitor, the OAuth service, the management
HTTP server, and the wildcard proxy around one shared event broker,
runs the startup chores (initial metadata fetch, artifact sweep,
catalog scan), and then serves everything under a single errgroup until
the context is cancelled.

# Startup Sequence

 1. Initial GitHub metadata fetch (failure logged, non-fatal).
 2. Registry sweep against the live commit set (failure logged,
    non-fatal), which also loads the executable catalog.
 3. Workers and both listeners start under one group: memory monitor,
    GitHub refresh worker, supervisor command loop, management server,
    proxy server.

SIGINT/SIGTERM handling belongs to the caller: cmd/etes cancels the
context, both HTTP servers drain, and the workers exit on cancellation.

# Usage

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return manager.New(cfg).Run(ctx)
*/
package manager
