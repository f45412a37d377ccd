/*
Package supervisor runs uploaded executables as child processes and tracks
them in an in-memory map keyed by service name.

# Lifecycle

	start: resolve artifact → validate name → allocate port → spawn
	       → insert Pending → publish → probe → Running or Error → publish

	stop:  ownership check → remove from map → kill signal → publish

A supervising goroutine per child races process exit against a one-shot
kill channel, so removing a service never blocks on the child and an
exited child never lingers as a zombie. Services are never restarted;
an errored service stays visible in the list until someone stops it.

The readiness probe polls http://127.0.0.1:<port>/ up to 10 times, one
second apart. The first 2xx answer flips the service to Running.

# Commands

Run subscribes the supervisor to the event bus: StartService and
StopService commands are dispatched to their own goroutines, every other
event is logged and ignored. Failures travel back to the requesting user
as Error events; every mutation broadcasts the full service list.

Ownership: a service may be stopped by its creator or by any configured
admin login. Admins are compared by GitHub login, creators by principal
equality.
*/
package supervisor
