/*
Package proxy serves every deployed service under its own subdomain.

The proxy listens on its own address, separate from the management UI,
and dispatches purely on the Host header. The first dot-segment of the
host selects the target:

	<service-name>.<domain>  →  forward to the service's loopback port
	<commit-hash>.<domain>   →  307 to the service running that commit,
	                            starting one first if none is
	anything else            →  404 with a link back to the portal

The commit-hash form is what CI pastes into a pull request: visiting it
starts the uploaded executable under a fresh three-word name and
redirects the browser there. The start is dispatched on the event bus
and races the redirect, so the first page load usually meets a service
that is still probing; reloading lands on it once it answers.

Forwarded requests keep their path and query and gain the usual
X-Forwarded headers. A dead upstream answers 502 "Upstream error".
*/
package proxy
