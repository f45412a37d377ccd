// Package auth implements the GitHub OAuth login flow and the cookie
// sessions derived from it.
//
// Login redirects the browser to GitHub with a random state token that
// is also stored in a short lived CSRF cookie. Authorize exchanges the
// returned code for an access token, verifies the state against the
// CSRF cookie, fetches the user profile and persists it in an
// encrypted session cookie for thirty days. SessionUser decodes that
// cookie on any later request; it returns nil for anonymous visitors
// and for cookies that fail authentication.
//
// Both cookies are HttpOnly, Secure and SameSite=Lax. The session
// store signs with the SHA-512 digest of the configured session key
// and encrypts with its first half, so cookie contents are opaque to
// the browser.
package auth
