// Package httperr classifies errors that cross the HTTP boundary into
// client faults (400) and server faults (500) and renders them with the
// fixed "Client error:"/"Server error:" prefixes the frontend matches
// on. Messages are part of the wire contract; wrap causes with Wrap so
// logs keep the detail the client never sees.
package httperr
