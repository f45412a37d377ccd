package httperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/etesdev/etes/pkg/log"
)

// Kind separates the two error classes that cross the process boundary.
type Kind int

const (
	// KindClient covers malformed input, missing or invalid auth, and
	// missing resources. Rendered as HTTP 400.
	KindClient Kind = iota
	// KindServer covers internal I/O, spawn failures, and upstream fetch
	// failures. Rendered as HTTP 500.
	KindServer
)

// Error is an error with a boundary classification. The message is part of
// the wire contract; callers construct it verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client builds a client-class error with the given message.
func Client(msg string) *Error {
	return &Error{Kind: KindClient, Message: msg}
}

// Clientf builds a client-class error with a formatted message.
func Clientf(format string, args ...any) *Error {
	return &Error{Kind: KindClient, Message: fmt.Sprintf(format, args...)}
}

// Server builds a server-class error with the given message.
func Server(msg string) *Error {
	return &Error{Kind: KindServer, Message: msg}
}

// Wrap builds a server-class error carrying an underlying cause.
func Wrap(msg string, err error) *Error {
	return &Error{Kind: KindServer, Message: msg, Err: err}
}

// Write renders err on w using the two-kind scheme: client errors become
// "Client error: <msg>" with status 400, everything else becomes
// "Server error: <msg>" with status 500. The error is logged either way.
func Write(w http.ResponseWriter, err error) {
	logger := log.WithComponent("http")

	var herr *Error
	if errors.As(err, &herr) && herr.Kind == KindClient {
		logger.Error().Err(err).Msg("client error")
		http.Error(w, fmt.Sprintf("Client error: %s", herr.Message), http.StatusBadRequest)
		return
	}

	msg := err.Error()
	if herr != nil {
		msg = herr.Message
	}
	logger.Error().Err(err).Msg("server error")
	http.Error(w, fmt.Sprintf("Server error: %s", msg), http.StatusInternalServerError)
}
