package ws

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/etesdev/etes/pkg/auth"
	"github.com/etesdev/etes/pkg/events"
	"github.com/etesdev/etes/pkg/httperr"
	"github.com/etesdev/etes/pkg/log"
	"github.com/etesdev/etes/pkg/metrics"
	"github.com/etesdev/etes/pkg/types"
)

// Handler upgrades observer connections and runs their sessions.
type Handler struct {
	broker   *events.Broker
	auth     *auth.Service
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a websocket handler over the given broker. The
// upgrader accepts any origin: sessions are identified by their caller
// id or cookie, and every observer may see the shared state anyway.
func NewHandler(broker *events.Broker, authSvc *auth.Service) *Handler {
	return &Handler{
		broker: broker,
		auth:   authSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: log.WithComponent("ws"),
	}
}

// Serve resolves the session principal, upgrades the connection, and
// blocks until the session ends.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, caller string) {
	user, err := types.UserFromRequest(caller, h.auth.SessionUser(r))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	s := &session{
		conn:   conn,
		user:   user,
		broker: h.broker,
		logger: log.WithSession(uuid.NewString()),
	}
	s.run()
}

// session is one connected observer: a principal, a websocket, and a
// bus subscription.
type session struct {
	conn   *websocket.Conn
	user   types.User
	broker *events.Broker
	logger zerolog.Logger
}

func (s *session) run() {
	metrics.ObserverSessions.Inc()
	defer metrics.ObserverSessions.Dec()

	sub := s.broker.Subscribe()
	defer s.broker.Unsubscribe(sub)
	defer s.conn.Close()

	s.logger.Info().Stringer("user", s.user).Msg("Observer connected")

	done := make(chan struct{})
	go s.readPump(done)
	s.writePump(sub, done)

	s.logger.Info().Stringer("user", s.user).Msg("Observer disconnected")
}

// readPump publishes inbound client events re-stamped with the session
// principal. It owns the read side of the connection and signals done
// when the peer goes away.
func (s *session) readPump(done chan<- struct{}) {
	defer close(done)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn().Err(err).Stringer("user", s.user).Msg("Read failed, closing connection")
			}
			return
		}

		event, err := events.Unmarshal(data)
		if err != nil {
			s.logger.Error().Err(err).Str("message", string(data)).Msg("Invalid event")
			continue
		}

		if !events.IsClientEvent(event) {
			s.logger.Error().Str("event", events.Name(event)).Stringer("user", s.user).Msg("Invalid client event")
			continue
		}

		s.broker.Publish(events.WithUser(event, s.user))
	}
}

// writePump forwards bus events admitted by the filter policy. It owns
// the write side of the connection.
func (s *session) writePump(sub events.Subscriber, done <-chan struct{}) {
	for {
		select {
		case event, ok := <-sub:
			if !ok {
				return
			}
			if !events.ShouldForward(event, s.user) {
				continue
			}

			data, err := events.Marshal(event)
			if err != nil {
				s.logger.Error().Err(err).Str("event", events.Name(event)).Msg("Failed to encode event")
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn().Err(err).Stringer("user", s.user).Msg("Write failed, closing connection")
				return
			}
		case <-done:
			return
		}
	}
}
