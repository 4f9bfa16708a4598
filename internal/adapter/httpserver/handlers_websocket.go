package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/djmonitor/internal/domain"
	apperrors "github.com/pscheid92/djmonitor/internal/platform/errors"
	"github.com/pscheid92/djmonitor/internal/platform/logging"
)

const maxClientMessageBytes = 4096

// handleWebSocket upgrades a display client and hands the connection to the hub.
// The hub owns all writes; this goroutine only reads client events.
func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()
	if ok, reason := s.connLimits.Acquire(ip); !ok {
		if s.httpMetrics != nil {
			s.httpMetrics.WebSocketRejections.WithLabelValues(string(reason)).Inc()
		}
		return apperrors.RateLimitedError("too many display connections").WithField("reason", string(reason))
	}
	defer s.connLimits.Release(ip)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		slog.DebugContext(c.Request().Context(), "WebSocket upgrade failed", "error", err)
		return nil
	}

	sessionID, err := s.hub.Register(conn)
	if err != nil {
		if errors.Is(err, domain.ErrTooManyClients) {
			slog.WarnContext(c.Request().Context(), "Display client rejected", "error", err)
		} else {
			slog.ErrorContext(c.Request().Context(), "Failed to register display client", "error", err)
		}
		_ = conn.Close()
		return nil
	}
	defer s.hub.Unregister(sessionID)

	s.readLoop(sessionID, conn)
	return nil
}

func (s *Server) readLoop(sessionID uuid.UUID, conn *websocket.Conn) {
	log := logging.WithSession(sessionID.String())
	conn.SetReadLimit(maxClientMessageBytes)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				log.Debug("Display client read failed", "error", err)
			}
			return
		}

		var envelope domain.Envelope
		if err := json.Unmarshal(msg, &envelope); err != nil {
			log.Debug("Ignoring malformed client message", "error", err)
			continue
		}

		switch envelope.Event {
		case domain.EventGetConfig:
			s.hub.SendState(sessionID)
		default:
			log.Debug("Ignoring unknown client event", "event", envelope.Event)
		}
	}
}
