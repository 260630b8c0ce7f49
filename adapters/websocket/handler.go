package websocket

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/satriahrh/campus-chat/utils/log"
	"go.uber.org/zap"
)

// Handler serves the "/ws" endpoint. The session token middleware must have
// stored the session id under "session_id".
func (s *Server) Handler(c echo.Context) error {
	sessionID, ok := c.Get("session_id").(string)
	if !ok || sessionID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, errNoSession.Error())
	}
	if _, err := s.sessions.Get(sessionID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Chat session not found")
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, sessionID, s.handleFrame, s.touch(sessionID))
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	// Registered before the snapshot is taken, so no event can fall between
	// the two. Pages de-duplicate messages by id.
	snapshot, err := s.snapshot(sessionID)
	if err != nil {
		client.SendJSON(ErrorResponse{Type: FrameError, Code: "session_not_found", Message: "chat session has ended"})
	} else if err := client.SendJSON(snapshot); err != nil {
		log.WithCtx(client.Context()).Warn("Failed to queue snapshot", zap.Error(err))
	}
	client.Run()

	<-client.Context().Done()

	return nil
}
