package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/satriahrh/campus-chat/domain"
	"github.com/satriahrh/campus-chat/usecase"
	"github.com/satriahrh/campus-chat/utils/log"
	"go.uber.org/zap"
)

// Server pushes chat session events to the pages viewing them and accepts
// submissions over the same connection.
type Server struct {
	upgrader      websocket.Upgrader
	sessions      *usecase.SessionManager
	messageBroker domain.MessageBroker
	hub           *Hub
}

func NewServer(sessions *usecase.SessionManager, messageBroker domain.MessageBroker) *Server {
	return &Server{
		upgrader:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		sessions:      sessions,
		messageBroker: messageBroker,
		hub:           NewHub(),
	}
}

// Start runs the hub and the session event listener until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	messageChan, err := s.messageBroker.Subscribe(ctx, domain.SessionEventsTopic, domain.TranscriptKey)
	if err != nil {
		return err
	}

	s.hub.Run(ctx)
	go s.listen(ctx, messageChan)

	log.WithCtx(ctx).Info("WebSocket server listening to session events")
	return nil
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// listen relays session events from the broker to the clients of each
// session.
func (s *Server) listen(ctx context.Context, messageChan <-chan domain.Envelope) {
	for {
		select {
		case msg, ok := <-messageChan:
			if !ok {
				log.WithCtx(ctx).Info("Session event stream closed")
				return
			}

			var event domain.SessionEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.WithCtx(ctx).Error("Failed to unmarshal session event", zap.Error(err))
				continue
			}

			s.hub.SendToSession(event.SessionID, msg.Payload)

		case <-ctx.Done():
			log.WithCtx(ctx).Info("Session event listener stopped")
			return
		}
	}
}

// handleFrame applies a frame from a page to its chat session.
func (s *Server) handleFrame(c *Client, frame InboundFrame) {
	session, err := s.sessions.Get(c.SessionID())
	if err != nil {
		c.SendJSON(ErrorResponse{Type: FrameError, Code: "session_not_found", Message: "chat session has ended"})
		return
	}

	switch frame.Type {
	case FrameSubmit:
		// Blank drafts are ignored, exactly like the HTTP endpoint.
		session.Submit(frame.Text)
	case FrameDraft:
		session.SetDraft(frame.Text)
	default:
		c.SendJSON(ErrorResponse{Type: FrameError, Code: "unknown_frame", Message: "unknown frame type " + frame.Type})
	}
}

func (s *Server) snapshot(sessionID string) (SnapshotFrame, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return SnapshotFrame{}, err
	}
	messages, state := session.Snapshot()
	return SnapshotFrame{
		Type:          FrameSnapshot,
		SessionID:     sessionID,
		Messages:      messages,
		AwaitingReply: state.AwaitingReply,
	}, nil
}

func (s *Server) touch(sessionID string) func() {
	return func() {
		if session, err := s.sessions.Get(sessionID); err == nil {
			session.Touch()
		}
	}
}

var errNoSession = errors.New("request carries no session")
