package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/satriahrh/campus-chat/domain"
	"github.com/satriahrh/campus-chat/usecase"
	"github.com/satriahrh/campus-chat/utils/log"
	"go.uber.org/zap"
)

const (
	// MaxAudioSize caps voice question uploads.
	MaxAudioSize = 10 * 1024 * 1024
)

// ChatHandler exposes chat sessions over JSON.
type ChatHandler struct {
	sessions    *usecase.SessionManager
	tokens      *SessionTokens
	hasher      domain.Hasher
	synthesizer domain.Synthesizer
	transcriber domain.Transcriber
}

type OpenSessionResponse struct {
	Token         string               `json:"token"`
	Type          string               `json:"type"`
	SessionID     string               `json:"session_id"`
	Messages      []domain.ChatMessage `json:"messages"`
	AwaitingReply bool                 `json:"awaiting_reply"`
}

type TranscriptResponse struct {
	Messages      []domain.ChatMessage `json:"messages"`
	AwaitingReply bool                 `json:"awaiting_reply"`
}

type SubmitRequest struct {
	Text string `json:"text"`
}

type SubmitResponse struct {
	Message    domain.ChatMessage  `json:"message"`
	Reply      *domain.ChatMessage `json:"reply,omitempty"`
	Transcript string              `json:"transcript,omitempty"`
}

func NewChatHandler(sessions *usecase.SessionManager, tokens *SessionTokens, hasher domain.Hasher) *ChatHandler {
	return &ChatHandler{
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
	}
}

// WithVoice enables the read-aloud and voice question endpoints.
func (h *ChatHandler) WithVoice(synthesizer domain.Synthesizer, transcriber domain.Transcriber) *ChatHandler {
	h.synthesizer = synthesizer
	h.transcriber = transcriber
	return h
}

func (h *ChatHandler) VoiceEnabled() bool {
	return h.synthesizer != nil && h.transcriber != nil
}

// Register mounts the chat routes on g. Every route but health and session
// creation requires a session token.
func (h *ChatHandler) Register(g *echo.Group) {
	auth := h.tokens.Middleware

	g.GET("/health", h.HealthCheck)
	g.POST("/sessions", h.OpenSession)
	g.DELETE("/sessions", h.CloseSession, auth)
	g.GET("/sessions/messages", h.GetMessages, auth)
	g.POST("/sessions/messages", h.SubmitMessage, auth)

	if h.VoiceEnabled() {
		g.GET("/sessions/messages/:id/speech", h.SpeakMessage, auth)
		g.POST("/sessions/voice", h.SubmitVoice, auth)
	}
}

func (h *ChatHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "campus-chat",
		"sessions":  h.sessions.Count(),
	})
}

// OpenSession mounts a new chat view and hands back its token together with
// the greeting transcript.
func (h *ChatHandler) OpenSession(c echo.Context) error {
	session := h.sessions.Open()

	token, err := h.tokens.Issue(session.ID())
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("Error signing session token", zap.Error(err))
		h.sessions.Close(session.ID())
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open session")
	}

	messages, state := session.Snapshot()
	return c.JSON(http.StatusCreated, OpenSessionResponse{
		Token:         token,
		Type:          "Bearer",
		SessionID:     session.ID(),
		Messages:      messages,
		AwaitingReply: state.AwaitingReply,
	})
}

// GetMessages returns the transcript, tagged with an ETag so that polling
// pages can skip unchanged snapshots.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	messages, state := session.Snapshot()
	payload, err := json.Marshal(TranscriptResponse{Messages: messages, AwaitingReply: state.AwaitingReply})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to encode transcript")
	}

	etag := `"` + h.hasher.Hash(payload) + `"`
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, payload)
}

// SubmitMessage appends a user turn. The reply arrives asynchronously over
// the websocket, unless ?wait=true asks to block for it.
func (h *ChatHandler) SubmitMessage(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	return h.submit(c, session, req.Text, "")
}

func (h *ChatHandler) submit(c echo.Context, session *usecase.ChatSession, text, transcript string) error {
	pending := session.Submit(text)
	if pending == nil {
		return c.NoContent(http.StatusNoContent)
	}

	resp := SubmitResponse{Message: pending.UserMessage, Transcript: transcript}
	if c.QueryParam("wait") != "true" {
		return c.JSON(http.StatusAccepted, resp)
	}

	reply, err := pending.Wait(c.Request().Context())
	if err != nil {
		// The turn is still queued; the page will get it over the websocket.
		return c.JSON(http.StatusAccepted, resp)
	}
	resp.Reply = &reply
	return c.JSON(http.StatusOK, resp)
}

// CloseSession unmounts the chat view and discards its transcript.
func (h *ChatHandler) CloseSession(c echo.Context) error {
	sessionID, _ := c.Get("session_id").(string)
	if err := h.sessions.Close(sessionID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Chat session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// SpeakMessage reads a bot turn aloud.
func (h *ChatHandler) SpeakMessage(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	var target *domain.ChatMessage
	for _, msg := range session.Messages() {
		if msg.ID == id {
			target = &msg
			break
		}
	}
	if target == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Message not found")
	}
	if target.Sender != domain.BotSender {
		return echo.NewHTTPError(http.StatusBadRequest, "Only assistant messages can be read aloud")
	}

	audio, err := h.synthesizer.Synthesize(c.Request().Context(), target.Text)
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("Speech synthesis failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to synthesize speech")
	}
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

// SubmitVoice transcribes a recorded question and submits it as a turn.
func (h *ChatHandler) SubmitVoice(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "audio/") && !strings.HasPrefix(contentType, "application/octet-stream") {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content type. Expected audio/* or application/octet-stream")
	}

	audio, err := io.ReadAll(io.LimitReader(c.Request().Body, MaxAudioSize+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read audio")
	}
	if len(audio) > MaxAudioSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Audio too large")
	}

	text, err := h.transcriber.Transcribe(c.Request().Context(), audio, contentType)
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("Transcription failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to transcribe audio")
	}
	if strings.TrimSpace(text) == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "No speech recognized")
	}

	return h.submit(c, session, text, text)
}

func (h *ChatHandler) session(c echo.Context) (*usecase.ChatSession, error) {
	sessionID, _ := c.Get("session_id").(string)
	session, err := h.sessions.Get(sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Chat session not found")
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}
