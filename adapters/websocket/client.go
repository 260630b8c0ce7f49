package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/satriahrh/campus-chat/domain"
	"github.com/satriahrh/campus-chat/utils/log"
	"go.uber.org/zap"
)

// Frame types sent by the browser.
const (
	FrameSubmit = "submit"
	FrameDraft  = "draft"
)

// Frame types sent to the browser, besides the domain.SessionEvent types.
const (
	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// InboundFrame is a message read from the page.
type InboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SnapshotFrame carries the whole transcript; it is the first frame on
// every connection.
type SnapshotFrame struct {
	Type          string               `json:"type"`
	SessionID     string               `json:"session_id"`
	Messages      []domain.ChatMessage `json:"messages"`
	AwaitingReply bool                 `json:"awaiting_reply"`
}

type ErrorResponse struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FrameHandler processes one inbound frame of a client.
type FrameHandler func(c *Client, frame InboundFrame)

type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	onFrame   FrameHandler
	onAlive   func()
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closed    bool
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// NewClient wraps conn for the chat session sessionID. onFrame is called
// from the read pump; onAlive on every sign of life from the peer.
func NewClient(conn *websocket.Conn, sessionID string, onFrame FrameHandler, onAlive func()) *Client {
	ctx := log.ContextWithSession(context.Background(), sessionID)
	ctx, cancel := context.WithCancel(ctx)
	if onAlive == nil {
		onAlive = func() {}
	}
	return &Client{
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
		onFrame:   onFrame,
		onAlive:   onAlive,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) Run() {
	c.setupHandlers()

	go c.readPump()
	go c.writePump()
}

func (c *Client) setupHandlers() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})

	c.conn.SetPongHandler(func(appData string) error {
		c.onAlive()
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// Close gracefully closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
	c.conn.Close()
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) Context() context.Context {
	return c.ctx
}

// readPump handles incoming WebSocket messages
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}
		c.onAlive()

		var frame InboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			log.WithCtx(c.ctx).Debug("Dropping malformed frame", zap.ByteString("message", message))
			c.SendJSON(ErrorResponse{Type: FrameError, Code: "bad_frame", Message: "frame is not valid JSON"})
			continue
		}
		if c.onFrame != nil {
			c.onFrame(c, frame)
		}
	}
}

// writePump handles outgoing WebSocket messages and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.WithCtx(c.ctx).Debug("Failed to send ping", zap.Error(err))
				return
			}

		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// SendMessage queues a frame for the client. A client whose queue is full
// is disconnected.
func (c *Client) SendMessage(message []byte) error {
	if c.IsClosed() {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- message:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.Close()
		return websocket.ErrCloseSent
	}
}

func (c *Client) SendJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.SendMessage(payload)
}
