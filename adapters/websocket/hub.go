package websocket

import (
	"context"
	"sync/atomic"

	"github.com/satriahrh/campus-chat/utils/log"
	"go.uber.org/zap"
)

type sessionMessage struct {
	sessionID string
	payload   []byte
}

// Hub tracks connected clients by chat session. All bookkeeping happens on
// the run goroutine.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	deliver    chan sessionMessage
	done       chan struct{}
	count      atomic.Int32
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan sessionMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub loop; it stops when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	go h.run(ctx)
}

func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			if h.clients[client.sessionID] == nil {
				h.clients[client.sessionID] = make(map[*Client]bool)
			}
			h.clients[client.sessionID][client] = true
			h.count.Add(1)
			log.WithCtx(client.ctx).Debug("New client registered")

		case client := <-h.unregister:
			if set, ok := h.clients[client.sessionID]; ok && set[client] {
				delete(set, client)
				if len(set) == 0 {
					delete(h.clients, client.sessionID)
				}
				h.count.Add(-1)
				client.Close()
				log.WithCtx(client.ctx).Debug("Client unregistered")
			}

		case msg := <-h.deliver:
			for client := range h.clients[msg.sessionID] {
				if !client.IsClosed() {
					client.SendMessage(msg.payload)
				}
			}

		case <-ctx.Done():
			close(h.done)
			for _, set := range h.clients {
				for client := range set {
					client.Close()
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			h.count.Store(0)
			return
		}
	}
}

// Register adds a client to the hub. Clients registering after the hub
// stopped are closed right away.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToSession queues message for every client viewing sessionID.
func (h *Hub) SendToSession(sessionID string, message []byte) {
	select {
	case h.deliver <- sessionMessage{sessionID: sessionID, payload: message}:
	default:
		log.With(zap.String("session_id", sessionID)).Warn("Hub delivery queue full, dropping frame")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}
