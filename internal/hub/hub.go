package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrDispatch is returned when the transport cannot deliver a frame: unknown
// connection handle, full send queue, or a connection already torn down.
var ErrDispatch = errors.New("transport dispatch failed")

// Hub tracks connected websocket clients by connection handle and provides the
// three addressing modes the protocol needs: caller, one specific connection,
// all connections except one.
type Hub struct {
	ctx        context.Context
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

func NewHub(ctx context.Context) *Hub {
	return &Hub{
		ctx:        ctx,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			slog.Info("hub shutting down")
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[client.Handle()] = client
	slog.Info("client connected", "handle", client.Handle(), "total_clients", len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client.Handle()]; ok {
		delete(h.clients, client.Handle())
		client.Close()
	}
	slog.Info("client disconnected", "handle", client.Handle(), "total_clients", len(h.clients))
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) toConnection(handle string, frame []byte) error {
	h.mutex.RLock()
	client, ok := h.clients[handle]
	h.mutex.RUnlock()
	if !ok {
		return ErrDispatch
	}
	return client.Send(frame)
}

// toAllExcept is best-effort: a client that cannot accept the frame is logged
// and skipped.
func (h *Hub) toAllExcept(excluded string, frame []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for handle, client := range h.clients {
		if handle == excluded {
			continue
		}
		if err := client.Send(frame); err != nil {
			slog.Warn("dropping frame for client", "handle", handle, "error", err)
		}
	}
}
