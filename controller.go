package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"securechat/internal/auth"
	"securechat/internal/chat"
	"securechat/internal/hub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the cors middleware on the mux.
		return true
	},
}

type Controller struct {
	ctx      context.Context
	log      *slog.Logger
	hub      *hub.Hub
	protocol *chat.Protocol
	verifier *auth.Verifier
}

func NewController(ctx context.Context, log *slog.Logger, h *hub.Hub, protocol *chat.Protocol, verifier *auth.Verifier) *Controller {
	return &Controller{
		ctx:      ctx,
		log:      log,
		hub:      h,
		protocol: protocol,
		verifier: verifier,
	}
}

// HandleWS upgrades the connection and drives the session protocol for its
// lifetime. A connection without a valid identity stays open but degraded: it
// never registers and never receives encrypted traffic.
func (c *Controller) HandleWS(w http.ResponseWriter, r *http.Request) {
	identity, err := c.verifier.Identity(r)
	if err != nil {
		c.log.Warn("unauthenticated connection", "error", err)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.log.Error("upgrade failed", "error", err)
		return
	}

	handle := uuid.NewString()
	var sender hub.Sender
	var client *hub.Client

	client = hub.NewClient(c.ctx, conn, handle,
		func(inbound hub.Inbound) {
			c.dispatchInbound(identity, inbound, sender)
		},
		func(cause error) {
			if err := c.protocol.OnDisconnect(c.ctx, identity, handle, cause, sender); err != nil {
				c.log.Error("disconnect incomplete", "user", identity, "error", err)
			}
			c.hub.Unregister(client)
		},
	)
	sender = hub.NewSender(c.hub, client)

	c.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	if err := c.protocol.OnConnect(c.ctx, identity, handle, sender); err != nil {
		c.log.Error("session not registered", "handle", handle, "error", err)
	}
}

func (c *Controller) dispatchInbound(identity string, inbound hub.Inbound, sender hub.Sender) {
	switch inbound.Type {
	case hub.InboundSubmitKey:
		wrappedKey, err := base64.StdEncoding.DecodeString(inbound.Key)
		if err != nil {
			c.log.Warn("malformed key payload", "user", identity, "error", err)
			return
		}
		wrappedIV, err := base64.StdEncoding.DecodeString(inbound.IV)
		if err != nil {
			c.log.Warn("malformed iv payload", "user", identity, "error", err)
			return
		}
		// Submission failures are logged inside the protocol; the client gets
		// no acknowledgment either way.
		_ = c.protocol.SubmitKey(c.ctx, identity, wrappedKey, wrappedIV)
	case hub.InboundMessage:
		if err := c.protocol.SendMessage(c.ctx, identity, inbound.Target, inbound.Content, sender); err != nil {
			c.log.Warn("message not delivered", "user", identity, "target", inbound.Target, "error", err)
		}
	default:
		c.log.Warn("unknown inbound frame", "user", identity, "type", inbound.Type)
	}
}
