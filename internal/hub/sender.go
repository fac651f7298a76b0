package hub

import (
	"context"
	"fmt"

	"securechat/internal/chat"
)

// Sender binds the hub's addressing modes to one calling connection,
// implementing the protocol's outward capability.
type Sender struct {
	hub    *Hub
	caller *Client
}

func NewSender(h *Hub, caller *Client) Sender {
	return Sender{hub: h, caller: caller}
}

func (s Sender) ToCaller(_ context.Context, evt chat.Event) error {
	encoded, err := encodeEvent(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return s.caller.Send(encoded)
}

func (s Sender) ToConnection(_ context.Context, handle string, evt chat.Event) error {
	encoded, err := encodeEvent(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return s.hub.toConnection(handle, encoded)
}

func (s Sender) ToAllExcept(_ context.Context, handle string, evt chat.Event) error {
	encoded, err := encodeEvent(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	s.hub.toAllExcept(handle, encoded)
	return nil
}
