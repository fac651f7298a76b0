package hub

import (
	"encoding/json"
	"fmt"

	"securechat/internal/chat"
)

// Inbound frame types sent by clients.
const (
	InboundMessage   = "message"
	InboundSubmitKey = "submitKey"
)

// Inbound is a client-to-server frame. Message frames carry a target username
// (or the server label for broadcast) and base64 ciphertext; submitKey frames
// carry the two base64 RSA-wrapped payloads of the key-wrap handshake.
type Inbound struct {
	Type    string `json:"type"`
	Target  string `json:"target,omitempty"`
	Content string `json:"content,omitempty"`
	Key     string `json:"key,omitempty"`
	IV      string `json:"iv,omitempty"`
}

// Outbound frame types pushed to clients, one per protocol event.
const (
	frameUsers      = "users"
	frameUserJoined = "userJoined"
	frameUserLeft   = "userLeft"
	framePublicKey  = "publicKey"
	frameMessage    = "message"
)

type frame struct {
	Type     string          `json:"type"`
	Users    []string        `json:"users,omitempty"`
	Username string          `json:"username,omitempty"`
	Source   string          `json:"source,omitempty"`
	Payload  string          `json:"payload,omitempty"`
	Key      json.RawMessage `json:"key,omitempty"`
}

func encodeEvent(evt chat.Event) ([]byte, error) {
	var f frame
	switch e := evt.(type) {
	case chat.PresentUserList:
		f = frame{Type: frameUsers, Users: e.Users}
	case chat.UserJoined:
		f = frame{Type: frameUserJoined, Username: e.Username}
	case chat.UserLeft:
		f = frame{Type: frameUserLeft, Username: e.Username}
	case chat.PublicKeyAnnouncement:
		f = frame{Type: framePublicKey, Key: e.Key}
	case chat.ReceiveMessage:
		f = frame{Type: frameMessage, Source: e.Source, Payload: e.Payload}
	default:
		return nil, fmt.Errorf("unknown event type %T", evt)
	}
	return json.Marshal(f)
}
