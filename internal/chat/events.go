package chat

import (
	"context"
	"encoding/json"
)

// Event is one of the five outward notifications the protocol pushes through
// the transport.
type Event interface {
	event()
}

// PresentUserList carries the usernames already registered, pushed to a caller
// once on connect.
type PresentUserList struct {
	Users []string
}

// UserJoined announces a newly registered username to other connections.
type UserJoined struct {
	Username string
}

// UserLeft announces a logout to other connections.
type UserLeft struct {
	Username string
}

// PublicKeyAnnouncement carries the server's RSA public key as a
// self-describing JWK.
type PublicKeyAnnouncement struct {
	Key json.RawMessage
}

// ReceiveMessage carries base64 ciphertext encrypted for the receiving user,
// labeled with its source username (or the server label for notices).
type ReceiveMessage struct {
	Source  string
	Payload string
}

func (PresentUserList) event()       {}
func (UserJoined) event()            {}
func (UserLeft) event()              {}
func (PublicKeyAnnouncement) event() {}
func (ReceiveMessage) event()        {}

// Sender is the addressing capability the transport collaborator provides,
// bound to the calling connection. Delivery is fire-and-forget: an error means
// the transport refused the dispatch, not that the client failed to process it.
type Sender interface {
	ToCaller(ctx context.Context, evt Event) error
	ToConnection(ctx context.Context, handle string, evt Event) error
	ToAllExcept(ctx context.Context, handle string, evt Event) error
}
