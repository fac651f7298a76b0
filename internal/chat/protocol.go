package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"securechat/internal/channel"
	"securechat/internal/encryption"
	"securechat/internal/presence"
)

// Source labels on relayed messages.
const (
	// SourceServer labels server-originated notices. A SendMessage targeting
	// this label is a broadcast to everyone but the sender.
	SourceServer = "Server"
	// SourceUnknown labels messages from a connection that lost its identity.
	SourceUnknown = "Unknown"
)

// ErrIdentityMissing is reported when a connection carries no authenticated
// username. The session proceeds degraded and never registers; the process
// does not crash.
var ErrIdentityMissing = errors.New("connection has no authenticated identity")

// Protocol drives the Authenticated -> Registered -> Disconnected lifecycle of
// a connection: presence registration, key-wrap submission, and per-recipient
// encrypted fan-out. All mutation of the registry and the channel store flows
// through here.
type Protocol struct {
	log      *slog.Logger
	registry *presence.Registry
	channels *channel.Store
	keys     *encryption.KeyService
}

func NewProtocol(log *slog.Logger, registry *presence.Registry, channels *channel.Store, keys *encryption.KeyService) *Protocol {
	return &Protocol{log: log, registry: registry, channels: channels, keys: keys}
}

// OnConnect registers an authenticated connection. The caller receives the
// existing-user list (when non-empty), each present user receives an encrypted
// join notice, other connections get the join announcement, and the caller
// gets the public key. The registry write happens last so a racing connect
// cannot observe this user before its channel is ready to receive notices.
func (p *Protocol) OnConnect(ctx context.Context, identity, handle string, sender Sender) error {
	if identity == "" {
		p.log.Error("connection without an identity", "handle", handle)
		return ErrIdentityMissing
	}

	entries, err := p.registry.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", identity, err)
	}

	if len(entries) > 0 {
		usernames := lo.Map(entries, func(e presence.Entry, _ int) string { return e.Username })
		if err := sender.ToCaller(ctx, PresentUserList{Users: usernames}); err != nil {
			p.log.Error("failed to push user list", "user", identity, "error", err)
		}

		notice := fmt.Sprintf("%s joined the chat!", identity)
		for _, entry := range entries {
			p.dispatchNotice(ctx, sender, entry, notice)
		}

		if err := sender.ToAllExcept(ctx, handle, UserJoined{Username: identity}); err != nil {
			p.log.Error("failed to announce join", "user", identity, "error", err)
		}
	}

	if err := sender.ToCaller(ctx, PublicKeyAnnouncement{Key: p.keys.PublicKey()}); err != nil {
		p.log.Error("failed to push public key", "user", identity, "error", err)
	}

	if err := p.registry.Add(ctx, identity, handle); err != nil {
		return fmt.Errorf("connect %s: %w", identity, err)
	}
	return nil
}

// SubmitKey stores a connection's key-wrap material. A connection without an
// identity is ignored; a malformed payload is rejected without touching any
// prior channel. No acknowledgment is sent either way.
func (p *Protocol) SubmitKey(ctx context.Context, identity string, wrappedKey, wrappedIV []byte) error {
	if identity == "" {
		p.log.Warn("ignoring key submission without an identity")
		return nil
	}
	if err := p.channels.Submit(ctx, identity, wrappedKey, wrappedIV); err != nil {
		p.log.Error("key submission rejected", "user", identity, "error", err)
		return err
	}
	return nil
}

// OnDisconnect notifies remaining users and destroys the connection's presence
// entry and channel material. A transport error cause is logged but the
// cleanup sequence still runs to completion; per-user notice failures never
// block the rest.
func (p *Protocol) OnDisconnect(ctx context.Context, identity, handle string, cause error, sender Sender) error {
	// Cleanup must run even when the surrounding task is being cancelled.
	ctx = context.WithoutCancel(ctx)

	if cause != nil {
		p.log.Error("connection closed with error", "user", identity, "error", cause)
	}
	if identity == "" {
		p.log.Error("disconnect without an identity", "handle", handle)
		return ErrIdentityMissing
	}

	entries, err := p.registry.ListAll(ctx)
	if err != nil {
		p.log.Error("failed to snapshot presence on disconnect", "user", identity, "error", err)
	}
	remaining := lo.Filter(entries, func(e presence.Entry, _ int) bool { return e.Username != identity })

	notice := fmt.Sprintf("%s left the chat!", identity)
	for _, entry := range remaining {
		p.dispatchNotice(ctx, sender, entry, notice)
	}

	var cleanup []error
	if err := p.registry.Remove(ctx, identity); err != nil {
		p.log.Error("failed to remove presence entry", "user", identity, "error", err)
		cleanup = append(cleanup, err)
	}
	if err := p.channels.Drop(ctx, identity); err != nil {
		p.log.Error("failed to drop channel material", "user", identity, "error", err)
		cleanup = append(cleanup, err)
	}

	if err := sender.ToAllExcept(ctx, handle, UserLeft{Username: identity}); err != nil {
		p.log.Error("failed to announce logout", "user", identity, "error", err)
	}
	return errors.Join(cleanup...)
}

// SendMessage relays "{from}: {plaintext}" to the target. Targeting the server
// label broadcasts to every registered user except the sender; each recipient
// gets the message encrypted under its own channel. A recipient without a
// channel is skipped without failing the rest of a broadcast.
func (p *Protocol) SendMessage(ctx context.Context, from, target, plaintext string, sender Sender) error {
	source := from
	if source == "" {
		source = SourceUnknown
	}
	composed := fmt.Sprintf("%s: %s", source, plaintext)

	if target != SourceServer {
		return p.sendDirect(ctx, source, target, composed, sender)
	}

	entries, err := p.registry.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("broadcast from %s: %w", source, err)
	}
	for _, entry := range entries {
		if entry.Username == from {
			continue
		}
		ciphertext, err := p.channels.Encrypt(ctx, composed, entry.Username)
		if err != nil {
			p.log.Warn("skipping broadcast recipient", "user", entry.Username, "error", err)
			continue
		}
		if err := sender.ToConnection(ctx, entry.Handle, ReceiveMessage{Source: SourceServer, Payload: ciphertext}); err != nil {
			p.log.Error("failed to dispatch broadcast", "user", entry.Username, "error", err)
		}
	}
	return nil
}

func (p *Protocol) sendDirect(ctx context.Context, source, target, composed string, sender Sender) error {
	ciphertext, err := p.channels.Encrypt(ctx, composed, target)
	if err != nil {
		return fmt.Errorf("message to %s: %w", target, err)
	}

	handle, present, err := p.registry.Get(ctx, target)
	if err != nil {
		return fmt.Errorf("message to %s: %w", target, err)
	}
	if !present {
		return fmt.Errorf("message to %s: %w", target, channel.ErrChannelNotFound)
	}

	if err := sender.ToConnection(ctx, handle, ReceiveMessage{Source: source, Payload: ciphertext}); err != nil {
		p.log.Error("failed to dispatch message", "user", target, "error", err)
	}
	return nil
}

// dispatchNotice encrypts a server notice for one user and sends it to that
// user's specific connection. A failure affects only that recipient.
func (p *Protocol) dispatchNotice(ctx context.Context, sender Sender, entry presence.Entry, notice string) {
	ciphertext, err := p.channels.Encrypt(ctx, notice, entry.Username)
	if err != nil {
		p.log.Warn("skipping notice for user", "user", entry.Username, "error", err)
		return
	}
	if err := sender.ToConnection(ctx, entry.Handle, ReceiveMessage{Source: SourceServer, Payload: ciphertext}); err != nil {
		p.log.Error("failed to dispatch notice", "user", entry.Username, "error", err)
	}
}
