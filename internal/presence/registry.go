package presence

import (
	"context"
	"errors"
	"fmt"

	"securechat/internal/store"
)

// namespace is the store hash holding username -> connection handle.
const namespace = "connectedUsers"

// Entry pairs a registered username with the transport handle that addresses
// its connection.
type Entry struct {
	Username string
	Handle   string
}

// Registry is the durable username -> connection-handle mapping shared by all
// connection tasks. The backing store arbitrates atomicity per username; the
// registry adds no locking of its own, and concurrent writes to the same
// username race to last-writer-wins.
type Registry struct {
	store store.Store
}

func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s}
}

// Add upserts the entry for username. Re-adding an existing username
// overwrites its handle, which is what a reconnect needs.
func (r *Registry) Add(ctx context.Context, username, handle string) error {
	if err := r.store.SetField(ctx, namespace, username, []byte(handle)); err != nil {
		return fmt.Errorf("register %s: %w", username, err)
	}
	return nil
}

// Remove deletes the entry for username. Removing an absent username is not
// an error.
func (r *Registry) Remove(ctx context.Context, username string) error {
	if err := r.store.DeleteField(ctx, namespace, username); err != nil {
		return fmt.Errorf("unregister %s: %w", username, err)
	}
	return nil
}

// Get returns the connection handle for username, reporting presence.
func (r *Registry) Get(ctx context.Context, username string) (string, bool, error) {
	value, err := r.store.GetField(ctx, namespace, username)
	if err != nil {
		if errors.Is(err, store.ErrFieldNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup %s: %w", username, err)
	}
	return string(value), true, nil
}

// ListAll returns a snapshot of the registry. Iteration order is unspecified.
func (r *Registry) ListAll(ctx context.Context) ([]Entry, error) {
	fields, err := r.store.GetAllFields(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("list presence: %w", err)
	}
	entries := make([]Entry, 0, len(fields))
	for username, handle := range fields {
		entries = append(entries, Entry{Username: username, Handle: string(handle)})
	}
	return entries, nil
}

func (r *Registry) Count(ctx context.Context) (int, error) {
	entries, err := r.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (r *Registry) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.Count(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
