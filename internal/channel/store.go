package channel

import (
	"context"
	"errors"
	"fmt"

	"securechat/internal/encryption"
	"securechat/internal/store"
)

// ErrChannelNotFound is returned when encrypt/decrypt is requested for a
// username that never submitted symmetric material, or whose material was
// destroyed on disconnect.
var ErrChannelNotFound = errors.New("no symmetric channel for user")

// Store hashes holding the unwrapped per-user material, one field per username.
const (
	keyNamespace = "userSymmetricKeys"
	ivNamespace  = "userSymmetricIVs"
)

// Unwrapper decrypts RSA key-wrap payloads. Satisfied by encryption.KeyService.
type Unwrapper interface {
	Unwrap(ciphertext []byte) ([]byte, error)
}

// Store keeps each user's AES key and IV, unwrapped once on submission and
// destroyed on disconnect. The same key/IV pair is reused for every message to
// that user until resubmission.
type Store struct {
	store store.Store
	rsa   Unwrapper
}

func NewStore(s store.Store, rsa Unwrapper) *Store {
	return &Store{store: s, rsa: rsa}
}

// Submit unwraps both payloads and replaces the user's channel material.
// Both payloads are unwrapped before either field is written, so a malformed
// submission leaves any prior channel intact.
func (s *Store) Submit(ctx context.Context, username string, wrappedKey, wrappedIV []byte) error {
	key, err := s.rsa.Unwrap(wrappedKey)
	if err != nil {
		return fmt.Errorf("unwrap key for %s: %w", username, err)
	}
	iv, err := s.rsa.Unwrap(wrappedIV)
	if err != nil {
		return fmt.Errorf("unwrap iv for %s: %w", username, err)
	}

	if err := s.store.SetField(ctx, keyNamespace, username, key); err != nil {
		return fmt.Errorf("store key for %s: %w", username, err)
	}
	if err := s.store.SetField(ctx, ivNamespace, username, iv); err != nil {
		return fmt.Errorf("store iv for %s: %w", username, err)
	}
	return nil
}

// Encrypt produces base64 AES-CBC ciphertext under the user's current material.
func (s *Store) Encrypt(ctx context.Context, plaintext, username string) (string, error) {
	key, iv, err := s.material(ctx, username)
	if err != nil {
		return "", err
	}
	ciphertext, err := encryption.EncryptCBC(key, iv, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("encrypt for %s: %w", username, err)
	}
	return ciphertext, nil
}

// Decrypt is the inverse of Encrypt.
func (s *Store) Decrypt(ctx context.Context, ciphertext, username string) (string, error) {
	key, iv, err := s.material(ctx, username)
	if err != nil {
		return "", err
	}
	plaintext, err := encryption.DecryptCBC(key, iv, ciphertext)
	if err != nil {
		return "", fmt.Errorf("decrypt for %s: %w", username, err)
	}
	return string(plaintext), nil
}

// Drop destroys the user's channel material. A later reconnect must perform a
// fresh key-wrap handshake. Dropping an absent channel is not an error.
func (s *Store) Drop(ctx context.Context, username string) error {
	if err := s.store.DeleteField(ctx, keyNamespace, username); err != nil {
		return fmt.Errorf("drop key for %s: %w", username, err)
	}
	if err := s.store.DeleteField(ctx, ivNamespace, username); err != nil {
		return fmt.Errorf("drop iv for %s: %w", username, err)
	}
	return nil
}

func (s *Store) material(ctx context.Context, username string) (key, iv []byte, err error) {
	key, err = s.store.GetField(ctx, keyNamespace, username)
	if err != nil {
		return nil, nil, channelLookupError(username, err)
	}
	iv, err = s.store.GetField(ctx, ivNamespace, username)
	if err != nil {
		return nil, nil, channelLookupError(username, err)
	}
	return key, iv, nil
}

// A half-written channel (key without iv, or the reverse) counts as absent:
// no cross-field guarantee is assumed from the store.
func channelLookupError(username string, err error) error {
	if errors.Is(err, store.ErrFieldNotFound) {
		return fmt.Errorf("%s: %w", username, ErrChannelNotFound)
	}
	return fmt.Errorf("channel lookup for %s: %w", username, err)
}
