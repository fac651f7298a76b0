package store

import (
	"context"
	"errors"
)

// ErrFieldNotFound is returned when a namespace has no value for the requested field.
var ErrFieldNotFound = errors.New("field not found")

// Store gives hash-map access to a namespaced key-value backend.
// Each namespace behaves like an independent map of field -> value; the
// backend is the sole arbiter of atomicity per field, and no transactional
// guarantee across fields or namespaces is assumed.
type Store interface {
	SetField(ctx context.Context, namespace, field string, value []byte) error
	GetField(ctx context.Context, namespace, field string) ([]byte, error)
	GetAllFields(ctx context.Context, namespace string) (map[string][]byte, error)
	DeleteField(ctx context.Context, namespace, field string) error
}
