package presence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"securechat/internal/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRegistry(store.NewRedis(rdb))
}

func TestRegistry_AddThenList(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)
	ctx := context.Background()

	req.NoError(registry.Add(ctx, "alice", "h1"))

	entries, err := registry.ListAll(ctx)
	req.NoError(err)
	req.Contains(entries, Entry{Username: "alice", Handle: "h1"})
}

func TestRegistry_Add_ReconnectOverwrites(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)
	ctx := context.Background()

	req.NoError(registry.Add(ctx, "alice", "h1"))
	req.NoError(registry.Add(ctx, "alice", "h2"))

	handle, present, err := registry.Get(ctx, "alice")
	req.NoError(err)
	req.True(present)
	req.Equal("h2", handle)

	count, err := registry.Count(ctx)
	req.NoError(err)
	req.Equal(1, count)
}

func TestRegistry_Remove_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)
	ctx := context.Background()

	req.NoError(registry.Add(ctx, "alice", "h1"))
	req.NoError(registry.Add(ctx, "bob", "h2"))

	req.NoError(registry.Remove(ctx, "alice"))
	// Removing an absent username does not error and leaves others untouched.
	req.NoError(registry.Remove(ctx, "alice"))

	entries, err := registry.ListAll(ctx)
	req.NoError(err)
	usernames := lo.Map(entries, func(e Entry, _ int) string { return e.Username })
	req.Equal([]string{"bob"}, usernames)
}

func TestRegistry_Get_Absent(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)

	_, present, err := registry.Get(context.Background(), "nobody")
	req.NoError(err)
	req.False(present)
}

func TestRegistry_IsEmpty(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)
	ctx := context.Background()

	empty, err := registry.IsEmpty(ctx)
	req.NoError(err)
	req.True(empty)

	req.NoError(registry.Add(ctx, "alice", "h1"))

	empty, err = registry.IsEmpty(ctx)
	req.NoError(err)
	req.False(empty)
}
