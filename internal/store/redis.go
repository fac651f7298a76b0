package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store on top of redis hashes: one hash per namespace.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) SetField(ctx context.Context, namespace, field string, value []byte) error {
	if err := r.rdb.HSet(ctx, namespace, field, value).Err(); err != nil {
		return fmt.Errorf("hset %s/%s: %w", namespace, field, err)
	}
	return nil
}

func (r *Redis) GetField(ctx context.Context, namespace, field string) ([]byte, error) {
	value, err := r.rdb.HGet(ctx, namespace, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s/%s: %w", namespace, field, ErrFieldNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("hget %s/%s: %w", namespace, field, err)
	}
	return value, nil
}

func (r *Redis) GetAllFields(ctx context.Context, namespace string) (map[string][]byte, error) {
	raw, err := r.rdb.HGetAll(ctx, namespace).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", namespace, err)
	}
	fields := make(map[string][]byte, len(raw))
	for field, value := range raw {
		fields[field] = []byte(value)
	}
	return fields, nil
}

func (r *Redis) DeleteField(ctx context.Context, namespace, field string) error {
	if err := r.rdb.HDel(ctx, namespace, field).Err(); err != nil {
		return fmt.Errorf("hdel %s/%s: %w", namespace, field, err)
	}
	return nil
}
