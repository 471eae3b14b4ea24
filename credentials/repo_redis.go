package credentials

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "adminctl:credentials:"

var _ Repo = (*RedisRepo)(nil)

// RedisOptions configures a RedisRepo.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisRepo stores credentials as plain string keys in Redis.
type RedisRepo struct {
	client *redis.Client
	prefix string
}

// NewRedisRepo connects to Redis and verifies the connection with a PING.
func NewRedisRepo(ctx context.Context, opts RedisOptions) (*RedisRepo, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisRepo{client: client, prefix: prefix}, nil
}

func (r *RedisRepo) key(key string) string {
	return r.prefix + key
}

func (r *RedisRepo) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("%s: %w", key, apperrors.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

func (r *RedisRepo) Upsert(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisRepo) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisRepo) Close() error {
	return r.client.Close()
}
