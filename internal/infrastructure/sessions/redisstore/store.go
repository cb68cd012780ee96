// Package redisstore shares account retry counters across API replicas.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix  = "nlq:account_retry:"
	DefaultIdleTTL = 15 * time.Minute
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	IdleTTL  time.Duration
}

type RetryStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func Open(ctx context.Context, cfg Config) (*RetryStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, cfg.Prefix, cfg.IdleTTL), nil
}

func New(client redis.UniversalClient, prefix string, idleTTL time.Duration) *RetryStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &RetryStore{client: client, prefix: prefix, ttl: idleTTL}
}

func (s *RetryStore) key(caller string) string {
	return s.prefix + caller
}

func (s *RetryStore) Get(ctx context.Context, caller string) (int, error) {
	n, err := s.client.Get(ctx, s.key(caller)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	return n, nil
}

// Increment runs INCR and EXPIRE in one transaction so the idle expiry
// moves with every touch.
func (s *RetryStore) Increment(ctx context.Context, caller string) (int, error) {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, s.key(caller))
		pipe.Expire(ctx, s.key(caller), s.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RetryStore) Reset(ctx context.Context, caller string) error {
	if err := s.client.Del(ctx, s.key(caller)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (s *RetryStore) Close() error {
	return s.client.Close()
}
