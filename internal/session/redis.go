package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "portal:session:"
	maxWatchAttempts   = 5

	fieldAccess  = "access"
	fieldRefresh = "refresh"
	fieldRole    = "role"
)

// ErrConcurrentUpdate — исчерпаны попытки оптимистичного Update (WATCH).
var ErrConcurrentUpdate = errors.New("concurrent session update")

// RedisStore хранит тройку как Redis Hash с полями access, refresh, role.
// Запись идёт через MULTI/EXEC, Update — через WATCH, поэтому читатель
// видит либо старую, либо новую тройку целиком.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "portal:session:". profile отделяет сессии
// разных пользователей одного терминала.
func NewRedisStore(ctx context.Context, redisURL, prefix, profile string) (*RedisStore, error) {
	const op = "session.redis.NewRedisStore"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return NewRedisStoreFromClient(rdb, prefix, profile), nil
}

// NewRedisStoreFromClient оборачивает готовый клиент.
func NewRedisStoreFromClient(rdb *redis.Client, prefix, profile string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	if profile == "" {
		profile = "default"
	}

	return &RedisStore{rdb: rdb, key: prefix + profile}
}

func (s *RedisStore) Get(ctx context.Context) (Credentials, error) {
	const op = "session.redis.Get"

	m, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	return fromHash(m), nil
}

func (s *RedisStore) Set(ctx context.Context, c Credentials) error {
	const op = "session.redis.Set"

	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		writeHash(ctx, p, s.key, c.normalized())
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *RedisStore) Update(ctx context.Context, fn func(c *Credentials) error) error {
	const op = "session.redis.Update"

	txf := func(tx *redis.Tx) error {
		m, err := tx.HGetAll(ctx, s.key).Result()
		if err != nil {
			return err
		}

		cur := fromHash(m)
		if err := fn(&cur); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			writeHash(ctx, p, s.key, cur.normalized())
			return nil
		})

		return err
	}

	for attempt := 0; attempt < maxWatchAttempts; attempt++ {
		err := s.rdb.Watch(ctx, txf, s.key)
		if err == nil {
			return nil
		}

		if errors.Is(err, redis.TxFailedErr) {
			// Ключ изменили между WATCH и EXEC — перечитываем.
			continue
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Errorf("%s: %w", op, ErrConcurrentUpdate)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	const op = "session.redis.Clear"

	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (s *RedisStore) Close() error { return s.rdb.Close() }

func fromHash(m map[string]string) Credentials {
	return Credentials{
		Access:  m[fieldAccess],
		Refresh: m[fieldRefresh],
		Role:    NormalizeRole(m[fieldRole]),
	}
}

// writeHash кладёт в пайплайн замену хэша целиком: старые поля не переживают запись.
func writeHash(ctx context.Context, p redis.Pipeliner, key string, c Credentials) {
	p.Del(ctx, key)

	if c.Empty() && c.Role == "" {
		return
	}

	p.HSet(ctx, key, map[string]any{
		fieldAccess:  c.Access,
		fieldRefresh: c.Refresh,
		fieldRole:    string(c.Role),
	})
}
