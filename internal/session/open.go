package session

import (
	"context"
	"fmt"

	"github.com/pribylovaa/campus-portal/internal/config"
)

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Open создаёт хранилище по конфигурации. RedisStore реализует io.Closer —
// вызывающий код закрывает его при завершении.
func Open(ctx context.Context, cfg config.SessionConfig) (Store, error) {
	const op = "session.Open"

	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile, "":
		path := cfg.Path
		if path == "" {
			p, err := DefaultPath(cfg.Profile)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			path = p
		}

		st, err := NewFileStore(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return st, nil
	case DriverRedis:
		st, err := NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix, cfg.Profile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return st, nil
	default:
		return nil, fmt.Errorf("%s: %q: %w", op, cfg.Driver, ErrUnknownDriver)
	}
}
