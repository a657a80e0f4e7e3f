package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/campus-portal/internal/config"
	"github.com/pribylovaa/campus-portal/internal/metrics"
	"github.com/pribylovaa/campus-portal/internal/session"
)

// Clients агрегирует общий Client и типизированные сервисы поверх него.
type Clients struct {
	API      *Client
	Auth     *AuthService
	Students *StudentsService
	Faculty  *FacultyService
}

// New собирает клиентов бэкенда по конфигурации.
// onEnded вызывается каждый раз, когда сессия завершается после неудачного refresh.
func New(ctx context.Context, cfg config.Config, store session.Store, log *slog.Logger, m *metrics.Metrics, onEnded func(ctx context.Context)) (*Clients, error) {
	const op = "internal/clients/New"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	api, err := NewClient(store, Options{
		BaseURL:           cfg.API.BaseURL,
		Paths:             cfg.API.Paths,
		Timeout:           cfg.API.Timeout,
		UserAgent:         cfg.API.UserAgent,
		PerRequestRefresh: cfg.API.PerRequestRefresh,
		Logger:            log,
		Metrics:           m,
		OnSessionEnded:    onEnded,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Clients{
		API:      api,
		Auth:     NewAuthService(api),
		Students: NewStudentsService(api),
		Faculty:  NewFacultyService(api),
	}, nil
}

// Close освобождает соединения транспорта.
func (c *Clients) Close() error {
	c.API.CloseIdleConnections()
	return nil
}
