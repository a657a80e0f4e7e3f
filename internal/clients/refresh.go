package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/campus-portal/internal/errors"
	"github.com/pribylovaa/campus-portal/internal/models"
	"github.com/pribylovaa/campus-portal/internal/session"
)

var errSessionCleared = errors.New("session cleared during refresh")

// Refresh получает новый access-токен по refresh-токену из хранилища.
//
// Успех: новый access (и, если бэкенд их прислал, новый refresh и роль)
// записывается одной операцией Update, возвращается новый access.
// Любой отказ завершает сессию (Clear + OnSessionEnded) и возвращает
// ошибку, оборачивающую ErrSessionEnded. Исключение — отмена ctx вызывающим:
// тогда возвращается *TimeoutError или *NetworkError поверх ctx.Err(),
// сессия не трогается.
//
// Конкурентные вызовы для одного и того же access-токена по умолчанию
// сливаются в один запрос к бэкенду.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var stale string
	if cur, err := c.store.Get(ctx); err == nil {
		stale = cur.Access
	}

	return c.refreshStale(ctx, stale)
}

// refreshStale — refresh после отказа на токене stale. Вызовы сливаются по
// stale: все участники общего вызова видели один и тот же токен. Если в
// хранилище уже лежит другой токен, его и возвращаем без запроса к бэкенду.
func (c *Client) refreshStale(ctx context.Context, stale string) (string, error) {
	if c.perRequest {
		return c.refresh(ctx)
	}

	// Общий вызов не должен отменяться, если ушёл только один из ожидающих.
	ch := c.refreshGroup.DoChan("refresh:"+stale, func() (any, error) {
		fctx := context.WithoutCancel(ctx)

		if stale != "" {
			if cur, err := c.store.Get(fctx); err == nil && cur.Access != "" && cur.Access != stale {
				return cur.Access, nil
			}
		}

		return c.refresh(fctx)
	})

	select {
	case <-ctx.Done():
		return "", apierrors.FromTransport(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}

		return res.Val.(string), nil
	}
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	const op = "clients.Refresh"

	l := c.logger(ctx)

	fail := func(err error) (string, error) {
		c.metrics.Refresh(false)

		if errors.Is(err, ErrSessionEnded) {
			// Do уже очистил сессию (401 от refresh-эндпойнта).
			return "", fmt.Errorf("%s: %w", op, err)
		}

		if ctx.Err() != nil {
			return "", fmt.Errorf("%s: %w", op, apierrors.FromTransport(ctx.Err()))
		}

		l.Warn("refresh_failed", slog.String("err", err.Error()))
		c.endSession(ctx, err)

		return "", fmt.Errorf("%s: %w: %w", op, ErrSessionEnded, err)
	}

	creds, err := c.store.Get(ctx)
	if err != nil {
		return fail(fmt.Errorf("read session: %w", err))
	}

	if creds.Refresh == "" {
		return fail(ErrNoRefreshToken)
	}

	var pair models.TokenPair
	err = c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   c.paths.Refresh,
		Body:   models.RefreshRequest{Refresh: creds.Refresh},
	}, &pair)
	if err != nil {
		return fail(err)
	}

	if pair.Access == "" {
		return fail(ErrInvalidResponse)
	}

	err = c.store.Update(ctx, func(cur *session.Credentials) error {
		// Выход из системы во время refresh: не воскрешаем сессию.
		if cur.Refresh == "" {
			return errSessionCleared
		}

		cur.Access = pair.Access
		if pair.Refresh != "" {
			cur.Refresh = pair.Refresh
		}

		switch {
		case pair.Role != "":
			cur.Role = session.NormalizeRole(pair.Role)
		default:
			if claims, err := session.Decode(pair.Access); err == nil {
				cur.Role = claims.Role
			}
		}

		return nil
	})
	if err != nil {
		return fail(fmt.Errorf("store refreshed token: %w", err))
	}

	c.metrics.Refresh(true)
	l.Info("refresh_ok")

	return pair.Access, nil
}
