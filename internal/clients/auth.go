package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/campus-portal/internal/models"
	"github.com/pribylovaa/campus-portal/internal/pkg/redact"
	"github.com/pribylovaa/campus-portal/internal/session"
)

// AuthService — вход, регистрация и выход.
type AuthService struct {
	c *Client
}

func NewAuthService(c *Client) *AuthService { return &AuthService{c: c} }

// Login получает пару токенов и сохраняет тройку (access, refresh, role).
// Роль приводится к нижнему регистру; если бэкенд её не прислал, берётся из токена.
func (s *AuthService) Login(ctx context.Context, username, password string) (models.Session, error) {
	const op = "clients.Auth.Login"

	l := s.c.logger(ctx).With(slog.String("username", redact.Username(username)))

	var pair models.TokenPair
	err := s.c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   s.c.paths.Token,
		Body:   models.LoginRequest{Username: strings.TrimSpace(username), Password: password},
	}, &pair)
	if err != nil {
		l.Info("login_failed", slog.String("err", err.Error()))
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if pair.Access == "" || pair.Refresh == "" {
		l.Warn("login_invalid_response")
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrInvalidResponse)
	}

	role := session.NormalizeRole(pair.Role)
	if role == "" {
		if claims, err := session.Decode(pair.Access); err == nil {
			role = claims.Role
		}
	}

	if err := s.c.store.Set(ctx, session.Credentials{
		Access:  pair.Access,
		Refresh: pair.Refresh,
		Role:    role,
	}); err != nil {
		return models.Session{}, fmt.Errorf("%s: store session: %w", op, err)
	}

	l.Info("login_ok", slog.String("role", role.String()))

	return models.Session{Role: role.String(), RedirectURL: pair.RedirectURL}, nil
}

// Register создаёт учётную запись. Выданные токены не сохраняются:
// пользователь входит отдельно.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error) {
	const op = "clients.Auth.Register"

	req.Username = strings.TrimSpace(req.Username)
	req.Role = session.NormalizeRole(req.Role).String()

	var resp models.RegisterResponse
	err := s.c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   s.c.paths.Register,
		Body:   req,
	}, &resp)
	if err != nil {
		return models.RegisterResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	resp.Role = session.NormalizeRole(resp.Role).String()

	s.c.logger(ctx).Info("register_ok",
		slog.String("username", redact.Username(req.Username)),
		slog.String("role", resp.Role),
	)

	return resp, nil
}

// Logout удаляет тройку из хранилища.
func (s *AuthService) Logout(ctx context.Context) error {
	const op = "clients.Auth.Logout"

	if err := s.c.store.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.c.logger(ctx).Info("logout_ok")

	return nil
}

// Whoami декодирует текущий access-токен. Сохранённая роль не используется.
func (s *AuthService) Whoami(ctx context.Context) (session.Claims, error) {
	const op = "clients.Auth.Whoami"

	creds, err := s.c.store.Get(ctx)
	if err != nil {
		return session.Claims{}, fmt.Errorf("%s: %w", op, err)
	}

	if creds.Access == "" {
		return session.Claims{}, fmt.Errorf("%s: %w", op, session.ErrNoSession)
	}

	claims, err := session.Decode(creds.Access)
	if err != nil {
		return session.Claims{}, fmt.Errorf("%s: %w", op, err)
	}

	return claims, nil
}
