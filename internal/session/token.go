package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken — базовая причина для всех ошибок декодирования.
var ErrMalformedToken = errors.New("malformed token")

// DecodeError — access-токен не удалось разобрать в Claims.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil && !errors.Is(e.Err, ErrMalformedToken) {
		return fmt.Sprintf("session.Decode: %s: %v", e.Reason, e.Err)
	}

	return "session.Decode: " + e.Reason
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedToken}
	}

	return []error{ErrMalformedToken, e.Err}
}

// Claims — данные сессии, выведенные из подписанного payload access-токена.
type Claims struct {
	Role    Role
	Expiry  time.Time
	Subject string
}

// Expired — срок действия наступил (expiry <= now).
func (c Claims) Expired(now time.Time) bool {
	return !now.Before(c.Expiry)
}

// accessClaims — ожидаемая форма payload. Role — кастомный claim бэкенда.
type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Decode разбирает payload JWT без проверки подписи: ключ подписи есть только у бэкенда.
// Подлинность токена проверяет сервер при каждом запросе, клиенту нужны лишь
// exp и role для решения о навигации.
//
// Ошибки (*DecodeError):
//   - пустая строка или не три сегмента / битый base64 / битый JSON;
//   - отсутствует exp;
//   - отсутствует role или она не из перечня портала.
func Decode(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, &DecodeError{Reason: "empty token"}
	}

	var ac accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &ac); err != nil {
		return Claims{}, &DecodeError{Reason: "parse payload", Err: err}
	}

	if ac.ExpiresAt == nil {
		return Claims{}, &DecodeError{Reason: "missing exp claim"}
	}

	role := NormalizeRole(ac.Role)
	if role == "" {
		return Claims{}, &DecodeError{Reason: "missing role claim"}
	}

	if !role.Known() {
		return Claims{}, &DecodeError{Reason: fmt.Sprintf("unknown role %q", ac.Role)}
	}

	return Claims{
		Role:    role,
		Expiry:  ac.ExpiresAt.Time,
		Subject: ac.Subject,
	}, nil
}
