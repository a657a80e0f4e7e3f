// log прокладывает request-scoped *slog.Logger портала через context.Context.
// Оболочка кладёт логгер с request_id, а Gate и клиенты бэкенда пишут свои
// события в него же, чтобы одна навигация читалась по одному id.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Общие ключи атрибутов оболочки, Gate и клиентов.
const (
	KeyRequestID = "request_id"
	KeyRoute     = "route"
	KeyRole      = "role"
)

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Or — логгер запроса из контекста, иначе fallback, иначе slog.Default().
func Or(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}

	if fallback != nil {
		return fallback
	}

	return slog.Default()
}

// From — логгер запроса или slog.Default().
func From(ctx context.Context) *slog.Logger { return Or(ctx, nil) }

// WithRequestID привязывает к логгеру запроса request_id и кладёт результат
// в контекст. Пустой id не добавляется.
func WithRequestID(ctx context.Context, fallback *slog.Logger, requestID string) (context.Context, *slog.Logger) {
	l := Or(ctx, fallback)
	if requestID != "" {
		l = l.With(slog.String(KeyRequestID, requestID))
	}

	return Into(ctx, l), l
}
