package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/campus-portal/internal/clients/interceptors"
	"github.com/pribylovaa/campus-portal/internal/gate"
	logctx "github.com/pribylovaa/campus-portal/internal/pkg/log"
)

// Logging кладёт в контекст логгер запроса с request_id и пишет одну запись
// "http" на запрос: шаблон маршрута, решение Gate и допущенную роль.
// Этот же логгер подхватывают Gate и клиенты бэкенда.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, reqLogger := logctx.WithRequestID(r.Context(), l, interceptors.RequestIDFrom(r.Context()))
			ctx, tr := withTrace(ctx)
			r = r.WithContext(ctx)

			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)
			dur := time.Since(start)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}

			lvl := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				lvl = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String(logctx.KeyRoute, routePattern(r)),
				slog.Int("status", status),
				slog.Duration("dur", dur),
				slog.Int("bytes", sw.count),
			}
			if tr.checked {
				attrs = append(attrs, slog.String("gate", tr.decision.String()))
				if tr.decision == gate.Admitted {
					attrs = append(attrs, slog.String(logctx.KeyRole, tr.role.String()))
				}
			}

			reqLogger.LogAttrs(r.Context(), lvl, "http", attrs...)
		})
	}
}
