package interceptors

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/campus-portal/internal/pkg/log"
)

// WithLogging — логирование исходящих попыток.
// Поведение:
//   - берёт request-scoped логгер из контекста (pkg/log), иначе base;
//   - добавляет request_id/method/path, прокладывает обогащённый логгер в контекст;
//   - пишет одну запись на попытку: msg="http_out", status, dur
//     (Warn, если ответа нет).
//
// Безопасность: не логирует тела, query и заголовок Authorization.
func WithLogging(base *slog.Logger) Middleware {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			l := log.Or(r.Context(), base).With(
				slog.String(log.KeyRequestID, r.Header.Get("X-Request-Id")),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			r = r.WithContext(log.Into(r.Context(), l))

			resp, err := next.RoundTrip(r)
			if err != nil {
				l.Warn("http_out",
					slog.String("err", err.Error()),
					slog.Duration("dur", time.Since(start)),
				)
				return nil, err
			}

			l.Info("http_out",
				slog.Int("status", resp.StatusCode),
				slog.Duration("dur", time.Since(start)),
			)

			return resp, nil
		})
	}
}
