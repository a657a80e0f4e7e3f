package interceptors

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type CtxKey string

// CtxRequestID — id запроса оболочки; кладётся мидлваром RequestID.
const CtxRequestID CtxKey = "request_id"

// RequestIDFrom достаёт id запроса из контекста.
func RequestIDFrom(ctx context.Context) string {
	rid, _ := ctx.Value(CtxRequestID).(string)
	return rid
}

// WithMetadata добавляет в исходящий запрос заголовки:
//   - X-Request-Id (из контекста, из самого запроса или новый UUID);
//   - User-Agent (если передан параметром).
//
// Исходный *http.Request не модифицируется.
func WithMetadata(userAgent string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			rid := RequestIDFrom(r.Context())
			if rid == "" {
				rid = r.Header.Get("X-Request-Id")
			}
			if rid == "" {
				rid = uuid.NewString()
			}

			r = r.Clone(r.Context())
			r.Header.Set("X-Request-Id", rid)
			if userAgent != "" {
				r.Header.Set("User-Agent", userAgent)
			}

			return next.RoundTrip(r)
		})
	}
}
