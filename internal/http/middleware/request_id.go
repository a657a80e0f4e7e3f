package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/pribylovaa/campus-portal/internal/clients/interceptors"
)

const maxRequestIDLen = 128

// RequestID обеспечивает наличие X-Request-Id у запроса оболочки.
// Входящий id принимается, если он короткий и из печатных ASCII без пробелов,
// иначе выдаётся новый UUID. Id возвращается в ответе и кладётся в контекст
// (interceptors.CtxRequestID): с ним же уходят запросы к бэкенду.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if !validRequestID(id) {
				id = uuid.NewString()
				r.Header.Set("X-Request-Id", id)
			}
			w.Header().Set("X-Request-Id", id)

			ctx := context.WithValue(r.Context(), interceptors.CtxRequestID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}

	for i := 0; i < len(id); i++ {
		if c := id[i]; c <= ' ' || c > '~' {
			return false
		}
	}

	return true
}
