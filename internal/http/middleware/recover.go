package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/pribylovaa/campus-portal/internal/errors"
	logctx "github.com/pribylovaa/campus-portal/internal/pkg/log"
)

var errPanic = errors.New("handler panic")

// Recover перехватывает panic обработчика отображения и отвечает 500/internal.
// В лог уходят шаблон маршрута и стек; детали паники наружу не уходят.
// Если ответ уже начат, тело ошибки не дописывается.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "panic",
					slog.String("path", r.URL.Path),
					slog.String(logctx.KeyRoute, routePattern(r)),
					slog.Any("reason", rec),
					slog.String("stack", string(debug.Stack())),
				)

				if !sw.written() {
					apierrors.WriteError(sw, r, errPanic)
				}
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
