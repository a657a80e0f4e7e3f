package middleware

import (
	"context"
	"net/http"

	"github.com/pribylovaa/campus-portal/internal/gate"
	"github.com/pribylovaa/campus-portal/internal/session"
)

type ctxKey string

const ctxRole ctxKey = "role"

// RoleFrom — роль, допущенная RequireRoles для текущего запроса.
func RoleFrom(ctx context.Context) session.Role {
	r, _ := ctx.Value(ctxRole).(session.Role)
	return r
}

// RequireRoles пропускает запрос только после Gate.Admit с заданными ролями.
// Denied — 303 на страницу входа с исходным адресом в next.
// Discarded — клиент ушёл, ответ не пишется.
// Решение и роль попадают в запись Logging.
func RequireRoles(g *gate.Gate, loginPath string, roles ...session.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Admit(r.Context(), gate.Route{Path: r.URL.Path, AllowedRoles: roles})

			if tr := traceFrom(r.Context()); tr != nil {
				tr.checked = true
				tr.decision = d.State
				tr.role = d.Role
			}

			switch d.State {
			case gate.Admitted:
				ctx := context.WithValue(r.Context(), ctxRole, d.Role)
				next.ServeHTTP(w, r.WithContext(ctx))
			case gate.Denied:
				http.Redirect(w, r, gate.LoginRedirect(loginPath, r.URL.RequestURI()), http.StatusSeeOther)
			}
		})
	}
}
