package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/campus-portal/internal/clients"
	apierrors "github.com/pribylovaa/campus-portal/internal/errors"
	"github.com/pribylovaa/campus-portal/internal/gate"
	"github.com/pribylovaa/campus-portal/internal/session"
)

// Handlers агрегирует зависимости (клиенты бэкенда).
type Handlers struct {
	Clients   *clients.Clients
	LoginPath string
}

func New(c *clients.Clients, loginPath string) *Handlers {
	if loginPath == "" {
		loginPath = gate.DefaultLoginPath
	}

	return &Handlers{Clients: c, LoginPath: loginPath}
}

// HomeOf — стартовое отображение роли после входа.
func HomeOf(role session.Role) string {
	switch role {
	case session.RoleStudent:
		return "/student"
	case session.RoleFaculty:
		return "/faculty"
	default:
		return "/"
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// errInvalidArgument — локальная ошибка разбора запроса, отдаётся как 400.
func errInvalidArgument() error {
	return &apierrors.APIError{Status: http.StatusBadRequest, Detail: "invalid argument"}
}

// writeError пишет ошибку клиента. Завершённая сессия — это перенаправление
// на вход, а не ошибка.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, clients.ErrSessionEnded) {
		http.Redirect(w, r, gate.LoginRedirect(h.LoginPath, r.URL.RequestURI()), http.StatusSeeOther)
		return
	}

	apierrors.WriteError(w, r, err)
}
