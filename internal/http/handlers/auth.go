package handlers

import (
	"errors"
	"mime"
	"net/http"

	apierrors "github.com/pribylovaa/campus-portal/internal/errors"
	"github.com/pribylovaa/campus-portal/internal/gate"
	"github.com/pribylovaa/campus-portal/internal/models"
	"github.com/pribylovaa/campus-portal/internal/session"
)

const loginView = "login"

func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.LoginPath, http.StatusSeeOther)
}

// LoginForm — описание формы входа; next возвращается только локальный.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.LoginView{
		Name: loginView,
		Next: gate.SafeNext(r.URL.Query().Get("next")),
	})
}

// Login принимает JSON или форму. Успех — 303 на next или на стартовую страницу роли.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	next := r.URL.Query().Get("next")

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		if err := decodeStrict(r, &in); err != nil {
			apierrors.WriteError(w, r, errInvalidArgument())
			return
		}
	default:
		if err := r.ParseForm(); err != nil {
			apierrors.WriteError(w, r, errInvalidArgument())
			return
		}
		in.Username = r.PostForm.Get("username")
		in.Password = r.PostForm.Get("password")
		if v := r.PostForm.Get("next"); v != "" {
			next = v
		}
	}

	if in.Username == "" || in.Password == "" {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	sess, err := h.Clients.Auth.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		var ae *apierrors.APIError
		if errors.As(err, &ae) && ae.Status == http.StatusUnauthorized {
			writeJSON(w, http.StatusUnauthorized, models.LoginView{
				Name:  loginView,
				Next:  gate.SafeNext(next),
				Error: "invalid credentials",
			})
			return
		}

		h.writeError(w, r, err)
		return
	}

	target := gate.SafeNext(next)
	if target == "" {
		target = gate.SafeNext(sess.RedirectURL)
	}
	if target == "" {
		target = HomeOf(session.Role(sess.Role))
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// RegisterForm — описание формы регистрации.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.View{
		Name:     "register",
		Location: r.URL.RequestURI(),
		Data:     []session.Role{session.RoleStudent, session.RoleFaculty},
	})
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	if !session.NormalizeRole(in.Role).Known() {
		apierrors.WriteError(w, r, &apierrors.ValidationError{
			Status: http.StatusBadRequest,
			Fields: map[string][]string{"role": {"must be student or faculty"}},
		})
		return
	}

	resp, err := h.Clients.Auth.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Clients.Auth.Logout(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, h.LoginPath, http.StatusSeeOther)
}

// NotFound — единый JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	apierrors.Write(w, r, http.StatusNotFound, apierrors.ErrorResponse{Error: apierrors.Problem{
		Code:    "not_found",
		Message: "no such view",
	}})
}

