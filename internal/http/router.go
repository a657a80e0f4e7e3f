package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pribylovaa/campus-portal/internal/clients"
	"github.com/pribylovaa/campus-portal/internal/gate"
	"github.com/pribylovaa/campus-portal/internal/http/handlers"
	"github.com/pribylovaa/campus-portal/internal/http/middleware"
	"github.com/pribylovaa/campus-portal/internal/session"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger    *slog.Logger
	Timeout   time.Duration
	LoginPath string // по умолчанию "/login"
}

// endpoint — одна точка входа оболочки. Route несёт шаблон chi и правила
// допуска; GET-точки — это отображения, по которым ходит Navigator.
type endpoint struct {
	Method string
	Route  gate.Route
	Handle func(*handlers.Handlers, http.ResponseWriter, *http.Request)
}

// endpoints — единая таблица маршрутов: из неё строятся и роутер, и Routes.
func endpoints(loginPath string) []endpoint {
	student := []session.Role{session.RoleStudent}
	faculty := []session.Role{session.RoleFaculty}

	public := func(path string) gate.Route { return gate.Route{Path: path, Public: true} }
	only := func(path string, roles []session.Role) gate.Route {
		return gate.Route{Path: path, AllowedRoles: roles}
	}

	return []endpoint{
		// auth
		{http.MethodGet, gate.Route{Path: "/", Redirect: loginPath}, (*handlers.Handlers).Root},
		{http.MethodGet, public(loginPath), (*handlers.Handlers).LoginForm},
		{http.MethodPost, public(loginPath), (*handlers.Handlers).Login},
		{http.MethodGet, public("/register"), (*handlers.Handlers).RegisterForm},
		{http.MethodPost, public("/register"), (*handlers.Handlers).Register},
		{http.MethodPost, public("/logout"), (*handlers.Handlers).Logout},

		// student
		{http.MethodGet, only("/student", student), (*handlers.Handlers).StudentHome},
		{http.MethodPatch, only("/student/profile", student), (*handlers.Handlers).UpdateProfile},
		{http.MethodPost, only("/student/avatar", student), (*handlers.Handlers).UploadAvatar},
		{http.MethodGet, only("/student/subjects", student), (*handlers.Handlers).Subjects},

		// faculty
		{http.MethodGet, only("/faculty", faculty), (*handlers.Handlers).FacultyHome},
		{http.MethodPost, only("/faculty/students", faculty), (*handlers.Handlers).CreateStudent},
		{http.MethodGet, only("/faculty/students/{id}", faculty), (*handlers.Handlers).FacultyStudent},
		{http.MethodPut, only("/faculty/students/{id}", faculty), (*handlers.Handlers).UpdateStudent},
		{http.MethodPost, only("/faculty/students/{id}/assign", faculty), (*handlers.Handlers).AssignStudent},
	}
}

// NewRouter собирает http.Handler локальной оболочки: chi, мидлвары и
// отображения, закрытые Gate по ролям.
func NewRouter(cl *clients.Clients, g *gate.Gate, opts Options) http.Handler {
	if opts.LoginPath == "" {
		opts.LoginPath = gate.DefaultLoginPath
	}

	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.RequestID(), // до логирования
		middleware.Logging(opts.Logger),
		middleware.Recover(), // паника видна в записи Logging как 500
		chimw.StripSlashes,
		middleware.Timeout(opts.Timeout),
	)

	h := handlers.New(cl, opts.LoginPath)

	root.NotFound(handlers.NotFound)
	registerRoutes(root, h, g, opts.LoginPath)

	return root
}

// registerRoutes — единая точка регистрации всех маршрутов оболочки.
func registerRoutes(r chi.Router, h *handlers.Handlers, g *gate.Gate, loginPath string) {
	for _, e := range endpoints(loginPath) {
		handle := e.Handle
		var hf http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handle(h, w, r)
		})

		if len(e.Route.AllowedRoles) > 0 {
			hf = middleware.RequireRoles(g, loginPath, e.Route.AllowedRoles...)(hf)
		}

		r.Method(e.Method, e.Route.Path, hf)
	}
}

// Routes — отображения оболочки (GET-точки) для Navigator (portal open).
func Routes(loginPath string) []gate.Route {
	if loginPath == "" {
		loginPath = gate.DefaultLoginPath
	}

	var views []gate.Route
	for _, e := range endpoints(loginPath) {
		if e.Method == http.MethodGet {
			views = append(views, e.Route)
		}
	}

	return views
}

