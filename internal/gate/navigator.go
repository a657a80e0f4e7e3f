package gate

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Outcome — результат одной навигации.
type Outcome struct {
	State    State
	Route    Route
	Location string
	// Params — значения сегментов вида {id}.
	Params map[string]string
	// Redirect — куда перейти вместо запрошенного адреса.
	Redirect string
	Role     string
}

// Navigator — клиентская навигация по таблице маршрутов. Каждая смена адреса
// заново проходит Gate.Admit; решения не кэшируются. Новая навигация отменяет
// проверку предыдущей.
type Navigator struct {
	gate      *Gate
	loginPath string
	routes    []Route
	// mux сопоставляет адрес с шаблоном маршрута (chi, метод GET).
	mux    *chi.Mux
	byPath map[string]Route

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewNavigator создаёт навигатор. Маршрут "/" по умолчанию ведёт на loginPath.
// Пути маршрутов — шаблоны chi, например "/faculty/students/{id}".
func NewNavigator(g *Gate, loginPath string, routes ...Route) *Navigator {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	n := &Navigator{
		gate:      g,
		loginPath: loginPath,
		mux:       chi.NewMux(),
		byPath:    make(map[string]Route, len(routes)+1),
	}

	hasRoot := false
	for _, r := range routes {
		if r.Path == "/" {
			hasRoot = true
		}
	}

	if !hasRoot {
		n.add(Route{Path: "/", Redirect: loginPath})
	}

	for _, r := range routes {
		n.add(r)
	}

	return n
}

func (n *Navigator) add(r Route) {
	if _, dup := n.byPath[r.Path]; !dup {
		n.routes = append(n.routes, r)
		n.mux.Get(r.Path, http.NotFound)
	}

	n.byPath[r.Path] = r
}

// Routes — таблица маршрутов навигатора.
func (n *Navigator) Routes() []Route {
	out := make([]Route, len(n.routes))
	for i, r := range n.routes {
		out[i] = n.byPath[r.Path]
	}
	return out
}

// Navigate переходит по адресу location (путь с необязательным query).
func (n *Navigator) Navigate(ctx context.Context, location string) Outcome {
	navCtx := n.begin(ctx)

	u, err := url.Parse(location)
	if err != nil {
		return Outcome{State: NotFound, Location: location}
	}

	route, params, ok := n.match(u.Path)
	if !ok {
		return Outcome{State: NotFound, Location: location}
	}

	out := Outcome{Route: route, Location: location, Params: params}

	switch {
	case route.Redirect != "":
		out.State = Redirected
		out.Redirect = route.Redirect
		return out
	case route.Public:
		out.State = Admitted
		return out
	}

	d := n.gate.Admit(navCtx, route)

	out.State = d.State
	out.Role = d.Role.String()

	if d.State == Denied {
		out.Redirect = LoginRedirect(n.loginPath, location)
	}

	return out
}

// begin отменяет проверку предыдущей навигации и начинает новую.
func (n *Navigator) begin(ctx context.Context) context.Context {
	navCtx, cancel := context.WithCancel(ctx)

	n.mu.Lock()
	prev := n.cancel
	n.cancel = cancel
	n.mu.Unlock()

	if prev != nil {
		prev()
	}

	return navCtx
}

// Close отменяет текущую навигацию.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

// match ищет шаблон маршрута через chi. Завершающий слэш не различается.
func (n *Navigator) match(p string) (Route, map[string]string, bool) {
	if p == "" {
		p = "/"
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}

	rctx := chi.NewRouteContext()
	pattern := n.mux.Find(rctx, http.MethodGet, p)
	if pattern == "" {
		return Route{}, nil, false
	}

	route, ok := n.byPath[pattern]
	if !ok {
		return Route{}, nil, false
	}

	var params map[string]string
	for i, k := range rctx.URLParams.Keys {
		if k == "" || k == "*" {
			continue
		}
		if params == nil {
			params = make(map[string]string, len(rctx.URLParams.Keys))
		}
		params[k] = rctx.URLParams.Values[i]
	}

	return route, params, true
}
