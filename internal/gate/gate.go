// gate решает, можно ли показать защищённое отображение при навигации.
//
// Основные аспекты:
//   - роль и срок действия всегда выводятся из access-токена;
//   - истёкший токен обновляется ровно одним вызовом Refresher, затем
//     новый токен декодируется и роль проверяется заново (строго последовательно);
//   - любая ошибка при проверке сводится к Denied, наружу не отдаётся;
//   - Denied не очищает сессию: это делает обработчик неудачного refresh;
//   - отменённая навигация даёт Discarded без перенаправления.
package gate

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/pribylovaa/campus-portal/internal/metrics"
	logctx "github.com/pribylovaa/campus-portal/internal/pkg/log"
	"github.com/pribylovaa/campus-portal/internal/session"
)

//go:generate mockgen -destination=../../mocks/refresher.go -package=mocks . Refresher

// Refresher — операция обновления access-токена клиента.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

type State int

const (
	Pending State = iota
	Checking
	Admitted
	Denied
	Discarded
	// NotFound и Redirected выдаёт только Navigator.
	NotFound
	Redirected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Checking:
		return "checking"
	case Admitted:
		return "admitted"
	case Denied:
		return "denied"
	case Discarded:
		return "discarded"
	case NotFound:
		return "not_found"
	case Redirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// Route — отображение и допустимые для него роли.
type Route struct {
	Path         string
	AllowedRoles []session.Role
	// Public — маршрут без проверки сессии (вход, регистрация).
	Public bool
	// Redirect — маршрут сразу перенаправляет на указанный адрес.
	Redirect string
}

// Decision — итог проверки одной навигации.
type Decision struct {
	State  State
	Role   session.Role
	Reason string
}

// Observer получает каждую смену состояния проверки.
type Observer func(ctx context.Context, route Route, s State)

const DefaultLoginPath = "/login"

type Gate struct {
	store     session.Store
	refresher Refresher
	now       func() time.Time
	log       *slog.Logger
	metrics   *metrics.Metrics
	observer  Observer
}

type Option func(*Gate)

func WithClock(now func() time.Time) Option { return func(g *Gate) { g.now = now } }
func WithLogger(l *slog.Logger) Option      { return func(g *Gate) { g.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(g *Gate) { g.metrics = m } }
func WithObserver(o Observer) Option        { return func(g *Gate) { g.observer = o } }

func New(store session.Store, refresher Refresher, opts ...Option) *Gate {
	g := &Gate{
		store:     store,
		refresher: refresher,
		now:       time.Now,
		log:       slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Admit выполняет проверку допуска для route.
func (g *Gate) Admit(ctx context.Context, route Route) Decision {
	l := g.logger(ctx).With(slog.String(logctx.KeyRoute, route.Path))

	g.notify(ctx, route, Pending)
	g.notify(ctx, route, Checking)

	d := g.check(ctx, route)

	// Навигацию отменили, пока шла проверка: результат никому не нужен.
	if ctx.Err() != nil {
		d = Decision{State: Discarded, Reason: "canceled"}
	}

	switch d.State {
	case Admitted:
		l.Debug("gate_admitted", slog.String(logctx.KeyRole, d.Role.String()))
	case Denied:
		l.Info("gate_denied", slog.String("reason", d.Reason))
	case Discarded:
		l.Debug("gate_discarded")
	}

	g.metrics.Decision(d.State.String())
	g.notify(ctx, route, d.State)

	return d
}

func (g *Gate) check(ctx context.Context, route Route) Decision {
	if err := ctx.Err(); err != nil {
		return Decision{State: Discarded, Reason: "canceled"}
	}

	creds, err := g.store.Get(ctx)
	if err != nil {
		g.logger(ctx).Warn("gate_store_failed", slog.String("err", err.Error()))
		return deny("store_error")
	}

	if creds.Access == "" {
		return deny("no_token")
	}

	claims, err := session.Decode(creds.Access)
	if err != nil {
		return deny("malformed_token")
	}

	if claims.Expired(g.now()) {
		tok, err := g.refresher.Refresh(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Decision{State: Discarded, Reason: "canceled"}
			}

			g.logger(ctx).Info("gate_refresh_failed", slog.String("err", err.Error()))
			return deny("refresh_failed")
		}

		claims, err = session.Decode(tok)
		if err != nil {
			return deny("malformed_token")
		}

		if claims.Expired(g.now()) {
			return deny("expired_after_refresh")
		}
	}

	if !claims.Role.In(route.AllowedRoles) {
		return Decision{State: Denied, Role: claims.Role, Reason: "role_not_allowed"}
	}

	return Decision{State: Admitted, Role: claims.Role}
}

func deny(reason string) Decision {
	return Decision{State: Denied, Reason: reason}
}

func (g *Gate) notify(ctx context.Context, route Route, s State) {
	if g.observer != nil {
		g.observer(ctx, route, s)
	}
}

func (g *Gate) logger(ctx context.Context) *slog.Logger {
	return logctx.Or(ctx, g.log)
}

// LoginRedirect — адрес входа с исходным расположением в параметре next.
func LoginRedirect(loginPath, next string) string {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	if next == "" {
		return loginPath
	}

	return loginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext оставляет в next только локальный путь, чтобы вход
// не уводил на чужой хост.
func SafeNext(next string) string {
	if next == "" {
		return ""
	}

	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || len(u.Path) == 0 || u.Path[0] != '/' {
		return ""
	}

	return u.RequestURI()
}
