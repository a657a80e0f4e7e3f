// clients — HTTP-клиент REST-бэкенда портала и типизированные сервисы поверх него.
//
// Client.Do — единый конвейер запросов:
//   - bearer из хранилища сессии на всех эндпойнтах, кроме входа, регистрации и refresh;
//   - multipart/form-data для *Multipart, иначе application/json;
//   - 401 → один refresh и один повтор запроса с новым токеном;
//   - 401 от самого refresh-эндпойнта → сессия завершается, повтора нет;
//   - сетевая ошибка, таймаут или 503 → один повтор.
//
// Каждая политика срабатывает не более одного раза на вызов.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pribylovaa/campus-portal/internal/clients/interceptors"
	"github.com/pribylovaa/campus-portal/internal/config"
	apierrors "github.com/pribylovaa/campus-portal/internal/errors"
	"github.com/pribylovaa/campus-portal/internal/metrics"
	logctx "github.com/pribylovaa/campus-portal/internal/pkg/log"
	"github.com/pribylovaa/campus-portal/internal/session"

	"golang.org/x/sync/singleflight"
)

const maxResponseBody = 10 << 20

var (
	// ErrSessionEnded — сессия очищена после неудачного refresh; нужен повторный вход.
	ErrSessionEnded = errors.New("session ended")

	// ErrNoRefreshToken — в хранилище нет refresh-токена.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrInvalidResponse — 2xx-ответ без обязательных полей.
	ErrInvalidResponse = errors.New("invalid response format")
)

// Options — параметры Client.
type Options struct {
	BaseURL   string
	Paths     config.PathsConfig
	Timeout   time.Duration
	UserAgent string
	// PerRequestRefresh — каждый 401 вызывает собственный refresh.
	// По умолчанию конкурентные refresh сливаются в один вызов.
	PerRequestRefresh bool
	// Transport — базовый транспорт; nil — http.DefaultTransport.
	Transport http.RoundTripper
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	// OnSessionEnded вызывается после очистки сессии (переход на вход).
	OnSessionEnded func(ctx context.Context)
}

// Client — общий конвейер запросов к бэкенду.
type Client struct {
	base       *url.URL
	paths      config.PathsConfig
	http       *http.Client
	store      session.Store
	log        *slog.Logger
	metrics    *metrics.Metrics
	onEnded    func(ctx context.Context)
	perRequest bool

	refreshGroup singleflight.Group
}

// NewClient собирает клиент с цепочкой транспорта metadata -> timeout -> logging.
func NewClient(store session.Store, opts Options) (*Client, error) {
	const op = "clients.NewClient"

	if store == nil {
		return nil, fmt.Errorf("%s: nil session store", op)
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: base url: %w", op, err)
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%s: base url %q is not absolute", op, opts.BaseURL)
	}

	if base.Path == "" {
		base.Path = "/"
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	rt := interceptors.Chain(opts.Transport,
		interceptors.WithMetadata(opts.UserAgent),
		interceptors.WithTimeout(opts.Timeout),
		interceptors.WithLogging(log),
	)

	return &Client{
		base:       base,
		paths:      opts.Paths,
		http:       &http.Client{Transport: rt},
		store:      store,
		log:        log,
		metrics:    opts.Metrics,
		onEnded:    opts.OnSessionEnded,
		perRequest: opts.PerRequestRefresh,
	}, nil
}

// Store — хранилище сессии клиента.
func (c *Client) Store() session.Store { return c.store }

// Paths — пути эндпойнтов клиента.
func (c *Client) Paths() config.PathsConfig { return c.paths }

// Do выполняет запрос и декодирует JSON-ответ в out (если out != nil).
//
// Ошибки: ровно одна из таксономии apierrors. Если сессия завершена,
// ошибка дополнительно оборачивает ErrSessionEnded.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	const op = "clients.Do"

	p, err := c.prepare(req)
	if err != nil {
		return &apierrors.RequestSetupError{Err: fmt.Errorf("%s: %w", op, err)}
	}

	var (
		retried   bool
		refreshed bool
		bearer    string
	)

	for {
		body, sent, err := c.attempt(ctx, p, bearer)
		if err == nil {
			return decode(body, out)
		}

		if apierrors.StatusOf(err) == http.StatusUnauthorized {
			switch {
			case p.kind == kindRefresh:
				c.endSession(ctx, err)
				return fmt.Errorf("%w: %w", ErrSessionEnded, err)
			case p.kind == kindSignIn, p.kind == kindRegister:
				return err
			case refreshed:
				return err
			}

			refreshed = true
			c.metrics.Retry("refresh")

			tok, rerr := c.refreshStale(ctx, sent)
			if rerr != nil {
				return rerr
			}

			bearer = tok
			continue
		}

		if apierrors.Transient(err) && !retried && ctx.Err() == nil {
			retried = true
			c.metrics.Retry("transient")
			c.logger(ctx).Debug("request_retry",
				slog.String("path", p.path),
				slog.String("err", err.Error()),
			)
			continue
		}

		return err
	}
}

// attempt — одна попытка. Возвращает тело 2xx-ответа и токен, с которым ушёл запрос.
func (c *Client) attempt(ctx context.Context, p *prepared, bearer string) ([]byte, string, error) {
	var body io.Reader
	if p.body != nil {
		body = bytes.NewReader(p.body)
	}

	hreq, err := http.NewRequestWithContext(ctx, p.method, p.url, body)
	if err != nil {
		return nil, "", &apierrors.RequestSetupError{Err: err}
	}

	for k, vs := range p.header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}

	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("Content-Type", p.contentType)

	var sent string
	if p.kind == kindAPI {
		sent = bearer
		if sent == "" {
			creds, err := c.store.Get(ctx)
			if err != nil {
				return nil, "", &apierrors.RequestSetupError{Err: fmt.Errorf("read session: %w", err)}
			}
			sent = creds.Access
		}

		if sent != "" {
			hreq.Header.Set("Authorization", "Bearer "+sent)
		}
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		c.metrics.Request(p.method, 0)
		return nil, sent, apierrors.FromTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.metrics.Request(p.method, 0)
		return nil, sent, apierrors.FromTransport(err)
	}

	c.metrics.Request(p.method, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, sent, apierrors.FromResponse(resp.StatusCode, data)
	}

	return data, sent, nil
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &apierrors.APIError{Status: http.StatusOK, Data: body, Detail: "malformed response body: " + err.Error()}
	}

	return nil
}

// endSession очищает хранилище и сообщает о необходимости войти заново.
func (c *Client) endSession(ctx context.Context, cause error) {
	l := c.logger(ctx)

	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		l.Error("session_clear_failed", slog.String("err", err.Error()))
	}

	l.Warn("session_ended", slog.String("reason", cause.Error()))

	if c.onEnded != nil {
		c.onEnded(ctx)
	}
}

func (c *Client) logger(ctx context.Context) *slog.Logger {
	return logctx.Or(ctx, c.log)
}

// CloseIdleConnections освобождает простаивающие соединения транспорта.
func (c *Client) CloseIdleConnections() { c.http.CloseIdleConnections() }
