// metrics — счётчики Prometheus клиента портала. Все методы безопасны для nil *Metrics.
package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "portal"

type Metrics struct {
	requests  *prometheus.CounterVec
	retries   *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	decisions *prometheus.CounterVec
}

// New создаёт и регистрирует счётчики. reg == nil — prometheus.DefaultRegisterer.
// Повторная регистрация в том же реестре переиспользует уже зарегистрированные счётчики.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Attempts sent to the portal backend by method and status.",
		}, []string{"method", "status"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_retries_total",
			Help:      "Requests replayed by the client by reason.",
		}, []string{"reason"}), // reason: transient|refresh
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refresh_total",
			Help:      "Access token refresh calls by result.",
		}, []string{"result"}), // result: ok|failed
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Session gate admission decisions by state.",
		}, []string{"state"}),
	}

	var err error
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.retries, err = register(reg, m.retries); err != nil {
		return nil, err
	}
	if m.refreshes, err = register(reg, m.refreshes); err != nil {
		return nil, err
	}
	if m.decisions, err = register(reg, m.decisions); err != nil {
		return nil, err
	}

	return m, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}

		return nil, err
	}

	return c, nil
}

// Request учитывает одну попытку. status == 0 — ответа не было.
func (m *Metrics) Request(method string, status int) {
	if m == nil {
		return
	}

	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}

	m.requests.WithLabelValues(method, label).Inc()
}

func (m *Metrics) Retry(reason string) {
	if m == nil {
		return
	}

	m.retries.WithLabelValues(reason).Inc()
}

func (m *Metrics) Refresh(ok bool) {
	if m == nil {
		return
	}

	result := "ok"
	if !ok {
		result = "failed"
	}

	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) Decision(state string) {
	if m == nil {
		return
	}

	m.decisions.WithLabelValues(state).Inc()
}
