// metrics - счётчики и гистограммы Prometheus для auth-сервиса.
// Все методы безопасны для nil-получателя: сервис работает и без метрик.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auth"

// Metrics собирает метрики auth-операций, шлюза аутентификации и HTTP.
type Metrics struct {
	AuthEvents      *prometheus.CounterVec
	GateDecisions   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	HTTPTimeouts    *prometheus.CounterVec
}

// New создаёт метрики и регистрирует их в reg (nil - prometheus.DefaultRegisterer).
// Повторная регистрация переиспользует уже зарегистрированные коллекторы.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	authEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Authentication operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	gateDecisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Request authentication gate results",
		},
		[]string{"result"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	httpTimeouts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "timeouts_total",
			Help:      "HTTP requests that hit the server-side deadline",
		},
		[]string{"method"},
	)

	return &Metrics{
		AuthEvents:      register(reg, authEvents),
		GateDecisions:   register(reg, gateDecisions),
		RequestDuration: register(reg, requestDuration),
		HTTPTimeouts:    register(reg, httpTimeouts),
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}

	return c
}

// AuthEvent учитывает исход операции (login, refresh, logout, logout_all, register).
func (m *Metrics) AuthEvent(operation, outcome string) {
	if m == nil {
		return
	}

	m.AuthEvents.WithLabelValues(operation, outcome).Inc()
}

// Gate учитывает результат шлюза: public, anonymous, authenticated или вид ошибки токена.
func (m *Metrics) Gate(result string) {
	if m == nil {
		return
	}

	m.GateDecisions.WithLabelValues(result).Inc()
}

// ObserveHTTP записывает длительность обработки запроса.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}

	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// HTTPTimeout учитывает запрос, упёршийся в серверный deadline.
func (m *Metrics) HTTPTimeout(method string) {
	if m == nil {
		return
	}

	m.HTTPTimeouts.WithLabelValues(method).Inc()
}
