// Package metrics は登録・ログイン等の結果を Prometheus のカウンターとして公開します。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 結果ラベル
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics はアプリケーション固有のメトリクスです。nil のままでも呼び出せます。
type Metrics struct {
	registry       *prometheus.Registry
	Registrations  *prometheus.CounterVec
	Logins         *prometheus.CounterVec
	Logouts        prometheus.Counter
	GuardRedirects prometheus.Counter
}

// New は専用レジストリを作成してメトリクスを登録します。
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userauth_registrations_total",
				Help: "Total number of registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userauth_logins_total",
				Help: "Total number of login attempts by outcome and reason",
			},
			[]string{"outcome", "reason"},
		),
		Logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userauth_logouts_total",
			Help: "Total number of logouts",
		}),
		GuardRedirects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userauth_guard_redirects_total",
			Help: "Total number of unauthenticated requests redirected to login",
		}),
	}

	registry.MustRegister(m.Registrations, m.Logins, m.Logouts, m.GuardRedirects)
	return m
}

// Handler は /metrics 用の HTTP ハンドラーを返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

// ObserveLogin はログイン結果を記録します。reason は拒否理由（成功時は空）です。
func (m *Metrics) ObserveLogin(outcome, reason string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) ObserveLogout() {
	if m == nil {
		return
	}
	m.Logouts.Inc()
}

func (m *Metrics) ObserveGuardRedirect() {
	if m == nil {
		return
	}
	m.GuardRedirects.Inc()
}
