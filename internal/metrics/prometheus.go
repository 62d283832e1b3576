package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type prometheusObserver struct {
	refreshCounter *prometheus.CounterVec
	guardCounter   *prometheus.CounterVec
	expiryCounter  *prometheus.CounterVec
	onlineGauge    prometheus.Gauge
	pushCounter    prometheus.Counter
}

var (
	refreshCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adminconsole_token_refresh_total",
		Help: "Token refresh calls by outcome",
	}, []string{"outcome"})
	guardCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adminconsole_guard_decisions_total",
		Help: "Session guard decisions by resulting state",
	}, []string{"state"})
	expiryCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adminconsole_session_expired_total",
		Help: "Forced session expiries by source",
	}, []string{"source"})
	onlineGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "adminconsole_event_subscribers",
		Help: "Number of connected session event streams",
	})
	pushCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adminconsole_event_push_total",
		Help: "Total number of session events pushed",
	})
)

func NewPrometheusObserver() Observer {
	return &prometheusObserver{
		refreshCounter: refreshCounter,
		guardCounter:   guardCounter,
		expiryCounter:  expiryCounter,
		onlineGauge:    onlineGauge,
		pushCounter:    pushCounter,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (p *prometheusObserver) RecordRefresh(outcome string) {
	p.refreshCounter.WithLabelValues(outcome).Inc()
}

func (p *prometheusObserver) RecordGuardDecision(state string) {
	p.guardCounter.WithLabelValues(state).Inc()
}

func (p *prometheusObserver) RecordExpiry(source string) {
	p.expiryCounter.WithLabelValues(source).Inc()
}

func (p *prometheusObserver) IncOnline() {
	p.onlineGauge.Inc()
}

func (p *prometheusObserver) DecOnline() {
	p.onlineGauge.Dec()
}

func (p *prometheusObserver) RecordPush() {
	p.pushCounter.Inc()
}
