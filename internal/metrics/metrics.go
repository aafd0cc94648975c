package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"market-sim/internal/simulation"
)

const namespace = "market_sim"

// Metrics holds the simulator's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Histogram
	stepsTotal        *prometheus.CounterVec
	unmetMWTotal      prometheus.Counter
	lastClearingPrice *prometheus.GaugeVec
	storedResults     prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Simulation runs by outcome (ok, error).",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a complete simulation run.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		stepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Settled simulation steps by pricing regime.",
		}, []string{"regime"}),
		unmetMWTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unmet_demand_mw_total",
			Help:      "Demand left uncovered by controlled production, summed over steps.",
		}),
		lastClearingPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_price",
			Help:      "Most recent regulator quote by side (buy, sell).",
		}, []string{"side"}),
		storedResults: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_results",
			Help:      "Simulation results currently held by the API.",
		}),
	}

	m.reg.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.runsTotal,
		m.runDuration,
		m.stepsTotal,
		m.unmetMWTotal,
		m.lastClearingPrice,
		m.storedResults,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Middleware counts requests by matched route and status.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// OnStep implements simulation.Observer.
func (m *Metrics) OnStep(rec simulation.Record) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(string(rec.Regime)).Inc()
	if unmet := rec.Demand - rec.ControlledProduction; unmet > 0 {
		m.unmetMWTotal.Add(unmet)
	}
	m.lastClearingPrice.WithLabelValues("buy").Set(rec.BuyPrice)
	m.lastClearingPrice.WithLabelValues("sell").Set(rec.SellPrice)
}

func (m *Metrics) RunFinished(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) SetStoredResults(n int) {
	if m == nil {
		return
	}
	m.storedResults.Set(float64(n))
}
