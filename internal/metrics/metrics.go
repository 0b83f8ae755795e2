package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	unmatchedRoute = "unmatched"
)

// Recorder owns a private registry so tests and multiple servers never collide.
type Recorder struct {
	registry        *prometheus.Registry
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
}

// NewRecorder registers the scoreboard collectors plus the Go and process collectors.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scoreboard_commands_total",
			Help: "Leaderboard commands by operation and outcome",
		}, []string{"operation", "outcome"}),
		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scoreboard_command_duration_seconds",
			Help:    "Duration of leaderboard commands",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scoreboard_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
	}
}

// ObserveCommand implements leaderboard.CommandObserver.
func (r *Recorder) ObserveCommand(operation string, err error, elapsed time.Duration) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}
	r.commandsTotal.WithLabelValues(operation, outcome).Inc()
	r.commandDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Middleware counts requests by matched route template.
func (r *Recorder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		r.requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
