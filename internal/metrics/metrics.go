package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etepro_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etepro_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// AttemptsSubmitted counts completed simulado attempts by what ended them.
	AttemptsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etepro_simulado_attempts_total",
			Help: "Simulado attempts submitted",
		},
		[]string{"trigger", "persisted"},
	)

	AttemptScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "etepro_simulado_score_percentage",
			Help:    "Percentage of correct answers per attempt",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "etepro_simulado_active_sessions",
			Help: "Simulado sessions currently attached to a websocket",
		},
	)

	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etepro_generation_duration_seconds",
			Help:    "Latency of text-generation calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	// TutorRequests counts tutor chat requests by result: ok, unauthenticated,
	// invalid, rate_limited, failed.
	TutorRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etepro_tutor_requests_total",
			Help: "Tutor chat requests",
		},
		[]string{"result"},
	)
)

var initOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			AttemptsSubmitted,
			AttemptScore,
			ActiveSessions,
			GenerationDuration,
			TutorRequests,
		)
	})
}

// ObserveGeneration records one generation call.
func ObserveGeneration(start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	GenerationDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// ObserveAttempt records one submitted attempt.
func ObserveAttempt(trigger string, persisted bool, percentage int) {
	AttemptsSubmitted.WithLabelValues(trigger, strconv.FormatBool(persisted)).Inc()
	AttemptScore.Observe(float64(percentage))
}

func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
