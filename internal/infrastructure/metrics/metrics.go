package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BusSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "retrochat_bus_subscribers",
		Help: "Current number of active room subscriptions",
	})
	BusEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retrochat_bus_events_total",
		Help: "Total number of events published to the room bus",
	}, []string{"type"})
	BusDroppedSubscribers = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retrochat_bus_dropped_subscribers_total",
		Help: "Subscriptions cut loose because they stopped draining",
	})
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retrochat_messages_total",
		Help: "Total number of messages appended to room logs",
	}, []string{"system"})
	RoomsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retrochat_rooms_created_total",
		Help: "Total number of rooms created",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		BusSubscribers,
		BusEventsTotal,
		BusDroppedSubscribers,
		MessagesTotal,
		RoomsCreatedTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// Handler exposes the default registry for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps WebSocket upgrades working behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Middleware records request counts and latency per method/path/status.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		labels := prometheus.Labels{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": strconv.Itoa(rec.status),
		}
		HTTPRequestsTotal.With(labels).Inc()
		HTTPRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}
