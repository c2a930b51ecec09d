// Package metrics exposes Prometheus counters for the API and worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what handlers and workers report to.
type Recorder interface {
	RecordTaskCreated()
	RecordTaskToggled(completed bool)
	RecordWorkLogUpserted()
	RecordSessionStarted()
	RecordSessionFinished(idle time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordStatsRefresh(duration time.Duration, err error)
}

// Collector implements Recorder with Prometheus collectors.
type Collector struct {
	tasksCreated    prometheus.Counter
	tasksToggled    *prometheus.CounterVec
	workLogs        prometheus.Counter
	sessionsStarted prometheus.Counter
	sessionIdle     prometheus.Histogram
	httpStatus      *prometheus.CounterVec
	statsRefresh    *prometheus.HistogramVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector registers the lockin metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lockin_tasks_created_total",
			Help: "Tasks created",
		}),
		tasksToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lockin_tasks_toggled_total",
			Help: "Task completion changes by resulting state",
		}, []string{"completed"}),
		workLogs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lockin_work_logs_upserted_total",
			Help: "Work log upserts",
		}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lockin_sessions_started_total",
			Help: "Lock-in sessions started",
		}),
		sessionIdle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lockin_session_idle_seconds",
			Help:    "Idle time reported when a lock-in session ends",
			Buckets: []float64{0, 30, 60, 300, 900, 1800, 3600},
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lockin_http_status_total",
			Help: "HTTP responses by status code",
		}, []string{"status_code"}),
		statsRefresh: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lockin_stats_refresh_seconds",
			Help:    "Stats snapshot refresh latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.tasksCreated,
		c.tasksToggled,
		c.workLogs,
		c.sessionsStarted,
		c.sessionIdle,
		c.httpStatus,
		c.statsRefresh,
	)

	return c
}

func (c *Collector) RecordTaskCreated() { c.tasksCreated.Inc() }

func (c *Collector) RecordTaskToggled(completed bool) {
	c.tasksToggled.WithLabelValues(strconv.FormatBool(completed)).Inc()
}

func (c *Collector) RecordWorkLogUpserted() { c.workLogs.Inc() }

func (c *Collector) RecordSessionStarted() { c.sessionsStarted.Inc() }

func (c *Collector) RecordSessionFinished(idle time.Duration) {
	c.sessionIdle.Observe(idle.Seconds())
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordStatsRefresh observes a refresh labelled ok or error.
func (c *Collector) RecordStatsRefresh(duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.statsRefresh.WithLabelValues(result).Observe(duration.Seconds())
}

// Nop discards everything.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) RecordTaskCreated() {}
func (Nop) RecordTaskToggled(bool) {}
func (Nop) RecordWorkLogUpserted() {}
func (Nop) RecordSessionStarted() {}
func (Nop) RecordSessionFinished(time.Duration) {}
func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordStatsRefresh(time.Duration, error) {}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
