// Package metrics defines the Prometheus metrics of the LMS portal.
//
// Metrics are registered on an explicit registry so that every App instance
// owns its collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lms"

// Collector records HTTP and domain metrics
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	registrations  prometheus.Counter
	logins         *prometheus.CounterVec
	enrollments    *prometheus.CounterVec
	coursesCreated prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		// Labels:
		//   - method: HTTP method
		//   - route: chi route pattern (e.g. "/api/courses/{id}")
		//   - status: response status code
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Total number of registered users.",
		}),
		// Label:
		//   - result: "success" or "failure"
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total number of login attempts, by result.",
		}, []string{"result"}),
		// Label:
		//   - result: "created" or "existing"
		enrollments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrollments_total",
			Help:      "Total number of enroll actions, by result.",
		}, []string{"result"}),
		coursesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "courses_created_total",
			Help:      "Total number of courses created from the admin panel.",
		}),
	}
}

// RecordHTTPRequest records a served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRegistration records a new user account
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordLogin records a login attempt
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordEnrollment records an enroll action
func (c *Collector) RecordEnrollment(created bool) {
	result := "existing"
	if created {
		result = "created"
	}
	c.enrollments.WithLabelValues(result).Inc()
}

// RecordCourseCreated records a course created through the catalog
func (c *Collector) RecordCourseCreated() {
	c.coursesCreated.Inc()
}

// Handler returns the HTTP handler for Prometheus scraping
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
