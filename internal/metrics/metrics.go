package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// Business metrics
	casesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cases_created_total",
			Help: "Total number of cases created",
		},
		[]string{"visa_type"},
	)

	caseStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "case_status_changes_total",
			Help: "Total number of case status changes",
		},
		[]string{"from", "to"},
	)

	documentsUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_uploaded_total",
			Help: "Total number of documents uploaded",
		},
		[]string{"document_type"},
	)

	documentReplacements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "document_replacements_total",
			Help: "Total number of documents removed because a newer upload of the same type arrived",
		},
	)

	automationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_failures_total",
			Help: "Total number of automation trigger failures",
		},
		[]string{"event"},
	)
)

func CaseCreated(visaType string) { casesCreated.WithLabelValues(visaType).Inc() }

func StatusChanged(from, to string) { caseStatusChanges.WithLabelValues(from, to).Inc() }

func DocumentUploaded(docType string) { documentsUploaded.WithLabelValues(docType).Inc() }

func DocumentsReplaced(n int) { documentReplacements.Add(float64(n)) }

func AutomationFailed(event string) { automationFailures.WithLabelValues(event).Inc() }

// Middleware records request counts and latency by matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		httpRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
