package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestHandler_ExposesBusinessCounters(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", Handler())

	CaseCreated("work")
	StatusChanged("draft", "submitted")
	DocumentUploaded("passport")
	DocumentsReplaced(1)
	AutomationFailed("status_change")

	if _, err := app.Test(httptest.NewRequest("GET", "/ping", nil)); err != nil {
		t.Fatalf("ping: %v", err)
	}
	res, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	for _, want := range []string{
		`cases_created_total{visa_type="work"}`,
		`case_status_changes_total{from="draft",to="submitted"}`,
		`documents_uploaded_total{document_type="passport"}`,
		"document_replacements_total",
		`automation_failures_total{event="status_change"}`,
		`http_requests_total{method="GET",route="/ping",status="200"}`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("missing %s in scrape output", want)
		}
	}
}
