package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHistogram_Observe(t *testing.T) {
	h := newHistogram([]float64{1, 5, 10})

	h.Observe(0.5)
	h.Observe(3)
	h.Observe(7)
	h.Observe(100)

	if got := h.Count(); got != 4 {
		t.Errorf("expected count 4, got %d", got)
	}
	if got := h.Sum(); got != 110.5 {
		t.Errorf("expected sum 110.5, got %g", got)
	}

	cum := h.cumulativeBuckets()
	// le=1: 1 observation, le=5: 2, le=10: 3; the 100 lands in +Inf only.
	want := []int64{1, 2, 3}
	for i, w := range want {
		if cum[i] != w {
			t.Errorf("bucket %d: expected %d, got %d", i, w, cum[i])
		}
	}
}

func TestHistogram_ConcurrentObserve(t *testing.T) {
	h := newHistogram(defaultDurationBuckets)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Observe(0.05)
			}
		}()
	}
	wg.Wait()

	if got := h.Count(); got != 5000 {
		t.Errorf("expected count 5000, got %d", got)
	}
}

func TestRuleOperationCounter(t *testing.T) {
	tp := NewTelemetryProvider(TelemetryConfig{})

	tp.RuleOperationCounter("rule", "create")
	tp.RuleOperationCounter("rule", "create")
	tp.RuleOperationCounter("rule_set", "activate")

	if got := tp.GetCounter("rules.operation.count", "rule", "create"); got != 2 {
		t.Errorf("expected counter 2, got %d", got)
	}
	if got := tp.GetCounter("rules.operation.count", "rule_set", "activate"); got != 1 {
		t.Errorf("expected counter 1, got %d", got)
	}
	if got := tp.GetCounter("rules.operation.count", "rule", "delete"); got != 0 {
		t.Errorf("expected counter 0 for unseen key, got %d", got)
	}
}

func TestEvaluationCounter(t *testing.T) {
	tp := NewTelemetryProvider(TelemetryConfig{})

	tp.EvaluationCounter("blocked")
	tp.EvaluationCounter("available")
	tp.EvaluationCounter("available")

	if got := tp.GetCounter("availability.evaluation.count", "available", ""); got != 2 {
		t.Errorf("expected 2 available evaluations, got %d", got)
	}
	if got := tp.GetCounter("availability.evaluation.count", "blocked", ""); got != 1 {
		t.Errorf("expected 1 blocked evaluation, got %d", got)
	}
}

func TestHealthMetrics_Gauges(t *testing.T) {
	tp := NewTelemetryProvider(TelemetryConfig{})
	hm := tp.HealthMetrics()

	hm.SetDBPoolActive(7)
	hm.SetDBPoolIdle(3)
	hm.SetRuleSetsTotal(42)

	if got := tp.GetGauge("db.pool.active_connections"); got != 7 {
		t.Errorf("expected active=7, got %d", got)
	}
	if got := tp.GetGauge("db.pool.idle_connections"); got != 3 {
		t.Errorf("expected idle=3, got %d", got)
	}
	if got := tp.GetGauge("rulesets.total"); got != 42 {
		t.Errorf("expected rulesets=42, got %d", got)
	}
}

func TestTracingMiddleware_RecordsSpan(t *testing.T) {
	tp := NewTelemetryProvider(TelemetryConfig{ServiceName: "test"})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/rule-sets/active", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/rule-sets/active")
	c.Set("practice_id", "praxis-nord")

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := tp.TracingMiddleware()
	if err := mw(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := tp.GetRecordedSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name != "HTTP GET /api/rule-sets/active" {
		t.Errorf("unexpected span name %q", s.Name)
	}
	if s.StatusCode != SpanStatusOK {
		t.Errorf("expected OK status, got %v", s.StatusCode)
	}
	if s.Attributes["practice.id"] != "praxis-nord" {
		t.Errorf("expected practice.id attribute, got %q", s.Attributes["practice.id"])
	}
	if len(s.TraceID) != 32 || len(s.SpanID) != 16 {
		t.Errorf("unexpected id lengths: trace=%d span=%d", len(s.TraceID), len(s.SpanID))
	}
}

func TestTracingMiddleware_ErrorStatus(t *testing.T) {
	tp := NewTelemetryProvider(TelemetryConfig{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/actions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusInternalServerError, "boom")
	}

	mw := tp.TracingMiddleware()
	if err := mw(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := tp.GetRecordedSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].StatusCode != SpanStatusError {
		t.Errorf("expected error status for 500 response")
	}
}

func TestTracingMiddleware_Disabled(t *testing.T) {
	tp := NewTelemetryProvider(TelemetryConfig{TracingEnabled: BoolPtr(false)})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := tp.TracingMiddleware()
	if err := mw(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(tp.GetRecordedSpans()); got != 0 {
		t.Errorf("expected no spans when tracing disabled, got %d", got)
	}
}

func TestMetricsMiddleware_RecordsDuration(t *testing.T) {
	tp := NewTelemetryProvider(TelemetryConfig{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/rules/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/rules/:id")

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := tp.MetricsMiddleware()
	if err := mw(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := tp.GetHistogram("http.server.request.duration")
	if h == nil {
		t.Fatal("expected duration histogram to exist")
	}
	if h.Count() != 1 {
		t.Errorf("expected 1 observation, got %d", h.Count())
	}

	key := LabelsKey("GET", "/api/rules/:id", "200")
	labeled := tp.GetLabeledHistogram("http.server.request.duration", key)
	if labeled == nil {
		t.Fatalf("expected labeled histogram for key %q", key)
	}
	if labeled.Count() != 1 {
		t.Errorf("expected 1 labeled observation, got %d", labeled.Count())
	}

	if got := tp.GetGauge("http.server.active_requests"); got != 0 {
		t.Errorf("expected active requests back to 0, got %d", got)
	}
}

func TestPrometheusHandler_Output(t *testing.T) {
	tp := NewTelemetryProvider(TelemetryConfig{})
	tp.RuleOperationCounter("rule", "create")
	tp.EvaluationCounter("blocked")
	tp.HealthMetrics().SetRuleSetsTotal(3)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := tp.PrometheusHandler()(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := rec.Body.String()
	checks := []string{
		"# TYPE http_server_request_duration_seconds histogram",
		"# TYPE rules_operation_count counter",
		`rules_operation_count{subject="rule",operation="create"} 1`,
		`availability_evaluation_count{outcome="blocked"} 1`,
		"rulesets_total 3",
	}
	for _, want := range checks {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestResource_Attributes(t *testing.T) {
	tp := NewTelemetryProvider(TelemetryConfig{
		ServiceName:    "terminplan-server",
		ServiceVersion: "1.2.3",
		Environment:    "production",
	})

	res := tp.Resource()
	if res["service.name"] != "terminplan-server" {
		t.Errorf("unexpected service.name %q", res["service.name"])
	}
	if res["service.version"] != "1.2.3" {
		t.Errorf("unexpected service.version %q", res["service.version"])
	}
	if res["deployment.environment"] != "production" {
		t.Errorf("unexpected environment %q", res["deployment.environment"])
	}
}
