package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromApp(t *testing.T) (*fiber.App, *PrometheusMiddleware, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	pm, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(pm.Handler())
	return app, pm, reg
}

func TestPrometheusMiddlewareCountsByRoutePattern(t *testing.T) {
	app, pm, _ := newPromApp(t)
	app.Get("/api/stories/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Delete("/api/stories/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for _, id := range []string{"a", "b"} {
		_, err := app.Test(httptest.NewRequest("GET", "/api/stories/"+id, nil))
		require.NoError(t, err)
	}
	_, err := app.Test(httptest.NewRequest("DELETE", "/api/stories/a", nil))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.requestCount.WithLabelValues("GET", "/api/stories/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requestCount.WithLabelValues("DELETE", "/api/stories/:id", "204")))
	assert.Equal(t, 2, testutil.CollectAndCount(pm.requestDuration))
}

func TestPrometheusMiddlewareLabelsSurviveLaterRequests(t *testing.T) {
	app, _, reg := newPromApp(t)
	app.Get("/api/stories/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Delete("/api/stories/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for _, req := range []*http.Request{
		httptest.NewRequest("GET", "/api/stories/a", nil),
		httptest.NewRequest("GET", "/api/stories/b", nil),
		httptest.NewRequest("DELETE", "/api/stories/a", nil),
	} {
		_, err := app.Test(req)
		require.NoError(t, err)
	}

	mfs, err := reg.Gather()
	require.NoError(t, err)

	var series []string
	for _, mf := range mfs {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			series = append(series, labels["method"]+" "+labels["path"]+" "+labels["status"])
		}
	}

	assert.ElementsMatch(t, []string{
		"GET /api/stories/:id 200",
		"DELETE /api/stories/:id 204",
	}, series)
}

func TestPrometheusMiddlewareStatus(t *testing.T) {
	app, pm, _ := newPromApp(t)
	app.Get("/returned", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTooManyRequests)
	})
	app.Get("/written", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	app.Test(httptest.NewRequest("GET", "/returned", nil))
	app.Test(httptest.NewRequest("GET", "/written", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requestCount.WithLabelValues("GET", "/returned", "429")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requestCount.WithLabelValues("GET", "/written", "404")))
}

func TestPrometheusMiddlewareSkipsMetricsRoute(t *testing.T) {
	app, _, reg := newPromApp(t)
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	app.Test(httptest.NewRequest("GET", "/metrics", nil))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "http_requests_total" {
			assert.Empty(t, mf.GetMetric())
		}
	}
}

func TestNewPrometheusMiddlewareDuplicate(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)
	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
