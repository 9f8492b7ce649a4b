package observability

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

// RegisterMetrics attaches the Prometheus middleware and /metrics endpoint.
func RegisterMetrics(app *fiber.App, serviceName string) {
	prometheus := fiberprometheus.New(serviceName)
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
}
