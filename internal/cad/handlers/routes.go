package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the gatherer in the Prometheus text format.
func Metrics(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
}

// Register mounts the health probes, the metrics endpoint and the RPC
// routes on app.
func Register(app *fiber.App, rpc *RPC, health *Health, g prometheus.Gatherer) {
	app.Get("/health/live", health.LivenessProbe)
	app.Get("/health/ready", health.ReadinessProbe)
	app.Get("/health/startup", health.StartupProbe)

	if g != nil {
		app.Get("/metrics", Metrics(g))
	}

	app.Get("/rpc", rpc.Methods)
	app.Post("/rpc/:method", rpc.Call)
}
