package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cad-bridge/internal/cad/bridge"
	"cad-bridge/internal/cad/dispatch"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/features"
	"cad-bridge/internal/cad/handlers"
	"cad-bridge/internal/cad/journal"
	"cad-bridge/internal/cad/parts"
	"cad-bridge/internal/cad/script"
	"cad-bridge/internal/cad/service"
	"cad-bridge/internal/cad/sketch"
	"cad-bridge/internal/cad/view"
	"cad-bridge/internal/common/config"
	"cad-bridge/internal/common/logging"
	"cad-bridge/internal/common/middleware"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ============================================================
// CAD Bridge
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.Environment)

	// ============================================================
	// Host Model
	// ============================================================

	cadApp := document.NewApp()
	if cfg.FastenersEnabled {
		cadApp.EnableFasteners()
	}
	d := dispatch.New(cadApp, logger)
	f := features.New(d, logger)

	library := parts.NewLibrary(cfg.PartsDir, logger)
	if err := library.EnsureDir(); err != nil {
		log.Fatalf("Failed to prepare parts library: %v", err)
	}

	// ============================================================
	// Journal
	// ============================================================

	var j *journal.Journal
	if cfg.JournalPath != "" {
		db, err := journal.OpenSQLite(cfg.JournalPath)
		if err != nil {
			log.Fatalf("Failed to open journal: %v", err)
		}
		j = journal.New(db)
		if err := j.Init(context.Background()); err != nil {
			log.Fatalf("Failed to init journal: %v", err)
		}
		defer j.Close()
	}

	// ============================================================
	// Bridge Pump
	// ============================================================

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	b := bridge.New(bridge.Config{
		Interval:  cfg.PumpInterval(),
		QueueSize: cfg.QueueSize,
	}, logger, bridge.NewMetrics(reg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		if err := b.Run(ctx); err != nil {
			logger.Error("bridge.run_failed", "error", err.Error())
		}
	}()

	svc := service.New(service.Deps{
		Bridge:   b,
		App:      cadApp,
		Dispatch: d,
		Features: f,
		Sketches: sketch.NewBuilder(logger),
		Runner:   script.NewRunner(cadApp, d, f, logger),
		Library:  library,
		Renderer: view.NewRenderer(view.Options{}),
		Journal:  j,
		Logger:   logger,
	})

	// ============================================================
	// HTTP Server
	// ============================================================

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "CAD Bridge",
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.CORSOrigin))

	handlers.Register(app, handlers.NewRPC(svc, logger), handlers.NewHealth(b), reg)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting CAD Bridge on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Pump interval %s, queue %d, parts %s", cfg.PumpInterval(), cfg.QueueSize, library.Root())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Printf("Server stopped: %v", err)
		}
		stop()
	case <-ctx.Done():
		log.Printf("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	<-pumpDone
}
