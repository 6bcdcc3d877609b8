package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hlmartins/invoice-agent-be/internal/categorization"
	"github.com/hlmartins/invoice-agent-be/internal/config"
	"github.com/hlmartins/invoice-agent-be/internal/eventbus"
	"github.com/hlmartins/invoice-agent-be/internal/handler"
	"github.com/hlmartins/invoice-agent-be/internal/provider"
	"github.com/hlmartins/invoice-agent-be/internal/server"
	"github.com/hlmartins/invoice-agent-be/internal/service"
	"github.com/hlmartins/invoice-agent-be/internal/storage"
	"github.com/hlmartins/invoice-agent-be/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()

	ctx := context.Background()
	log.Info(ctx, "Starting application")

	repo := storage.NewMemoryStore()
	log.Info(ctx, "Repository initialized")

	eventBusCfg := &eventbus.Config{
		ChannelBuffer: cfg.EventBus.ChannelBufferSize,
		MaxRetries:    cfg.Worker.MaxRetries,
	}
	bus := eventbus.New(log, eventBusCfg)
	log.Info(ctx, "Event bus initialized")

	categorizationConsumer := eventbus.NewCategorizationConsumer(
		repo,
		categorization.NewCategorizer(),
		log,
		cfg.Worker.PoolSize,
	)
	log.Info(ctx, "Categorization consumer initialized",
		"worker_count", cfg.Worker.PoolSize,
	)

	err := bus.Subscribe(eventbus.EventTypeCategorization, categorizationConsumer)
	if err != nil {
		log.Fatal(ctx, "Failed to subscribe consumer",
			"error", err,
		)
	}

	err = bus.Start(ctx)
	if err != nil {
		log.Fatal(ctx, "Failed to start event bus",
			"error", err,
		)
	}

	aiProvider, err := provider.New(cfg.Provider)
	if err != nil {
		log.Fatal(ctx, "Failed to initialize AI provider",
			"provider", cfg.Provider.Name,
			"error", err,
		)
	}
	log.Info(ctx, "AI provider initialized",
		"provider", aiProvider.Name(),
	)

	pdfProcessor := service.NewPDFProcessor(log)
	invoiceService := service.NewInvoiceService(repo, aiProvider, pdfProcessor, bus, log)
	log.Info(ctx, "Services initialized")

	invoiceHandler := handler.NewInvoiceHandler(invoiceService, log, cfg.Upload.MaxFileSize)
	healthHandler := handler.NewHealthHandler(cfg)
	log.Info(ctx, "Handlers initialized")

	srv := server.New(cfg, log, invoiceHandler, healthHandler)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal(ctx, "Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	log.Info(ctx, "Application started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	// Graceful shutdown in order:
	// 1. Stop accepting new HTTP requests
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "HTTP server shutdown error",
			"error", err,
		)
	}

	// 2. Stop event bus and wait for workers to finish
	if err := bus.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "Event bus shutdown error",
			"error", err,
		)
	}

	log.Info(ctx, "Application stopped gracefully")
}
