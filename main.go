package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/products-crud-api/internal/app/service"
	"github.com/mrops-br/products-crud-api/internal/domain"
	"github.com/mrops-br/products-crud-api/internal/infrastructure/config"
	"github.com/mrops-br/products-crud-api/internal/infrastructure/http"
	"github.com/mrops-br/products-crud-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-crud-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/products-crud-api/internal/infrastructure/repository/postgres"
	"github.com/mrops-br/products-crud-api/internal/infrastructure/telemetry"
)

func main() {
	cfg := config.LoadConfig()

	var telem *telemetry.Telemetry
	if cfg.OTLP.ExportEnabled {
		t, err := telemetry.NewTelemetry(&cfg.OTLP)
		if err != nil {
			log.Fatalf("Failed to initialize telemetry: %v", err)
		}
		telem = t
	} else {
		telem = telemetry.NewNoOpTelemetry(&cfg.OTLP)
	}

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	tracer := telem.TracerProvider.Tracer("products-crud-api")
	meter := telem.MeterProvider.Meter("products-crud-api")
	logger := telem.Logger

	logger.Info("Starting Products API")

	var (
		repo domain.ProductRepository
		uow  domain.UnitOfWork
	)
	if cfg.Database.DSN != "" {
		db, err := postgres.Open(cfg.Database.DSN)
		if err != nil {
			logger.Error("Failed to open database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		repo, uow = postgres.NewProductRepository(db, tracer, logger)
		logger.Info("Using postgres store")
	} else {
		store := memory.NewStore(tracer, logger)
		repo, uow = store, store
		logger.Info("Using in-memory store")
	}

	productService := service.NewProductService(repo, uow, tracer, meter, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	server := http.NewServer(&cfg.Server, productHandler, logger, telem)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", slog.String("error", err.Error()))
	}

	logger.Info("Server stopped")
}
