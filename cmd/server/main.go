package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"queueWatch/internal/config"
	handler "queueWatch/internal/modules/queue/application/handler"
	usecase "queueWatch/internal/modules/queue/application/usecase"
	"queueWatch/internal/modules/queue/domain"
	"queueWatch/internal/modules/queue/infrastructure"
	transport "queueWatch/internal/modules/queue/interface"
	"queueWatch/internal/platform/broker"
	"queueWatch/internal/shared/auth"
	"queueWatch/internal/shared/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	_, closeLog, err := logging.Setup(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: true,
		Directory: cfg.Logging.Directory,
		Name:      "server",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := infrastructure.OpenSnapshotStore(ctx, infrastructure.StoreOptions{
		Driver:      cfg.Storage.Driver,
		BadgerDir:   cfg.Storage.BadgerDir,
		PostgresDSN: cfg.Storage.DatabaseURL,
	})
	if err != nil {
		slog.Error("store open failed", slog.String("driver", cfg.Storage.Driver), slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("store opened", slog.String("driver", cfg.Storage.Driver))

	hub := infrastructure.NewHub()
	defer hub.Close()

	// Use cases
	ingestUC := usecase.NewIngestUseCase(store, hub)
	queryUC := usecase.NewQueryUseCase(store, cfg.Location, domain.DefaultChartPoints)

	if cfg.Remote.Secret == "" {
		slog.Warn("API_SECRET not set, write endpoints will reject every request")
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(log.Writer())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))

	transport.Routes{
		Ingest:    ingestUC,
		Query:     queryUC,
		Hub:       hub,
		Validator: auth.NewSecretValidator(cfg.Remote.Secret),
		Mapper:    transport.NewErrorMapper(),
		WSBuffer:  cfg.Server.WSBuffer,
	}.Register(e)

	var consumers *sync.WaitGroup
	if cfg.Kafka.Consume {
		registry := infrastructure.NewHandlerRegistry()
		registry.Register(handler.NewSnapshotStreamHandler(cfg.Kafka.Topic, ingestUC))
		slog.Info("kafka config resolved", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("group", cfg.Kafka.GroupID))
		consumers = broker.StartKafkaConsumers(ctx, registry, cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	}

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", slog.Any("error", err))
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", slog.Any("error", err))
	}
	cancel()
	if consumers != nil {
		consumers.Wait()
	}
}
