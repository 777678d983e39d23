package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.temporal.io/sdk/worker"

	"github.com/Apurer/go-gin-commerce/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-commerce/internal/platform/observability"
	orderactivities "github.com/Apurer/go-gin-commerce/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-gin-commerce/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	const serviceName = "commerce-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	components, err := api.Build(ctx, cfg, instruments)
	if err != nil {
		logger.Error("failed to assemble checkout", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer components.Close()
	if err := components.Recorder.Start(ctx); err != nil {
		logger.Error("failed to start payment recorder", slog.String("error", err.Error()))
		return
	}

	temporalClient, err := api.ConnectTemporal(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		return
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrderCreationTaskQueue, worker.Options{})
	orderworkflows.Register(w, orderactivities.NewActivities(components.Steps))

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderCreationTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
