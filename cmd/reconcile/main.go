// Command reconcile repairs orders whose creation saga stopped halfway:
// PENDING orders without payment intents are cancelled and their stock returned.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/Apurer/go-gin-commerce/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-commerce/internal/platform/observability"
)

func main() {
	once := flag.Bool("once", false, "run a single pass and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, "commerce-reconcile")
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()
	logger := instruments.Logger

	components, err := api.Build(ctx, cfg, instruments)
	if err != nil {
		logger.Error("failed to assemble checkout", slog.String("error", err.Error()))
		return
	}
	defer components.Close()

	if *once {
		api.ReconcileOnce(ctx, components.Checkout, cfg.ReconcileAge, logger)
		return
	}
	api.RunReconcileLoop(ctx, components.Checkout, cfg.ReconcileInterval, cfg.ReconcileAge, logger)
}
