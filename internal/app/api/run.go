package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	commerceserver "github.com/Apurer/go-gin-commerce/go"
	checkoutworkflows "github.com/Apurer/go-gin-commerce/internal/domains/checkout/adapters/workflows"
	checkoutports "github.com/Apurer/go-gin-commerce/internal/domains/checkout/ports"
	platformobservability "github.com/Apurer/go-gin-commerce/internal/platform/observability"
)

const serviceName = "commerce-api"

// Run boots the commerce HTTP API with observability, ledgers, and workflows wired.
func Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	components, err := Build(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer components.Close()

	if err := components.Recorder.Start(ctx); err != nil {
		return fmt.Errorf("start payment recorder: %w", err)
	}

	var workflows checkoutports.OrderWorkflows = checkoutworkflows.NewInlineOrderWorkflows(components.Checkout)
	if temporalClient, err := ConnectTemporal(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running order creation inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		workflows = checkoutworkflows.NewTemporalOrderWorkflows(temporalClient,
			checkoutworkflows.WithIdempotencyStore(components.Idempotency))
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	if cfg.ReconcileInline {
		go RunReconcileLoop(ctx, components.Checkout, cfg.ReconcileInterval, cfg.ReconcileAge, logger)
	}

	router := NewRouter(cfg, components, workflows, instruments)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("commerce API listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("commerce API server exited", slog.String("addr", srv.Addr), slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down commerce API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter mounts every route on a gin engine carrying CORS, tracing and /metrics.
func NewRouter(cfg Config, c *Components, workflows checkoutports.OrderWorkflows, instruments *platformobservability.Instruments) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(serviceName))
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", commerceserver.HeaderIdempotencyKey)
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	engine.Use(cors.New(corsCfg))
	engine.GET("/metrics", gin.WrapH(instruments.MetricsHandler()))

	return commerceserver.NewRouterWithGinEngine(engine, commerceserver.ApiHandleFunctions{
		HealthAPI:  commerceserver.NewHealthAPI(),
		UserAPI:    commerceserver.NewUserAPI(c.Users),
		ProductAPI: commerceserver.NewProductAPI(c.Inventory),
		OrderAPI:   commerceserver.NewOrderAPI(c.Orders, workflows),
		PaymentAPI: commerceserver.NewPaymentAPI(c.Payments, c.Checkout),
		EmailAPI:   commerceserver.NewEmailAPI(c.Emails),
	})
}
