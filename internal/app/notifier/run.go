package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/adapters/logsender"
	notificationsobs "github.com/Apurer/go-gin-commerce/internal/domains/notifications/adapters/observability"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/application"
	platformobservability "github.com/Apurer/go-gin-commerce/internal/platform/observability"
)

const serviceName = "commerce-notifier"

// Run serves the email API until SIGINT or SIGTERM.
func Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	emails := notificationsobs.New(
		application.NewService(logsender.New(logger), envDefault("EMAIL_FROM", "noreply@commerce.local")),
		notificationsobs.WithLogger(logger),
		notificationsobs.WithTracer(instruments.Tracer("internal.notifications.application")),
		notificationsobs.WithMeter(instruments.Meter("internal.notifications.application")),
	)
	srv := &http.Server{
		Addr:              ":" + envDefault("PORT", "8085"),
		Handler:           NewRouter(emails, logger, instruments.MetricsHandler()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("notifier listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
