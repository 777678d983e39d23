package api

import (
	"context"
	"log/slog"
	"time"

	checkoutports "github.com/Apurer/go-gin-commerce/internal/domains/checkout/ports"
)

// RunReconcileLoop repairs stale orders every interval until ctx ends.
func RunReconcileLoop(ctx context.Context, checkout checkoutports.Service, interval, olderThan time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("reconciler started", slog.Duration("interval", interval), slog.Duration("olderThan", olderThan))
	for {
		select {
		case <-ctx.Done():
			logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			ReconcileOnce(ctx, checkout, olderThan, logger)
		}
	}
}

// ReconcileOnce runs a single pass and logs its report.
func ReconcileOnce(ctx context.Context, checkout checkoutports.Service, olderThan time.Duration, logger *slog.Logger) {
	report, err := checkout.Reconcile(ctx, olderThan)
	if err != nil {
		logger.Error("reconcile pass failed", slog.String("error", err.Error()))
		return
	}
	if report.Checked == 0 {
		return
	}
	logger.Info("reconcile pass finished",
		slog.Int("checked", report.Checked),
		slog.Int("repaired", len(report.Repaired)),
		slog.Int("failed", report.Failed))
}
