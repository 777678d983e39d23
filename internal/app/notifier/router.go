// Package notifier is the standalone email service: the two email routes on a
// chi router, backed by the notifications context.
package notifier

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	emailclient "github.com/Apurer/go-gin-commerce/internal/clients/http/emails"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/application"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/ports"
	apierrors "github.com/Apurer/go-gin-commerce/internal/shared/errors"
)

type handler struct {
	emails   ports.Service
	logger   *slog.Logger
	problems *apierrors.Responder
}

// NewRouter serves the email routes, /health and, when metrics is non-nil, /metrics.
func NewRouter(emails ports.Service, logger *slog.Logger, metrics http.Handler) http.Handler {
	h := &handler{emails: emails, logger: logger, problems: apierrors.NewResponder("").WithLogger(logger)}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.Post(emailclient.PathPaymentConfirmation, h.paymentConfirmation)
	r.Post(emailclient.PathLowStock, h.lowStock)
	return otelhttp.NewHandler(r, "notifier")
}

func (h *handler) paymentConfirmation(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentConfirmation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.problems.Write(w, r, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	h.respond(w, r, h.emails.SendPaymentConfirmation(r.Context(), req))
}

func (h *handler) lowStock(w http.ResponseWriter, r *http.Request) {
	var req domain.LowStock
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.problems.Write(w, r, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	h.respond(w, r, h.emails.SendLowStock(r.Context(), req))
}

func (h *handler) respond(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
	case errors.Is(err, application.ErrInvalidInput):
		h.problems.Write(w, r, apierrors.ErrValidation.WithDetail(err.Error()).WithCode(apierrors.CodeValidation))
	default:
		h.logger.LogAttrs(r.Context(), slog.LevelError, "email delivery failed",
			slog.String("path", r.URL.Path), slog.String("request.id", middleware.GetReqID(r.Context())), slog.String("error", err.Error()))
		h.problems.Write(w, r, apierrors.ErrInternal.WithDetail("email delivery failed"))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
