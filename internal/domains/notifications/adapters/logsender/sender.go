// Package logsender simulates delivery by logging the rendered message.
package logsender

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/ports"
)

var _ ports.Sender = (*Sender)(nil)

type Sender struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, email domain.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "simulated email sent",
		slog.String("email.message_id", uuid.NewString()),
		slog.String("email.from", email.From),
		slog.String("email.to", email.To),
		slog.String("email.subject", email.Subject),
		slog.String("email.html", email.HTML),
	)
	return nil
}
