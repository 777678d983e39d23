package logsender

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/domain"
)

func TestSender_LogsMessage(t *testing.T) {
	var buf bytes.Buffer
	sender := New(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sender.Send(context.Background(), domain.Email{From: "f@x", To: "t@x", Subject: "hi", HTML: "<p>x</p>"}))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "t@x", entry["email.to"])
	require.Equal(t, "hi", entry["email.subject"])
	require.NotEmpty(t, entry["email.message_id"])
}

func TestSender_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, New(nil).Send(ctx, domain.Email{}), context.Canceled)
}
