package observability

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	userdomain "github.com/Apurer/go-gin-commerce/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-commerce/internal/domains/users/ports"
)

type stubUsers struct {
	userports.Service
	err error
}

func (s stubUsers) CreateUser(_ context.Context, name, email string) (*userdomain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &userdomain.User{ID: 7, Name: name, Email: email}, nil
}

func (s stubUsers) GetUser(_ context.Context, id int64) (*userdomain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &userdomain.User{ID: id}, nil
}

func callCounts(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	counts := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "users.service.calls" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				op, _ := dp.Attributes.Value("op")
				outcome, _ := dp.Attributes.Value("outcome")
				counts[op.AsString()+"/"+outcome.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestService_CountsOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	ctx := context.Background()

	ok := New(stubUsers{}, WithMeter(meter))
	user, err := ok.CreateUser(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(7), user.ID)

	missing := New(stubUsers{err: userports.ErrNotFound}, WithMeter(meter))
	_, err = missing.GetUser(ctx, 3)
	require.ErrorIs(t, err, userports.ErrNotFound)

	broken := New(stubUsers{err: fmt.Errorf("dial: %w", context.DeadlineExceeded)}, WithMeter(meter))
	_, err = broken.GetUser(ctx, 3)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Equal(t, map[string]int64{
		"CreateUser/ok":    1,
		"GetUser/rejected": 1,
		"GetUser/error":    1,
	}, callCounts(t, reader))
}

func TestOutcomeOf(t *testing.T) {
	require.Equal(t, "ok", outcomeOf(nil))
	require.Equal(t, "rejected", outcomeOf(fmt.Errorf("invalid user input: %w", userdomain.ErrInvalidEmail)))
	require.Equal(t, "rejected", outcomeOf(userports.ErrEmailTaken))
	require.Equal(t, "error", outcomeOf(context.Canceled))
}
