package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "REDIS_URL", "USERS_URL", "REMOTE_TIMEOUT", "LOW_STOCK_THRESHOLD", "CORS_ORIGINS", "RECONCILE_INLINE"} {
		t.Setenv(key, "")
	}
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 5*time.Second, cfg.RemoteTimeout)
	require.Equal(t, int64(5), cfg.LowStockThreshold)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.True(t, cfg.ReconcileInline)
	require.False(t, cfg.Remote())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("USERS_URL", "http://users:8080")
	t.Setenv("REMOTE_TIMEOUT", "2")
	t.Setenv("RECONCILE_INTERVAL", "30s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RECONCILE_INLINE", "no")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.True(t, cfg.Remote())
	require.Equal(t, 2*time.Second, cfg.RemoteTimeout)
	require.Equal(t, 30*time.Second, cfg.ReconcileInterval)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.False(t, cfg.ReconcileInline)
}

func TestLoadConfig_RejectsNonPositive(t *testing.T) {
	cases := map[string]string{
		"LOW_STOCK_THRESHOLD":  "0",
		"TASK_WORKERS":         "-1",
		"LOCK_TIMEOUT":         "soon",
		"RECONCILE_OLDER_THAN": "-5m",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			require.ErrorContains(t, err, key)
		})
	}
}
