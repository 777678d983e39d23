package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API, worker and reconcile processes.
type Config struct {
	Port              string
	PostgresDSN       string
	RedisURL          string
	PaymentsBoltPath  string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool

	// Remote collaborators. When set, checkout talks to them over HTTP
	// instead of the in-process services.
	UsersURL      string
	ProductsURL   string
	OrdersURL     string
	EmailsURL     string
	RemoteTimeout time.Duration

	EmailFrom         string
	LockTimeout       time.Duration
	ReconcileInterval time.Duration
	ReconcileAge      time.Duration
	ReconcileInline   bool
	LowStockThreshold int64
	LowStockRecipient string
	TaskWorkers       int
	CORSOrigins       []string
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisURL:          strings.TrimSpace(os.Getenv("REDIS_URL")),
		PaymentsBoltPath:  strings.TrimSpace(os.Getenv("PAYMENTS_BOLT_PATH")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		UsersURL:          strings.TrimSpace(os.Getenv("USERS_URL")),
		ProductsURL:       strings.TrimSpace(os.Getenv("PRODUCTS_URL")),
		OrdersURL:         strings.TrimSpace(os.Getenv("ORDERS_URL")),
		EmailsURL:         strings.TrimSpace(os.Getenv("EMAILS_URL")),
		EmailFrom:         envDefault("EMAIL_FROM", "noreply@commerce.local"),
		LowStockRecipient: envDefault("LOW_STOCK_RECIPIENT", "estoque@commerce.local"),
		CORSOrigins:       splitList(envDefault("CORS_ORIGINS", "*")),
		ReconcileInline:   isTruthy(envDefault("RECONCILE_INLINE", "true")),
	}

	var err error
	if cfg.RemoteTimeout, err = positiveDuration("REMOTE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.LockTimeout, err = positiveDuration("LOCK_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileInterval, err = positiveDuration("RECONCILE_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileAge, err = positiveDuration("RECONCILE_OLDER_THAN", 15*time.Minute); err != nil {
		return Config{}, err
	}
	threshold, err := positiveInt("LOW_STOCK_THRESHOLD", 5)
	if err != nil {
		return Config{}, err
	}
	cfg.LowStockThreshold = int64(threshold)
	if cfg.TaskWorkers, err = positiveInt("TASK_WORKERS", 4); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Remote reports whether any collaborator is reached over HTTP.
func (c Config) Remote() bool {
	return c.UsersURL != "" || c.ProductsURL != "" || c.OrdersURL != ""
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

func positiveInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

// positiveDuration accepts Go durations ("30s") or a bare number of seconds.
func positiveDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("%s must be positive", key)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
