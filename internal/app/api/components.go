package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	httpclient "github.com/Apurer/go-gin-commerce/internal/clients/http"
	emailsclient "github.com/Apurer/go-gin-commerce/internal/clients/http/emails"
	ordersclient "github.com/Apurer/go-gin-commerce/internal/clients/http/orders"
	productsclient "github.com/Apurer/go-gin-commerce/internal/clients/http/products"
	usersclient "github.com/Apurer/go-gin-commerce/internal/clients/http/users"
	checkoutmemory "github.com/Apurer/go-gin-commerce/internal/domains/checkout/adapters/memory"
	checkoutobs "github.com/Apurer/go-gin-commerce/internal/domains/checkout/adapters/observability"
	checkoutpostgres "github.com/Apurer/go-gin-commerce/internal/domains/checkout/adapters/persistence/postgres"
	checkoutapp "github.com/Apurer/go-gin-commerce/internal/domains/checkout/application"
	checkoutports "github.com/Apurer/go-gin-commerce/internal/domains/checkout/ports"
	inventorycache "github.com/Apurer/go-gin-commerce/internal/domains/inventory/adapters/cache"
	inventorymemory "github.com/Apurer/go-gin-commerce/internal/domains/inventory/adapters/memory"
	inventoryobs "github.com/Apurer/go-gin-commerce/internal/domains/inventory/adapters/observability"
	inventorypostgres "github.com/Apurer/go-gin-commerce/internal/domains/inventory/adapters/persistence/postgres"
	inventoryapp "github.com/Apurer/go-gin-commerce/internal/domains/inventory/application"
	inventoryports "github.com/Apurer/go-gin-commerce/internal/domains/inventory/ports"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/adapters/async"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/adapters/logsender"
	notificationsobs "github.com/Apurer/go-gin-commerce/internal/domains/notifications/adapters/observability"
	notificationsapp "github.com/Apurer/go-gin-commerce/internal/domains/notifications/application"
	notificationsports "github.com/Apurer/go-gin-commerce/internal/domains/notifications/ports"
	orderscache "github.com/Apurer/go-gin-commerce/internal/domains/orders/adapters/cache"
	ordersmemory "github.com/Apurer/go-gin-commerce/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-gin-commerce/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/go-gin-commerce/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/go-gin-commerce/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-gin-commerce/internal/domains/orders/ports"
	paymentsbolt "github.com/Apurer/go-gin-commerce/internal/domains/payments/adapters/bolt"
	paymentscache "github.com/Apurer/go-gin-commerce/internal/domains/payments/adapters/cache"
	paymentsmemory "github.com/Apurer/go-gin-commerce/internal/domains/payments/adapters/memory"
	paymentsobs "github.com/Apurer/go-gin-commerce/internal/domains/payments/adapters/observability"
	paymentspostgres "github.com/Apurer/go-gin-commerce/internal/domains/payments/adapters/persistence/postgres"
	paymentsapp "github.com/Apurer/go-gin-commerce/internal/domains/payments/application"
	paymentsports "github.com/Apurer/go-gin-commerce/internal/domains/payments/ports"
	userscache "github.com/Apurer/go-gin-commerce/internal/domains/users/adapters/cache"
	usersmemory "github.com/Apurer/go-gin-commerce/internal/domains/users/adapters/memory"
	usersobs "github.com/Apurer/go-gin-commerce/internal/domains/users/adapters/observability"
	userspostgres "github.com/Apurer/go-gin-commerce/internal/domains/users/adapters/persistence/postgres"
	usersapp "github.com/Apurer/go-gin-commerce/internal/domains/users/application"
	usersports "github.com/Apurer/go-gin-commerce/internal/domains/users/ports"
	"github.com/Apurer/go-gin-commerce/internal/platform/cache"
	"github.com/Apurer/go-gin-commerce/internal/platform/events"
	eventsmemory "github.com/Apurer/go-gin-commerce/internal/platform/events/memory"
	"github.com/Apurer/go-gin-commerce/internal/platform/events/redisstream"
	"github.com/Apurer/go-gin-commerce/internal/platform/locks"
	"github.com/Apurer/go-gin-commerce/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-commerce/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-commerce/internal/platform/postgres"
	"github.com/Apurer/go-gin-commerce/internal/platform/saga"
	"github.com/Apurer/go-gin-commerce/internal/platform/tasks"
)

// Components is the assembled object graph shared by the api, worker and
// reconcile processes.
type Components struct {
	Users       usersports.Service
	Inventory   inventoryports.Service
	Orders      ordersports.Service
	Payments    paymentsports.Service
	Emails      notificationsports.Service
	Checkout    checkoutports.Service
	Steps       *checkoutapp.Service
	Idempotency checkoutports.IdempotencyStore
	Bus         eventsBackend
	Queue       *tasks.Queue
	Recorder    *paymentsapp.Recorder
	closers     []func()
}

type eventsBackend interface {
	events.Publisher
	events.Subscriber
	Close() error
}

// Close releases every resource in reverse acquisition order.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func (c *Components) onClose(fn func()) { c.closers = append(c.closers, fn) }

// Build wires ledgers, caches, locks, the event backend and the checkout
// sagas. Missing infrastructure degrades to in-memory adapters with a warning.
func Build(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*Components, error) {
	logger := instruments.Logger
	reg := instruments.Registerer()
	c := &Components{}

	db, closeDB := platformpostgres.ConnectFromEnv(ctx, logger)
	c.onClose(closeDB)
	if db != nil {
		if err := migrations.Run(db); err != nil {
			c.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}

	store, locker, rdb := buildRedis(ctx, cfg, logger)
	if rdb != nil {
		c.onClose(func() { _ = rdb.Close() })
		c.Bus = redisstream.New(rdb,
			redisstream.WithLogger(logger),
			redisstream.WithRegisterer(reg),
			redisstream.WithConsumerName(consumerName()),
		)
	} else {
		c.Bus = eventsmemory.NewBus(eventsmemory.WithLogger(logger), eventsmemory.WithRegisterer(reg))
	}
	c.onClose(func() { _ = c.Bus.Close() })

	c.Queue = tasks.New(
		tasks.WithWorkers(cfg.TaskWorkers),
		tasks.WithLogger(logger),
		tasks.WithRegisterer(reg),
	)
	c.Queue.Start(ctx)
	c.onClose(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Queue.Shutdown(shutdownCtx); err != nil {
			logger.Warn("task queue shutdown incomplete", slog.String("error", err.Error()))
		}
	})

	emails, err := buildEmails(cfg, instruments)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Emails = emails
	notifier := async.New(emails, c.Queue)

	c.Users = userscache.New(usersobs.New(
		usersapp.NewService(userRepository(db)),
		usersobs.WithLogger(logger),
		usersobs.WithTracer(instruments.Tracer("internal.users.application")),
		usersobs.WithMeter(instruments.Meter("internal.users.application")),
	), store, logger)

	products, err := productRepository(ctx, db)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Inventory = inventorycache.New(inventoryobs.New(
		inventoryapp.NewService(products,
			inventoryapp.WithLogger(logger),
			inventoryapp.WithLowStockAlerts(notifier, cfg.LowStockThreshold, cfg.LowStockRecipient),
		),
		inventoryobs.WithLogger(logger),
		inventoryobs.WithTracer(instruments.Tracer("internal.inventory.application")),
		inventoryobs.WithMeter(instruments.Meter("internal.inventory.application")),
	), store, logger)

	orders := orderscache.New(ordersobs.New(
		ordersapp.NewService(orderRepository(db)),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	), store, logger)
	c.Orders = orders

	paymentRepo, closePayments, err := paymentRepository(cfg, db, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.onClose(closePayments)
	c.Payments = paymentscache.New(paymentsobs.New(
		paymentsapp.NewService(paymentRepo),
		paymentsobs.WithLogger(logger),
		paymentsobs.WithTracer(instruments.Tracer("internal.payments.application")),
		paymentsobs.WithMeter(instruments.Meter("internal.payments.application")),
	), store, logger)
	c.Recorder = paymentsapp.NewRecorder(c.Payments, c.Bus, paymentsapp.WithRecorderLogger(logger))

	deps, err := collaborators(cfg, c, orders.Authoritative())
	if err != nil {
		c.Close()
		return nil, err
	}
	deps.Publisher = c.Bus
	if cfg.Remote() {
		logger.Info("checkout collaborators configured",
			slog.String("users", cfg.UsersURL), slog.String("products", cfg.ProductsURL), slog.String("orders", cfg.OrdersURL))
	}
	var idempotency checkoutports.IdempotencyStore = checkoutmemory.NewIdempotencyStore()
	if db != nil {
		idempotency = checkoutpostgres.NewIdempotencyStore(db)
	}
	c.Idempotency = idempotency
	c.Steps = checkoutapp.NewService(deps,
		checkoutapp.WithLogger(logger),
		checkoutapp.WithLocker(locker),
		checkoutapp.WithCache(store),
		checkoutapp.WithNotifier(notifier),
		checkoutapp.WithIdempotencyStore(idempotency),
		checkoutapp.WithSagaMetrics(saga.NewMetrics(reg)),
		checkoutapp.WithLockTimeout(cfg.LockTimeout),
	)
	c.Checkout = checkoutobs.New(c.Steps,
		checkoutobs.WithLogger(logger),
		checkoutobs.WithTracer(instruments.Tracer("internal.checkout.application")),
		checkoutobs.WithMeter(instruments.Meter("internal.checkout.application")),
	)
	return c, nil
}

// collaborators picks the HTTP clients for every configured remote service
// and the in-process services otherwise.
// collaborators picks the checkout ports. Orders are read past the cache,
// since confirmation decides on their status.
func collaborators(cfg Config, c *Components, orders checkoutports.OrderLedger) (checkoutapp.Dependencies, error) {
	deps := checkoutapp.Dependencies{
		Users:     c.Users,
		Inventory: c.Inventory,
		Orders:    orders,
		Payments:  c.Payments,
	}
	opts := []httpclient.Option{httpclient.WithTimeout(cfg.RemoteTimeout)}
	if cfg.UsersURL != "" {
		remote, err := usersclient.New(cfg.UsersURL, opts...)
		if err != nil {
			return deps, fmt.Errorf("users client: %w", err)
		}
		deps.Users = remote
	}
	if cfg.ProductsURL != "" {
		remote, err := productsclient.New(cfg.ProductsURL, opts...)
		if err != nil {
			return deps, fmt.Errorf("products client: %w", err)
		}
		deps.Inventory = remote
	}
	if cfg.OrdersURL != "" {
		remote, err := ordersclient.New(cfg.OrdersURL, opts...)
		if err != nil {
			return deps, fmt.Errorf("orders client: %w", err)
		}
		deps.Orders = remote
	}
	return deps, nil
}

func buildEmails(cfg Config, instruments *platformobservability.Instruments) (notificationsports.Service, error) {
	var inner notificationsports.Service
	if cfg.EmailsURL != "" {
		remote, err := emailsclient.New(cfg.EmailsURL, httpclient.WithTimeout(cfg.RemoteTimeout))
		if err != nil {
			return nil, fmt.Errorf("emails client: %w", err)
		}
		inner = remote
	} else {
		inner = notificationsapp.NewService(logsender.New(instruments.Logger), cfg.EmailFrom)
	}
	return notificationsobs.New(inner,
		notificationsobs.WithLogger(instruments.Logger),
		notificationsobs.WithTracer(instruments.Tracer("internal.notifications.application")),
		notificationsobs.WithMeter(instruments.Meter("internal.notifications.application")),
	), nil
}

// buildRedis returns the cache and lock backends. Without REDIS_URL, or when
// redis is unreachable, both fall back to process-local implementations.
func buildRedis(ctx context.Context, cfg Config, logger *slog.Logger) (cache.Cache, locks.Locker, *redis.Client) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, using in-memory cache, locks and event bus")
		return cache.NewMemory(), locks.NewMemory(), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid REDIS_URL, using in-memory cache, locks and event bus", slog.String("error", err.Error()))
		return cache.NewMemory(), locks.NewMemory(), nil
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		logger.Warn("redis unreachable, using in-memory cache, locks and event bus", slog.String("error", err.Error()))
		return cache.NewMemory(), locks.NewMemory(), nil
	}
	logger.Info("redis configured for cache, locks and event streams", slog.String("addr", opts.Addr))
	return cache.NewRedis(rdb), locks.NewRedis(rdb, locks.WithLogger(logger)), rdb
}

func userRepository(db *gorm.DB) usersports.Repository {
	if db == nil {
		return usersmemory.NewRepository()
	}
	return userspostgres.NewRepository(db)
}

// productRepository realigns the product id sequence on postgres so seeded
// rows with explicit ids do not collide with generated ones.
func productRepository(ctx context.Context, db *gorm.DB) (inventoryports.Repository, error) {
	if db == nil {
		return inventorymemory.NewRepository(), nil
	}
	repo := inventorypostgres.NewRepository(db)
	if err := repo.RealignSequence(ctx); err != nil {
		return nil, fmt.Errorf("realign product id sequence: %w", err)
	}
	return repo, nil
}

func orderRepository(db *gorm.DB) ordersports.Repository {
	if db == nil {
		return ordersmemory.NewRepository()
	}
	return orderspostgres.NewRepository(db)
}

// paymentRepository prefers postgres, then a bolt file, then memory.
func paymentRepository(cfg Config, db *gorm.DB, logger *slog.Logger) (paymentsports.Repository, func(), error) {
	if db != nil {
		return paymentspostgres.NewRepository(db), func() {}, nil
	}
	if cfg.PaymentsBoltPath != "" {
		repo, err := paymentsbolt.Open(cfg.PaymentsBoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open payments ledger %s: %w", cfg.PaymentsBoltPath, err)
		}
		logger.Info("payment ledger configured with bolt", slog.String("path", cfg.PaymentsBoltPath))
		return repo, func() { _ = repo.Close() }, nil
	}
	return paymentsmemory.NewRepository(), func() {}, nil
}

// ConnectTemporal dials Temporal with tracing and the process logger attached.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer("temporal-client"),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "commerce"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
