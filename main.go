package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zhima-Mochi/marketplace/internal/application/audit"
	appBalance "github.com/Zhima-Mochi/marketplace/internal/application/balance"
	appInventory "github.com/Zhima-Mochi/marketplace/internal/application/inventory"
	appOrder "github.com/Zhima-Mochi/marketplace/internal/application/order"
	"github.com/Zhima-Mochi/marketplace/internal/config"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/auth"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/id"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/marketplace/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/outbox"
	redisstore "github.com/Zhima-Mochi/marketplace/internal/infrastructure/redis"
	"github.com/Zhima-Mochi/marketplace/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/marketplace/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/marketplace/internal/presentation/worker"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.Service.Name,
		Env:     cfg.Service.Env,
		Level:   cfg.Service.LogLevel,
		LogFile: cfg.Service.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	if cfg.Service.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	// Amounts travel as JSON numbers, matching the storefront's payloads.
	decimal.MarshalJSONWithoutQuotes = true
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	counters, histograms := prometrics.Standard(prometrics.New("", "", reg))

	tel := infraobs.New(infraobs.Options{
		Tracer:     oteltrace.New(cfg.Service.Name),
		Logger:     zaplogger.New(baseLogger),
		Counters:   counters,
		Histograms: histograms,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		systemLogger.Fatal("store_open_failed", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			systemLogger.Error("store_close_failed", zap.Error(err))
		}
	}()
	systemLogger.Info("store_ready", zap.String("backend", cfg.Store.Backend))

	if cfg.Store.SeedFile != "" {
		products, shops, err := store.seed(ctx, cfg.Store.SeedFile)
		if err != nil {
			systemLogger.Fatal("seed_failed", zap.String("path", cfg.Store.SeedFile), zap.Error(err))
		}
		systemLogger.Info("seed_loaded", zap.Int("products", products), zap.Int("shops", shops))
	}

	var idem appOrder.IdempotencyStore = memory.NewIdempotencyStore(cfg.Redis.IdempotencyTTL)
	if cfg.Redis.Addr != "" {
		client, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			systemLogger.Fatal("redis_connect_failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer func() { _ = client.Close() }()
		idem = redisstore.NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL)
		systemLogger.Info("idempotency_store_ready", zap.String("kind", "redis"))
	}

	// In-process event bus; committed transitions publish here, the audit worker consumes.
	bus := outbox.NewBus(tel, outbox.Options{})
	bus.Start(context.Background())
	audit.New(bus, tel).Start(workerpresentation.EventContext(tel))

	settlement := appOrder.Settlement{
		RestockPolicy:     appOrder.RestockPolicy(cfg.Settlement.RestockPolicy),
		BalanceMode:       cfg.Settlement.BalanceMode,
		ServiceChargeRate: cfg.Settlement.ServiceChargeRate,
	}

	server := httppresentation.NewServer(httppresentation.Deps{
		Checkout:     appOrder.NewCheckoutUseCase(store.tx, id.NewUUIDGenerator(), idem, bus, tel),
		UpdateStatus: appOrder.NewUpdateStatusUseCase(store.tx, bus, settlement, tel),
		Orders:       appOrder.NewService(store.orders, tel),
		Restock:      appInventory.NewRestockUseCase(store.inventory, bus, tel),
		Inventory:    appInventory.NewService(store.inventory, tel),
		Balances:     appBalance.NewService(store.balances, tel),
		Verifier:     auth.NewVerifier(cfg.Auth.JWTSecret, 0),
		Health:       store.health,
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, tel)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Engine(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", httpServer.Addr),
		)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}

	if err := bus.Stop(shutdownCtx); err != nil {
		systemLogger.Error("event_bus_stop_error",
			zap.Error(err),
		)
	}
}
