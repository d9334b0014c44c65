package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seatflow/checkout-service/internal/adapters/logging"
	"github.com/seatflow/checkout-service/internal/adapters/postgres"
	"github.com/seatflow/checkout-service/internal/adapters/secrets"
	"github.com/seatflow/checkout-service/internal/config"
	"github.com/seatflow/checkout-service/internal/domain/ports"
	"github.com/seatflow/checkout-service/internal/gateway"
	checkoutHandler "github.com/seatflow/checkout-service/internal/handlers/checkout"
	checkoutService "github.com/seatflow/checkout-service/internal/services/checkout"
	"github.com/seatflow/checkout-service/internal/services/reconciler"
	reservationService "github.com/seatflow/checkout-service/internal/services/reservation"
	pkghttp "github.com/seatflow/checkout-service/pkg/http"
	"github.com/seatflow/checkout-service/pkg/observability"
	"github.com/seatflow/checkout-service/pkg/resilience"
	"github.com/seatflow/checkout-service/pkg/shutdown"
)

// providerRetryAttempts bounds GET retries against a wobbling provider API
const providerRetryAttempts = 3

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	zapLogger := initLogger(cfg.Logger)
	defer zapLogger.Sync()
	logger := logging.NewZapAdapter(zapLogger)

	logger.Info("Starting checkout service",
		ports.String("version", "0.1.0"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timeouts := resilience.DefaultTimeoutConfig()
	manager := shutdown.NewManager(zapLogger, timeouts.ShutdownGrace)

	pool, err := postgres.NewPool(ctx, cfg.Database.ConnectionString(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	manager.RegisterCloser("database", pool)

	logger.Info("Database connection established",
		ports.String("database", cfg.Database.Database),
	)

	cipher, err := initCipher(ctx, cfg.Secrets, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize credential cipher", zap.Error(err))
	}

	deps := initDependencies(pool, cfg, cipher, timeouts, logger)

	// Best-effort reachability probe against every active gateway.
	// Failures only log; a provider outage at boot must not keep the
	// reservation API down.
	go checkGateways(ctx, deps.configs, deps.factory, logger)

	// Metrics and health
	healthChecker := observability.NewHealthChecker(pool)
	metricsServer := observability.StartMetricsServer(fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker)
	manager.RegisterServer("metrics_server", metricsServer)
	logger.Info("Metrics server listening", ports.Int("port", cfg.Server.MetricsPort))

	// HTTP API
	mux := http.NewServeMux()
	deps.handler.Register(mux)

	apiServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  timeouts.HTTPRead,
		WriteTimeout: timeouts.HTTPWrite,
		IdleTimeout:  timeouts.HTTPIdle,
	}
	manager.RegisterServer("api_server", apiServer)

	go func() {
		logger.Info("HTTP server listening", ports.String("addr", apiServer.Addr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Background expiry sweep. Registered last so it stops before the
	// servers and the pool it writes through.
	sweeper := shutdown.NewBackgroundWorker(ctx, "reservation_sweeper", zapLogger)
	sweeper.Start(deps.reservations.RunSweeper)
	manager.Register("reservation_sweeper", sweeper.Shutdown)

	<-ctx.Done()
	manager.Shutdown()
}

type dependencies struct {
	reservations *reservationService.Service
	handler      *checkoutHandler.Handler
	configs      ports.GatewayConfigRepository
	factory      *gateway.Factory
}

// checkGateways walks the active gateway configurations and pings each
// provider's API with the decrypted credentials. A failing probe usually
// means a rotated key that was never re-encrypted.
func checkGateways(ctx context.Context, configs ports.GatewayConfigRepository, factory *gateway.Factory, logger ports.Logger) {
	active, err := configs.ListActive(ctx, nil)
	if err != nil {
		logger.Warn("Gateway config listing failed", ports.Err(err))
		return
	}
	for _, cfg := range active {
		gw, err := factory.ForConfig(cfg)
		if err != nil {
			logger.Warn("Gateway unusable",
				ports.String("provider", string(cfg.Provider)),
				ports.Err(err),
			)
			continue
		}
		if gw.TestConnection(ctx) {
			logger.Info("Provider reachable", ports.String("provider", string(cfg.Provider)))
		} else {
			logger.Warn("Provider connection test failed", ports.String("provider", string(cfg.Provider)))
		}
	}
}

func initDependencies(pool *pgxpool.Pool, cfg *config.Config, cipher ports.CredentialCipher, timeouts *resilience.TimeoutConfig, logger ports.Logger) *dependencies {
	db := postgres.NewDBExecutor(pool)

	reservationRepo := postgres.NewReservationRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	configRepo := postgres.NewGatewayConfigRepository(db)
	activityRepo := postgres.NewActivityRepository(db)

	providerClient := pkghttp.NewRetryingClient(
		pkghttp.NewClient(pkghttp.ProviderClientConfig(), timeouts.ProviderAPI),
		resilience.ProviderBackoff(),
		providerRetryAttempts,
	)
	factory := gateway.NewFactory(cipher, providerClient, logger)

	reservations := reservationService.NewService(
		db, reservationRepo, planRepo, activityRepo, logger,
		reservationService.Config{
			TTL:                cfg.Reservation.TTL,
			ExtensionIncrement: cfg.Reservation.ExtensionIncrement,
			LowWaterMark:       cfg.Reservation.LowWaterMark,
			MaxLifetime:        cfg.Reservation.MaxLifetime,
			SweepInterval:      cfg.Reservation.SweepInterval,
		},
	)
	sessions := checkoutService.NewService(reservationRepo, configRepo, factory, logger, cfg.Checkout.ReturnURL)
	rec := reconciler.NewService(
		db, reservationRepo, transactionRepo, subscriptionRepo,
		planRepo, activityRepo, configRepo, factory, logger,
	)

	resolver := checkoutHandler.NewGatewayResolver(configRepo, factory)
	handler := checkoutHandler.NewHandler(reservations, sessions, rec, resolver, logger)

	return &dependencies{
		reservations: reservations,
		handler:      handler,
		configs:      configRepo,
		factory:      factory,
	}
}

// initCipher builds the AES credential cipher from the configured master
// key backend
func initCipher(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (ports.CredentialCipher, error) {
	var (
		source ports.SecretSource
		err    error
	)
	switch cfg.Backend {
	case "aws":
		source, err = secrets.NewAWSSource(ctx, secrets.DefaultAWSSourceConfig(cfg.AWSRegion), logger)
	case "vault":
		vaultCfg := secrets.DefaultVaultSourceConfig(cfg.VaultAddr, cfg.VaultToken)
		vaultCfg.MountPath = cfg.VaultMount
		source, err = secrets.NewVaultSource(vaultCfg, logger)
	default:
		source = secrets.NewEnvSource("", logger)
	}
	if err != nil {
		return nil, err
	}

	masterKey, err := source.GetSecret(ctx, cfg.MasterKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load master key: %w", err)
	}
	return secrets.NewAESCipher(masterKey)
}

func initLogger(cfg config.LoggerConfig) *zap.Logger {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	return logger
}
