package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/kevin07696/payin-service/internal/adapters/postgres"
	"github.com/kevin07696/payin-service/internal/adapters/stripe"
	"github.com/kevin07696/payin-service/internal/config"
	"github.com/kevin07696/payin-service/internal/services/cartpayment"
	"github.com/kevin07696/payin-service/internal/services/payer"
	"github.com/kevin07696/payin-service/internal/services/paymentmethod"
	payinhttp "github.com/kevin07696/payin-service/pkg/http"
	"github.com/kevin07696/payin-service/pkg/observability"
	"github.com/kevin07696/payin-service/pkg/security"
)

func main() {
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting payin service",
		zap.String("version", "0.1.0"),
	)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Resolve secret references before opening any connection
	secretManager := initSecretManager(ctx, cfg, logger)
	cfg.PaymentDB.Password = resolveSecret(ctx, secretManager, cfg.PaymentDB.Password, logger)
	cfg.MainDB.Password = resolveSecret(ctx, secretManager, cfg.MainDB.Password, logger)
	for country, key := range cfg.Gateway.APIKeys {
		cfg.Gateway.APIKeys[country] = resolveSecret(ctx, secretManager, key, logger)
	}

	paymentDB, err := initDatabase(ctx, &cfg.PaymentDB, logger)
	if err != nil {
		logger.Fatal("Failed to initialize payment database", zap.Error(err))
	}
	defer paymentDB.Close()

	mainDB, err := initDatabase(ctx, &cfg.MainDB, logger)
	if err != nil {
		logger.Fatal("Failed to initialize main database", zap.Error(err))
	}
	defer mainDB.Close()

	logger.Info("Database connections established",
		zap.String("payment_db", cfg.PaymentDB.Database),
		zap.String("main_db", cfg.MainDB.Database),
	)

	deps := initDependencies(paymentDB, mainDB, cfg, logger)
	logger.Info("Payin services initialized",
		zap.Bool("payer_service", deps.payerService != nil),
		zap.Bool("payment_method_service", deps.paymentMethodService != nil),
		zap.Bool("cart_payment_service", deps.cartPaymentService != nil),
	)

	// Metrics and health server
	healthChecker := observability.NewHealthChecker(paymentDB.Primary(), mainDB.Primary())
	metricsServer := observability.StartMetricsServer(fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker)
	logger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	// gRPC server with interceptors; service handlers are registered by the
	// routing layer built on top of this module.
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			observability.UnaryServerInterceptor(),
			loggingInterceptor(logger),
			recoveryInterceptor(logger),
		),
	)
	reflection.Register(grpcServer)

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err != nil {
		logger.Fatal("Failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening",
			zap.String("address", listener.Addr().String()),
		)
		if err := grpcServer.Serve(listener); err != nil {
			logger.Fatal("Failed to serve", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")

	grpcServer.GracefulStop()
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("Metrics server shutdown error", zap.Error(err))
	}

	logger.Info("Servers stopped")
}

// Dependencies holds all initialized services
type Dependencies struct {
	payerService         *payer.Service
	paymentMethodService *paymentmethod.Service
	cartPaymentService   *cartpayment.Service
}

// initLogger initializes the logger
func initLogger() *zap.Logger {
	env := getEnv("ENVIRONMENT", "development")

	if env == "production" {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		logger, _ := zapCfg.Build()
		return logger
	}

	logger, _ := zap.NewDevelopment()
	return logger
}

// initDatabase initializes the connection pools for one database
func initDatabase(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*postgres.DBExecutor, error) {
	primary, err := newPool(ctx, cfg.ConnectionString(), cfg)
	if err != nil {
		return nil, fmt.Errorf("create primary pool: %w", err)
	}

	replicaURL := cfg.ReplicaConnectionString()
	if replicaURL == "" {
		return postgres.NewDBExecutor(primary), nil
	}

	replica, err := newPool(ctx, replicaURL, cfg)
	if err != nil {
		primary.Close()
		return nil, fmt.Errorf("create replica pool: %w", err)
	}
	logger.Info("Read replica configured",
		zap.String("database", cfg.Database),
		zap.String("replica_host", cfg.ReplicaHost),
	)
	return postgres.NewDBExecutorWithReplica(primary, replica), nil
}

func newPool(ctx context.Context, connString string, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(pingCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// initDependencies initializes all services with dependency injection
func initDependencies(paymentDB, mainDB *postgres.DBExecutor, cfg *config.Config, logger *zap.Logger) *Dependencies {
	loggerAdapter := security.NewZapLogger(logger)

	// Repositories
	cartPaymentRepo := postgres.NewCartPaymentRepository(paymentDB)
	intentRepo := postgres.NewPaymentIntentRepository(paymentDB)
	chargeRepo := postgres.NewChargeRepository(paymentDB)
	refundRepo := postgres.NewRefundRepository(paymentDB)
	legacyChargeRepo := postgres.NewLegacyChargeRepository(mainDB)
	payerRepo := postgres.NewPayerRepository(paymentDB, mainDB)
	paymentMethodRepo := postgres.NewPaymentMethodRepository(paymentDB, mainDB)

	// Gateway adapter with a pooled HTTP client tuned for a single host
	httpClient := payinhttp.NewHTTPClient(
		payinhttp.GatewayClientConfig(),
		time.Duration(cfg.Gateway.Timeout)*time.Second,
	)
	gateway := stripe.NewAdapter(stripe.Config{
		BaseURL: cfg.Gateway.BaseURL,
		APIKeys: cfg.Gateway.APIKeys,
	}, httpClient, loggerAdapter)

	featureFlags := config.NewStaticFeatureFlags(cfg.FeatureFlags)

	// Services
	payerSvc := payer.NewService(payerRepo, gateway, loggerAdapter)
	paymentMethodSvc := paymentmethod.NewService(paymentMethodRepo, loggerAdapter)
	cartPaymentSvc := cartpayment.NewService(
		paymentDB,
		mainDB,
		cartPaymentRepo,
		intentRepo,
		chargeRepo,
		refundRepo,
		legacyChargeRepo,
		payerSvc,
		paymentMethodSvc,
		gateway,
		featureFlags,
		loggerAdapter,
	)

	return &Dependencies{
		payerService:         payerSvc,
		paymentMethodService: paymentMethodSvc,
		cartPaymentService:   cartPaymentSvc,
	}
}

// Interceptors

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		if err != nil {
			logger.Error("gRPC request failed",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		} else {
			logger.Info("gRPC request",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)),
			)
		}

		return resp, err
	}
}

func recoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered in gRPC handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				err = fmt.Errorf("internal server error")
			}
		}()

		return handler(ctx, req)
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
