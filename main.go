package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
	"github.com/imam0321/bistro-boss-server/common/logger"
	"github.com/imam0321/bistro-boss-server/config"
	"github.com/imam0321/bistro-boss-server/controllers"
	"github.com/imam0321/bistro-boss-server/database"
	"github.com/imam0321/bistro-boss-server/middleware"
	awspkg "github.com/imam0321/bistro-boss-server/pkg/aws"
	"github.com/imam0321/bistro-boss-server/repository"
	"github.com/imam0321/bistro-boss-server/routes"
	"github.com/imam0321/bistro-boss-server/services"
)

const serviceName = "bistro-boss"

func main() {
	_ = godotenv.Load()
	logger.Initialize(os.Getenv("APP_ENV"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Fatal("Failed to load config", zap.Error(err))
	}

	// AWS is optional unless secrets have to come from Secrets Manager.
	awsCfg, awsErr := awspkg.LoadAWSConfig(ctx)
	if awsErr != nil {
		if cfg.UseAWSSecrets {
			logger.Log.Fatal("AWS config required for AWS_USE_SECRETS", zap.Error(awsErr))
		}
		logger.Log.Warn("AWS disabled", zap.Error(awsErr))
	}
	if cfg.UseAWSSecrets {
		if err := cfg.ApplySecrets(ctx, awspkg.NewSecretsClient(awsCfg)); err != nil {
			logger.Log.Fatal("Failed to load secrets", zap.Error(err))
		}
	}

	var metricsClient *awspkg.MetricsClient
	var events awspkg.SNSPublisher
	stopLogs := func() {}
	if awsErr == nil {
		stopLogs = initCloudWatchLogs(ctx, awsCfg, cfg)
		metricsClient = awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)
		if cfg.PaymentSNSTopicARN != "" {
			events = awspkg.NewSNSClient(awsCfg)
		}
	}
	defer func() {
		_ = logger.Log.Sync()
		stopLogs()
	}()

	mongo, err := database.Connect(ctx, cfg.MongoURI, cfg.DBName, logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := database.EnsureIndexes(ctx, mongo.DB); err != nil {
		logger.Log.Warn("Failed to ensure indexes", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(mongo.DB)
	menuRepo := repository.NewMenuRepository(mongo.DB)
	reviewRepo := repository.NewReviewRepository(mongo.DB)
	cartRepo := repository.NewCartRepository(mongo.DB)
	paymentRepo := repository.NewPaymentRepository(mongo.DB)

	tokenSvc := services.NewTokenService(cfg.AccessTokenSecret, cfg.TokenTTL)
	paymentSvc := services.NewPaymentService(
		paymentRepo,
		cartRepo,
		services.NewStripeService(cfg.PaymentSecretKey),
		events,
		metricsClient,
		services.PaymentConfig{Currency: cfg.PaymentCurrency, TopicARN: cfg.PaymentSNSTopicARN},
		logger.Log,
	)
	statsSvc := services.NewStatsService(userRepo, menuRepo, paymentRepo)

	// Settle payments whose cart purge did not finish before the last stop.
	if settled, err := paymentSvc.ReconcileCartCleanup(ctx); err != nil {
		logger.Log.Warn("Cart cleanup reconciliation incomplete", zap.Int("settled", settled), zap.Error(err))
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		apperrors.Recovery(),
		logger.RequestLogger(),
		middleware.MetricsMiddleware(metricsClient, serviceName),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimitMiddleware(ctx, cfg.RateLimitPerMinute),
		middleware.RequestTimeout(cfg.RequestTimeout),
		apperrors.ErrorMiddleware(),
	)

	r.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := mongo.Client.Ping(pingCtx, nil); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	routes.RegisterRoutes(r, routes.Handlers{
		Auth:     controllers.NewAuthController(tokenSvc),
		Users:    controllers.NewUserController(userRepo),
		Menu:     controllers.NewMenuController(menuRepo, reviewRepo),
		Carts:    controllers.NewCartController(cartRepo),
		Payments: controllers.NewPaymentController(paymentSvc),
		Stats:    controllers.NewStatsController(statsSvc),
	}, tokenSvc, userRepo)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Bistro boss is sitting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := mongo.Close(shutdownCtx); err != nil {
		logger.Log.Error("Failed to close MongoDB", zap.Error(err))
	}
	logger.Log.Info("Server stopped gracefully")
}

// initCloudWatchLogs tees the logger into CloudWatch Logs when enabled and
// returns the func that flushes and stops the buffered sink.
func initCloudWatchLogs(ctx context.Context, awsCfg sdkaws.Config, cfg *config.Config) func() {
	if !cfg.CloudWatchEnabled {
		return func() {}
	}
	cwCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cwLogs, err := awspkg.NewCloudWatchLogsClient(cwCtx, awsCfg, cfg.CloudWatchLogGroup, serviceName, true)
	if err != nil {
		logger.Log.Warn("CloudWatch Logs unavailable", zap.Error(err))
		return func() {}
	}
	sink := cwLogs.Buffered(time.Second)
	logger.InitializeWithWriter(cfg.Env, sink)
	logger.Log.Info("CloudWatch logging enabled", zap.String("log_group", cfg.CloudWatchLogGroup))
	return func() { _ = sink.Stop() }
}
