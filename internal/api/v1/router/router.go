package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"humanizer/internal/api/v1/handler"
	"humanizer/internal/config"
	"humanizer/internal/docs"
	"humanizer/internal/middleware"
	"humanizer/internal/model"
	"humanizer/internal/notification"
	"humanizer/internal/pgmq"
	"humanizer/internal/pubsub"
	"humanizer/internal/repository"
	"humanizer/internal/service"
	"humanizer/internal/webhook"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// New wires every dependency and returns the root handler. The returned
// cleanup func releases connections and must be called on shutdown.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		cleanup()
		return nil, nil, err
	}

	if cfg.GeminiAPIKey == "" {
		return fail(errors.New("GEMINI_API_KEY is required"))
	}

	// 1. Database
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, pool.Close)
	logger.Info().Msg("Database connection successful")

	// pgmq speaks database/sql; share the pool rather than opening a second one.
	sqlDB := stdlib.OpenDBFromPool(pool)
	closers = append(closers, func() { _ = sqlDB.Close() })
	queue := pgmq.New(sqlDB)

	// 2. Vendors
	gemini, err := service.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return fail(fmt.Errorf("create Gemini client: %w", err))
	}
	closers = append(closers, func() { _ = gemini.Close() })

	store, presigner := newExportStorage(ctx, cfg, logger)

	var publisher pubsub.Publisher
	if cfg.PubSubUsageTopic != "" && cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID, cfg.GCPCredentialsFile)
		if err != nil {
			return fail(fmt.Errorf("create Pub/Sub publisher: %w", err))
		}
		closers = append(closers, func() { _ = p.Close() })
		publisher = p
	} else {
		logger.Info().Msg("Usage events disabled (PUBSUB_USAGE_TOPIC or GCP_PROJECT_ID not set)")
	}

	var counter middleware.Counter
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddress).Msg("Redis unreachable; rate limiter will fail open")
		}
		closers = append(closers, func() { _ = rdb.Close() })
		counter = middleware.NewRedisCounter(rdb)
	} else {
		logger.Info().Msg("Rate limiting disabled (REDIS_ADDRESS not set)")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	plans := model.NewPlanCatalog(cfg.PlanCodes())

	// 3. Repositories, services, handlers
	userRepo := repository.NewUserRepo(pool)
	profileRepo := repository.NewProfileRepo(pool)
	historyRepo := repository.NewHistoryRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)

	userSvc := service.NewUserService(userRepo, profileRepo)
	profileSvc := service.NewProfileService(profileRepo)
	humanizeSvc := service.NewHumanizeService(
		userRepo, profileRepo, historyRepo,
		service.NewGeminiRewriter(gemini, cfg.GeminiModel),
		service.NewGeminiRewriter(gemini, cfg.GeminiFastModel),
		publisher, cfg.PubSubUsageTopic, logger,
	)
	historySvc := service.NewHistoryService(historyRepo, store, presigner, cfg.S3Bucket, logger)
	aiCheckSvc := service.NewAICheckService(service.NewGPTZeroDetector(cfg.AIDetectorBaseURL, cfg.AIDetectorAPIKey), logger)
	billingSvc := service.NewBillingService(
		userRepo, profileRepo, paymentRepo, plans,
		service.NewPaystackClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey),
		cfg.PaystackCallbackURL, logger,
	)
	reconciler := webhook.NewReconciler(profileRepo, plans, notification.NewQueueNotifier(queue, cfg.NotificationQueueName), logger)

	rateLimit := middleware.RateLimit(counter, cfg.RateLimitPerMinute, time.Minute, logger)
	authMiddleware := middleware.AuthMiddleware([]string{cfg.JWTSecret, cfg.SessionSecret}, userSvc, logger)

	handlers := []interface {
		RegisterRoutes(*http.ServeMux, func(http.Handler) http.Handler)
	}{
		handler.NewHumanizeHandler(humanizeSvc, validate, rateLimit, logger),
		handler.NewHistoryHandler(historySvc, logger),
		handler.NewProfileHandler(profileSvc, validate, logger),
		handler.NewPaystackHandler(billingSvc, reconciler, plans, cfg.PaystackSecretKey, cfg.PaystackPublicKey, validate, logger),
		handler.NewAICheckHandler(aiCheckSvc, validate, rateLimit, logger),
		handler.NewAuthHandler(userSvc, googleOAuthConfig(cfg), cfg.SessionSigningKey(), time.Duration(cfg.SessionTTLHrs)*time.Hour, !cfg.IsDevelopment(), logger),
		handler.NewDevHandler(profileSvc, validate, cfg.IsDevelopment(), logger),
	}

	// 4. ServeMux
	mux := http.NewServeMux()
	for _, h := range handlers {
		h.RegisterRoutes(mux, authMiddleware)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			logger.Error().Err(err).Msg("Health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			http.Error(w, "swagger spec unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})

	// 5. CORS. Credentials are allowed so the session cookie reaches the API.
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Words-Processed", "X-Remaining-Balance"},
		AllowCredentials: true,
	})

	logger.Info().Msg("Router initialized")
	return middleware.Recover(logger)(middleware.LoggerMiddleware(logger)(c.Handler(mux))), cleanup, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dsn := cfg.DBConnectionString
	// Local Postgres usually runs without TLS.
	if cfg.IsDevelopment() && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DB connection string: %w", err)
	}
	// Hosted databases sit behind a transaction pooler, which cannot keep
	// server-side prepared statements.
	if !cfg.IsDevelopment() {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	poolCfg.MaxConns = 25
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open DB pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// newExportStorage returns nil interfaces when no bucket is configured, which
// turns history export off.
func newExportStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (service.ObjectStore, service.URLPresigner) {
	if cfg.S3Bucket == "" {
		logger.Info().Msg("History export disabled (S3_BUCKET not set)")
		return nil, nil
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}
	s3Config, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config; history export disabled")
		return nil, nil
	}
	client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		if cfg.S3URL != "" {
			o.BaseEndpoint = aws.String(cfg.S3URL)
			o.UsePathStyle = true
		}
	})
	return client, s3.NewPresignClient(client)
}

func googleOAuthConfig(cfg *config.Config) *oauth2.Config {
	if cfg.GoogleClientID == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
