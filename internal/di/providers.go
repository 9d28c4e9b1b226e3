package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Shalbulov/zentro-risk-prediction/internal/app"
	"github.com/Shalbulov/zentro-risk-prediction/internal/config"
	"github.com/Shalbulov/zentro-risk-prediction/internal/database"
	"github.com/Shalbulov/zentro-risk-prediction/internal/health"
	"github.com/Shalbulov/zentro-risk-prediction/internal/http/handler"
	"github.com/Shalbulov/zentro-risk-prediction/internal/http/middleware"
	"github.com/Shalbulov/zentro-risk-prediction/internal/http/router"
	"github.com/Shalbulov/zentro-risk-prediction/internal/mail"
	"github.com/Shalbulov/zentro-risk-prediction/internal/observability"
	"github.com/Shalbulov/zentro-risk-prediction/internal/repository"
	"github.com/Shalbulov/zentro-risk-prediction/internal/security"
	"github.com/Shalbulov/zentro-risk-prediction/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
	provideAuthMetrics,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	provideRegistrationCodeRepository,
	provideLoginCodeRepository,
)

var SecuritySet = wire.NewSet(provideJWTManager)

var ServiceSet = wire.NewSet(
	provideMailer,
	provideAuthService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideAuthMetrics(_ *observability.Runtime) (*observability.AuthMetrics, error) {
	return observability.NewAuthMetrics()
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if err := database.Seed(db, cfg.BootstrapAdminEmail); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config) redis.UniversalClient {
	if !cfg.RateLimitRedisEnabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// The two code repositories share one interface, so wire needs distinct
// named types to tell them apart.
type RegistrationCodes repository.CodeRepository

type LoginCodes repository.CodeRepository

func provideRegistrationCodeRepository(db *gorm.DB) RegistrationCodes {
	return repository.NewRegistrationCodeRepository(db)
}

func provideLoginCodeRepository(db *gorm.DB) LoginCodes {
	return repository.NewLoginCodeRepository(db)
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTSecret)
}

func provideMailer(cfg *config.Config, logger *slog.Logger) mail.Mailer {
	if !cfg.MailEnabled {
		return mail.NewLogMailer(logger)
	}
	return mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
}

func provideAuthService(
	cfg *config.Config,
	db *gorm.DB,
	users repository.UserRepository,
	regCodes RegistrationCodes,
	loginCodes LoginCodes,
	mailer mail.Mailer,
	jwtMgr *security.JWTManager,
) *service.AuthService {
	return service.NewAuthService(
		db,
		users,
		regCodes,
		loginCodes,
		jwtMgr,
		mailer,
		cfg.RegistrationCodeTTL,
		cfg.LoginCodeTTL,
		cfg.JWTTTL,
	)
}

type GlobalRateLimiter middleware.Limiter

type AuthRateLimiter middleware.Limiter

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) GlobalRateLimiter {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		client, ok := redisClient.(*redis.Client)
		if ok {
			return middleware.NewRedisLimiter(client, cfg.RateLimitRedisPrefix+":api", cfg.APIRateLimitPerMin, time.Minute)
		}
	}
	return middleware.NewLocalLimiter(cfg.APIRateLimitPerMin, time.Minute)
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) AuthRateLimiter {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		client, ok := redisClient.(*redis.Client)
		if ok {
			return middleware.NewRedisLimiter(client, cfg.RateLimitRedisPrefix+":auth", cfg.AuthRateLimitPerMin, time.Minute)
		}
	}
	return middleware.NewLocalLimiter(cfg.AuthRateLimitPerMin, time.Minute)
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	jwt *security.JWTManager,
	logger *slog.Logger,
	globalRateLimiter GlobalRateLimiter,
	authRateLimiter AuthRateLimiter,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:       authHandler,
		JWTManager:        jwt,
		Logger:            logger,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		GlobalRateLimiter: globalRateLimiter,
		AuthRateLimiter:   authRateLimiter,
		Readiness:         readiness,
		EnableOTelHTTP:    cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 2)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if cfg.RateLimitRedisEnabled {
		if c := health.NewRedisChecker(redisClient); c != nil {
			checkers = append(checkers, c)
		}
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}
