package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"jobportal/internal/cache"
	"jobportal/internal/config"
	"jobportal/internal/db"
	"jobportal/internal/email"
	apihttp "jobportal/internal/http"
	"jobportal/internal/repository"
	"jobportal/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewGomailSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			UseSSL:   cfg.SMTPUseSSL,
		})
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	secrets := cache.NewMemory()
	otpLimiter := service.NewMemoryOTPRateLimiter(cfg.OTPRequestWindow, cfg.OTPRequestMax)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory secret cache", zap.Error(err))
		} else {
			secrets = cache.NewRedis(redisClient, "")
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, cfg.OTPRequestWindow, cfg.OTPRequestMax)
		}
		cancel()
	} else {
		logger.Warn("redis not configured, one-time secrets are kept in memory")
	}

	var identity service.IdentityVerifier
	if cfg.GoogleClientID != "" {
		verifier, err := service.NewGoogleVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			logger.Warn("google verifier init failed", zap.Error(err))
		} else {
			identity = verifier
		}
	} else {
		logger.Warn("google client id not configured")
	}

	jwtSvc := service.NewJWTService(service.JWTConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.JWTAccessTTL,
		RefreshTTL:    cfg.JWTRefreshTTL,
		Issuer:        cfg.JWTIssuer,
	})

	authSvc := service.NewAuthService(service.AuthDeps{
		Logger:     logger,
		Users:      userRepo,
		Hasher:     service.NewBcryptHasher(cfg.BcryptCost),
		Tokens:     jwtSvc,
		OTP:        service.NewOTPService(secrets),
		Resets:     service.NewPasswordResetService(secrets, cfg.FrontendURL),
		Identity:   identity,
		Mailer:     emailSender,
		OTPLimiter: otpLimiter,
	}, service.AuthSettings{
		FrontendURL:  cfg.FrontendURL,
		AccessTTL:    jwtSvc.AccessTTL(),
		OTPTTL:       cfg.OTPTTL,
		EmailTimeout: cfg.EmailTimeout,
	})
	adminSvc := service.NewAdminService(logger, userRepo)

	authHandler := apihttp.NewAuthHandler(logger, authSvc, cfg.JWTRefreshTTL, cfg.CookieSecure)
	adminHandler := apihttp.NewAdminHandler(logger, adminSvc)
	router := apihttp.NewRouter(logger, jwtSvc, authHandler, adminHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	authSvc.Wait()
}
