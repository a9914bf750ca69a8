package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"moveit-auth/internal/config"
	"moveit-auth/internal/db"
	"moveit-auth/internal/email"
	apihttp "moveit-auth/internal/http"
	"moveit-auth/internal/oauth"
	"moveit-auth/internal/repository"
	"moveit-auth/internal/service"
)

const fromName = "Move It"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET is using the development default")
	}

	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store init", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeStore()
	users := repository.NewCollection(store)

	mailer := newDispatcher(cfg, logger)
	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	accounts := service.NewAccountService(logger, users, mailer, cfg.BaseURL)
	federation := service.NewFederationService(logger, users)

	providers := oauth.NewRegistryFromConfig(oauth.Config{
		Google: oauth.ProviderConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.GoogleCallbackURL,
		},
		Facebook: oauth.ProviderConfig{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			CallbackURL:  cfg.FacebookCallbackURL,
		},
	})

	router := apihttp.NewRouter(
		logger,
		cfg.CORSOrigins,
		jwtSvc,
		apihttp.NewHealthHandler(cfg.AppEnv),
		apihttp.NewUserHandler(logger, accounts, jwtSvc),
		apihttp.NewOAuthHandler(logger, providers, federation, jwtSvc, apihttp.OAuthRedirects{
			FrontendURL:  cfg.FrontendURL,
			FailureURL:   cfg.AuthFailureURL,
			SecureCookie: strings.HasPrefix(cfg.BaseURL, "https://"),
		}),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
		zap.String("store", cfg.StoreBackend),
		zap.Duration("session_ttl", jwtSvc.TTL()),
		zap.Any("oauth_providers", providers.Enabled()),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newStore elige el backend de persistencia segun STORE_BACKEND.
func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return repository.NewMemoryStore(), func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(ctxPing).Err(); err != nil {
			// El store degrada a coleccion vacia; se avisa y se sigue.
			logger.Warn("redis ping failed", zap.Error(err))
		}
		return repository.NewRedisStore(client, cfg.RedisKey, logger), func() { _ = client.Close() }, nil
	case "postgres":
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repository.NewPgStore(pool, "", logger), pool.Close, nil
	default:
		return repository.NewFileStore(cfg.DataFile, logger), func() {}, nil
	}
}

// newDispatcher usa SMTP real si hay credenciales y, si no, el buzon de
// prueba de Ethereal salvo que MAIL_SANDBOX=false.
func newDispatcher(cfg *config.Config, logger *zap.Logger) *email.Dispatcher {
	if cfg.SMTPConfigured() {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.FromEmail, fromName, cfg.SMTPUseTLS)
		if err == nil {
			logger.Info("mail transport: smtp", zap.String("host", cfg.SMTPHost))
			return email.NewDispatcher(sender, false, cfg.MailTimeout, logger)
		}
		logger.Warn("smtp sender init failed", zap.Error(err))
	}
	if cfg.MailSandbox {
		logger.Info("mail transport: ethereal sandbox")
		sender := email.NewEtherealSender(cfg.MailSandboxAPI, cfg.FromEmail, fromName, &http.Client{Timeout: cfg.MailTimeout}, logger)
		return email.NewDispatcher(sender, true, cfg.MailTimeout, logger)
	}
	logger.Warn("mail transport disabled; verification links are returned in responses")
	return email.NewDispatcher(email.NewDisabledSender("email sender not configured"), false, cfg.MailTimeout, logger)
}
