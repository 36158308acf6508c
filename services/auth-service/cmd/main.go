package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/handler"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/notifier"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/teon-auth-api/shared/auth"
	"github.com/vasapolrittideah/teon-auth-api/shared/discovery"
	"github.com/vasapolrittideah/teon-auth-api/shared/logger"
	"github.com/vasapolrittideah/teon-auth-api/shared/mailer"
	"github.com/vasapolrittideah/teon-auth-api/shared/security"
	"github.com/vasapolrittideah/teon-auth-api/shared/validator"
)

func main() {
	// A missing .env file is fine; the real environment is used instead.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logger.New(logger.Config{Level: "info"}, "auth-service", os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.Log, cfg.ServiceName, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	accountRepo, closeStore := newAccountRepository(ctx, cfg, log)
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dispatcher := notifier.NewDispatcher(
		newNotifier(cfg, log),
		cfg.Notify.Timeout,
		log,
		notifier.NewMetrics(registry),
	)

	sessionIssuer := auth.NewJWTAuthenticator(cfg.Token.SessionSecret, config.SessionAudience, cfg.Token.Issuer)
	codeIssuer := auth.NewJWTAuthenticator(cfg.Token.VerificationSecret, config.VerificationAudience, cfg.Token.Issuer)

	verificationUsecase := usecase.NewVerificationUsecase(accountRepo, codeIssuer, dispatcher, cfg)
	authUsecase := usecase.NewAuthUsecase(
		accountRepo,
		verificationUsecase,
		security.NewArgon2Hasher(cfg.Password),
		sessionIssuer,
		cfg,
	)

	v, err := validator.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create validator")
	}

	authHandler := handler.NewAuthHTTPHandler(authUsecase, v, cfg, log)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(authHandler, sessionIssuer, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("auth service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	registrar := registerService(cfg, log)

	<-ctx.Done()
	log.Info().Msg("shutting down auth service")

	if registrar != nil {
		if err := registrar.Deregister(); err != nil {
			log.Warn().Err(err).Msg("failed to deregister from consul")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown failed")
	}

	dispatcher.Close()
	log.Info().Msg("auth service stopped")
}

func newAccountRepository(
	ctx context.Context,
	cfg *config.AuthServiceConfig,
	log *zerolog.Logger,
) (repository.AccountRepository, func()) {
	if cfg.Store == config.StoreMemory {
		log.Warn().Msg("using in-memory account store, accounts are lost on restart")
		return repository.NewAccountMemoryRepository(), func() {}
	}

	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(cfg.Mongo.ConnectTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		log.Fatal().Err(err).Msg("failed to ping mongodb")
	}

	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	repo := repository.NewAccountMongoRepository(ctx, log, client.Database(cfg.Mongo.Database))

	return repo, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("failed to disconnect from mongodb")
		}
	}
}

func newNotifier(cfg *config.AuthServiceConfig, log *zerolog.Logger) notifier.Notifier {
	if !cfg.SMTP.Enabled() {
		log.Warn().Msg("SMTP_HOST not set, verification links will be logged instead of emailed")
		return notifier.NewLogNotifier(log)
	}

	m, err := mailer.NewMailer(cfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create mailer")
	}

	return notifier.NewMailNotifier(m)
}

func registerService(cfg *config.AuthServiceConfig, log *zerolog.Logger) *discovery.ConsulRegistrar {
	if !cfg.Consul.Enabled() {
		return nil
	}

	registrar, err := discovery.NewConsulRegistrar(cfg.Consul)
	if err != nil {
		log.Error().Err(err).Msg("failed to create consul registrar")
		return nil
	}

	if err := registrar.Register(cfg.ServiceName, cfg.HTTPAddr, handler.HealthPath, cfg.Consul); err != nil {
		log.Error().Err(err).Msg("failed to register with consul")
		return nil
	}

	log.Info().Str("consul", cfg.Consul.Address).Msg("registered with consul")
	return registrar
}
