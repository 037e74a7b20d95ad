package main

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/md-rashed-zaman/barberbook/libs/kv"
	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
	"github.com/md-rashed-zaman/barberbook/libs/outbox"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/accounts"
	authconfig "github.com/md-rashed-zaman/barberbook/services/auth-service/internal/config"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/handlers"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/sessions"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/storage"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/tokens"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "auth-service")
	port, err := config.Port("PORT", "8081")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	settings, err := authconfig.Load()
	if err != nil {
		panic(err)
	}
	signer, err := buildSigner(settings)
	if err != nil {
		logger.Error("failed to init jwt signer", "err", err)
		panic(err)
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	store, kvReady, closeKV := kv.FromEnv("auth")
	defer func() { _ = closeKV() }()

	brokers := config.String("KAFKA_BROKERS", "")
	outboxRepo := outbox.NewRepository()
	go outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	}).Run(ctx)

	svc := accounts.NewService(
		storage.NewUserRepository(pool, outboxRepo),
		sessions.NewRefreshRepository(pool),
		sessions.NewMirror(store, settings.SessionMirrorTTL),
		signer,
		logger,
		accounts.Config{
			AdminCode:  settings.AdminSignupCode,
			AccessTTL:  settings.AccessTTL,
			RefreshTTL: settings.RefreshTTL,
			BcryptCost: settings.BcryptCost,
		},
	)

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "redis", Check: kvReady},
	}
	if brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.NewAuthHandler(svc, signer, logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
	)
	runtime.Serve(ctx, runtime.NewServer(port, otelhttp.NewHandler(handler, "auth")), logger)
}

func buildSigner(s authconfig.Settings) (tokens.Signer, error) {
	if s.JWTPrivateKeysPEM == "" {
		return tokens.NewHS256(s.JWTSecret), nil
	}
	ring, err := tokens.NewKeyRing(s.JWTPrivateKeysPEM, s.JWTActiveKid)
	if err != nil {
		return nil, err
	}
	ring.SetRotateKey(s.JWTRotateKey)
	return ring, nil
}
