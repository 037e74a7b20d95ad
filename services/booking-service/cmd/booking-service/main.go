package main

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/libs/inbox"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/md-rashed-zaman/barberbook/libs/kv"
	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
	"github.com/md-rashed-zaman/barberbook/libs/outbox"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/booking"
	bookingconfig "github.com/md-rashed-zaman/barberbook/services/booking-service/internal/config"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/directory"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/handoff"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/slotcache"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
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

	settings, err := bookingconfig.Load()
	if err != nil {
		panic(err)
	}
	loc, err := settings.Location()
	if err != nil {
		panic(err)
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.PoolOptions{MaxConns: int32(config.Int("DB_MAX_CONNS", 10))})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	store, kvReady, closeKV := kv.FromEnv("booking")
	defer func() { _ = closeKV() }()

	brokers := config.String("KAFKA_BROKERS", "")
	outboxRepo := outbox.NewRepository()
	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go publisher.Run(ctx)

	directoryRepo := storage.NewDirectoryRepository(pool)
	if brokers != "" {
		consumer := inbox.NewConsumer(logger, inbox.NewRepository(pool), inbox.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", "booking-service"),
			Topics:  directory.Topics(),
		}, directory.Handler(directoryRepo, logger))
		go consumer.Run(ctx)
	} else {
		logger.Warn("barber directory consumer disabled (no kafka brokers configured)")
	}

	handoffStore := handoff.New(store, settings.HandoffTTL)
	svc := booking.NewService(
		storage.NewAppointmentRepository(pool, outboxRepo),
		directoryRepo,
		slotcache.New(settings.SlotCacheSize, settings.SlotCacheTTL),
		handoffStore,
		logger,
		booking.Config{
			Hours:             settings.Hours(),
			BookingWindowDays: settings.BookingWindowDays,
			Location:          loc,
		},
	)

	if err := startGrpcServer(ctx, logger, pool); err != nil {
		logger.Error("grpc server failed to start", "err", err)
		panic(err)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "redis", Check: kvReady},
		runtime.ReadyCheck{Name: "kafka", Check: kafkaCheck(brokers)},
	)
	handlers.New(svc, handoffStore, logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
	)
	runtime.Serve(ctx, runtime.NewServer(port, otelhttp.NewHandler(handler, "booking")), logger)
}

func kafkaCheck(brokers string) func(context.Context) error {
	if brokers == "" {
		return nil
	}
	return kafkax.ReadyCheck(brokers)
}
