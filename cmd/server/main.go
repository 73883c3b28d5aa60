package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"inscrito/internal/audit"
	eventHandler "inscrito/internal/event/handler"
	eventService "inscrito/internal/event/service"
	eventStore "inscrito/internal/event/store"
	"inscrito/internal/gateway"
	router "inscrito/internal/http"
	inscriptionHandler "inscrito/internal/inscription/handler"
	inscriptionService "inscrito/internal/inscription/service"
	inscriptionStore "inscrito/internal/inscription/store"
	"inscrito/internal/jwttoken"
	paymentHandler "inscrito/internal/payment/handler"
	paymentService "inscrito/internal/payment/service"
	paymentStore "inscrito/internal/payment/store"
	"inscrito/internal/platform/config"
	"inscrito/internal/platform/database"
	"inscrito/internal/platform/httpserver"
	"inscrito/internal/platform/logger"
	"inscrito/internal/platform/metrics"
	platformredis "inscrito/internal/platform/redis"
	userStore "inscrito/internal/user/store"
)

func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Error("failed to open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Error("failed to run migrations", "error", err.Error())
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()

	var auditor audit.Publisher = audit.Noop{}
	var kafkaPublisher *audit.KafkaPublisher
	if cfg.Kafka.Enabled() {
		kafkaPublisher, err = audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err.Error())
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		auditor = kafkaPublisher
	}
	enriched := audit.Enrich(auditor)

	events := eventStore.NewPostgres(db)
	inscriptions := inscriptionStore.NewPostgres(db)
	payments := paymentStore.NewPostgres(db)
	users := userStore.NewPostgres(db)

	eventOpts := []eventService.Option{
		eventService.WithLogger(log),
		eventService.WithMetrics(m),
		eventService.WithAuditPublisher(enriched),
	}
	if redisClient != nil {
		eventOpts = append(eventOpts,
			eventService.WithListCache(eventStore.NewListCache(redisClient, 30*time.Second, log)))
	}
	eventSvc := eventService.New(events, eventOpts...)

	inscriptionSvc := inscriptionService.New(inscriptions, events, users,
		inscriptionService.WithLogger(log),
		inscriptionService.WithMetrics(m),
		inscriptionService.WithAuditPublisher(enriched),
	)

	gatewayClient := gateway.NewHTTPClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey,
		gateway.WithHTTPTimeout(cfg.Gateway.Timeout),
		gateway.WithLogger(log),
		gateway.WithMetrics(m),
	)

	paymentOpts := []paymentService.Option{
		paymentService.WithLogger(log),
		paymentService.WithMetrics(m),
		paymentService.WithAuditPublisher(enriched),
		paymentService.WithDueDateOffset(cfg.Gateway.DueDateOffset),
	}
	if redisClient != nil {
		paymentOpts = append(paymentOpts,
			paymentService.WithWebhookLedger(paymentStore.NewWebhookLedger(redisClient, 7*24*time.Hour, log)))
	}
	paymentSvc := paymentService.New(payments, inscriptions, events, users, gatewayClient, paymentOpts...)

	eventH := eventHandler.New(eventSvc, log)
	inscriptionH := inscriptionHandler.New(inscriptionSvc, log)
	paymentH := paymentHandler.New(paymentSvc, log)

	deps := router.Deps{
		Logger:           log,
		Metrics:          m,
		TokenAuth:        jwttoken.New(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer),
		WebhookTokenHash: cfg.Auth.WebhookTokenHash,
		Public:           []router.PublicRegistrar{eventH, inscriptionH, paymentH},
		User:             []router.UserRegistrar{inscriptionH},
		Organizer:        []router.OrganizerRegistrar{eventH, inscriptionH, paymentH},
		Webhook:          []router.WebhookRegistrar{paymentH},
		DB:               db,
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}
	r := router.New(deps)

	server := httpserver.New(cfg.HTTP.Addr, r)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if kafkaPublisher != nil {
		group.Go(func() error {
			return kafkaPublisher.Run(groupCtx)
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}
