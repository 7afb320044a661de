package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	zlog "github.com/rs/zerolog/log"

	"github.com/apothio/storefront-reco/internal/application/affinity"
	"github.com/apothio/storefront-reco/internal/application/reco"
	"github.com/apothio/storefront-reco/internal/application/recocache"
	"github.com/apothio/storefront-reco/internal/config"
	rediscache "github.com/apothio/storefront-reco/internal/infrastructure/caching/redis"
	"github.com/apothio/storefront-reco/internal/infrastructure/db/postgres"
	"github.com/apothio/storefront-reco/internal/infrastructure/messaging/rabbitmq"
	"github.com/apothio/storefront-reco/internal/jobs"
	"github.com/apothio/storefront-reco/internal/logger"
	"github.com/apothio/storefront-reco/internal/transport/http/handlers"
	authmw "github.com/apothio/storefront-reco/internal/transport/http/middleware"
	"github.com/apothio/storefront-reco/internal/transport/http/router"
)

// sysClock supplies real time to every component that takes a Clock.
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("db open failed")
	}
	defer db.Close()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			zlog.Fatal().Err(err).Msg("db ping failed")
		}
	}

	// Repositories
	interactions := postgres.NewInteractionRepo(db)
	affinities := postgres.NewAffinityRepo(db)
	products := postgres.NewProductRepo(db)

	clock := sysClock{}

	// Application
	agg := affinity.New(interactions, affinities, clock, cfg.AffinityHalfLifeDays)
	ranker := reco.New(affinities, products, clock, cfg.RecoTimeout)

	// Cache store: Redis when configured, in-process otherwise.
	var store recocache.Store = recocache.NewMemStore()
	if cfg.RedisURL != "" {
		rc, err := rediscache.New(cfg.RedisURL)
		if err != nil {
			zlog.Fatal().Err(err).Msg("redis init failed")
		}
		defer rc.Close()
		store = rc
		zlog.Info().Msg("redis cache ready")
	} else {
		zlog.Warn().Msg("REDIS_URL empty: using in-process cache")
	}
	cache := recocache.New(store, ranker, products, clock, cfg.RecsCacheTTL)

	// Messaging: publisher for the ingest handler, consumer keeping
	// profiles warm after purchases.
	var pub handlers.EventPublisher = handlers.NoopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			zlog.Fatal().Err(err).Msg("rabbit publisher init failed")
		}
		defer p.Close()
		pub = p
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: interaction events will not be published")
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.RabbitURL != "" {
		consumer := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, agg, cache)
		go consumer.Start(rootCtx)
	}

	go jobs.NewRefresher(agg, cache, cfg.RefreshInterval).Run(rootCtx)

	// Transport
	ih := handlers.NewInteractionsHandler(interactions, pub)
	rh := handlers.NewRecommendationsHandler(ranker)
	fh := handlers.NewRefreshHandler(agg, cache)
	auth := authmw.NewAuth(cfg.JWTSecret, cfg.JWTIssuer)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router.New(ih, rh, fh, auth, cfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		zlog.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("server crashed")
		}
	}

	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error().Err(err).Msg("shutdown incomplete")
	}
}
