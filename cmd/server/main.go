package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"riskgate/internal/platform/config"
	"riskgate/internal/platform/httpserver"
	"riskgate/internal/platform/kafka/consumer"
	"riskgate/internal/platform/kafka/producer"
	"riskgate/internal/platform/logger"
	"riskgate/internal/platform/redis"
	"riskgate/internal/supervision/handler"
	supervision "riskgate/internal/supervision/service"
	vconsumer "riskgate/internal/validation/consumer"
	"riskgate/internal/validation/events"
	"riskgate/internal/validation/fraud"
	"riskgate/internal/validation/history"
	"riskgate/internal/validation/limits"
	"riskgate/internal/validation/metrics"
	"riskgate/internal/validation/pipeline"
	"riskgate/internal/validation/publisher"
	"riskgate/internal/validation/store/request"
	"riskgate/internal/validation/sweeper"
	"riskgate/pkg/platform/middleware/admin"
)

// main wires the pipeline and keeps the process lifecycle small. Business
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		log.Error("store init failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	prod, err := producer.New(cfg.Kafka)
	if err != nil {
		log.Error("kafka producer init failed", "error", err)
		os.Exit(1)
	}
	defer prod.Close()

	fraudCfg := fraudConfig(cfg.Decision)
	engine := fraud.NewEngine(fraudCfg)
	txEval := fraud.NewTransactionEvaluator(fraudCfg)
	calculator := limits.NewCalculator(limits.AgencyClasses{
		Premium: toSet(cfg.Decision.PremiumAgencies),
		Rural:   toSet(cfg.Decision.RuralAgencies),
	})
	hist := history.New(store, redisClient, log)
	pub := publisher.New(prod)
	m := metrics.New()

	pipe, err := pipeline.New(store, engine, txEval, calculator, hist, pub, pub,
		pipeline.WithLogger(log),
		pipeline.WithMetrics(m),
		pipeline.WithConfig(pipeline.Config{
			AutoRejectThreshold: cfg.Decision.AutoRejectThreshold,
			RetentionWindow:     cfg.Decision.RetentionWindow,
		}),
	)
	if err != nil {
		log.Error("pipeline init failed", "error", err)
		os.Exit(1)
	}

	router := vconsumer.NewRouter(log)
	router.Register(events.TopicValidationRequests, vconsumer.NewValidationHandler(pipe, log))
	router.Register(events.TopicTransactionRequests, vconsumer.NewTransactionHandler(pipe, log))

	cons, err := consumer.New(cfg.Kafka,
		[]string{events.TopicValidationRequests, events.TopicTransactionRequests},
		router, log)
	if err != nil {
		log.Error("kafka consumer init failed", "error", err)
		os.Exit(1)
	}

	sweep := sweeper.New(store, pipe, cfg.Decision.SweepInterval, log)

	supSvc, err := supervision.New(store, pipe, supervision.WithLogger(log))
	if err != nil {
		log.Error("supervision service init failed", "error", err)
		os.Exit(1)
	}

	srv := httpserver.New(cfg.Addr, buildRouter(cfg, log, supSvc, redisClient))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return cons.Run(gctx) })
	g.Go(func() error { return sweep.Run(gctx) })
	g.Go(func() error {
		log.Info("starting riskgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutting down with error", "error", err)
		os.Exit(1)
	}
	log.Info("riskgate stopped")
}

func buildRouter(cfg config.Config, log *slog.Logger, supSvc *supervision.Service, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(req.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	supHandler := handler.New(supSvc, log)
	r.Group(func(gr chi.Router) {
		gr.Use(admin.RequireAdminToken(cfg.AdminToken, log))
		supHandler.RegisterAdmin(gr)
	})
	return r
}

func buildStore(ctx context.Context, cfg config.Config) (request.Store, func(), error) {
	if cfg.PostgresURL == "" {
		return request.NewInMemory(), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, nil, err
	}
	if _, err := pool.Exec(ctx, request.Schema); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return request.NewPostgres(pool), pool.Close, nil
}

func fraudConfig(d config.Decision) fraud.Config {
	cfg := fraud.DefaultConfig()
	cfg.ManualReviewThreshold = d.ManualReviewThreshold
	cfg.EmailVelocityMax24h = d.EmailVelocityMax24h
	cfg.BusinessHourStart = d.BusinessHourStart
	cfg.BusinessHourEnd = d.BusinessHourEnd
	if len(d.HighRiskAgencies) > 0 {
		cfg.HighRiskAgencies = toSet(d.HighRiskAgencies)
	}
	return cfg
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
