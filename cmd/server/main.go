package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"resultgate/internal/platform/config"
	"resultgate/internal/platform/httpserver"
	"resultgate/internal/platform/logger"
	platformredis "resultgate/internal/platform/redis"
	"resultgate/internal/results/engine"
	resulthandler "resultgate/internal/results/handler"
	"resultgate/internal/results/metrics"
	"resultgate/internal/results/models"
	"resultgate/internal/results/registry"
	"resultgate/internal/results/source/postgres"
	"resultgate/internal/results/source/rediscache"
	"resultgate/internal/results/source/webapi"
	"resultgate/internal/results/stats"
	httptransport "resultgate/internal/transport/http"
	"resultgate/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/results packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	m := metrics.New()
	agg := stats.New(stats.WithMetrics(m))

	var entries []registry.Entry

	primaryDB, err := openDB(cfg.Primary.DSN)
	if err != nil {
		log.Error("primary store unavailable", "error", err)
		os.Exit(1)
	}
	defer primaryDB.Close()

	primary, err := postgres.New("supabase-primary", primaryDB,
		postgres.WithTimeout(cfg.Primary.Timeout),
	)
	if err != nil {
		log.Error("build primary source", "error", err)
		os.Exit(1)
	}
	entries = append(entries, registry.Entry{
		Descriptor: models.SourceDescriptor{
			ID:       primary.ID(),
			Kind:     models.KindPrimaryStore,
			Priority: cfg.Primary.Priority,
		},
		Adapter: primary,
	})

	// The secondary store carries CGPA rows, so it doubles as the
	// enrichment source for hits that come back without a CGPA.
	if cfg.Secondary.DSN != "" {
		secondaryDB, err := openDB(cfg.Secondary.DSN)
		if err != nil {
			log.Error("secondary store unavailable", "error", err)
			os.Exit(1)
		}
		defer secondaryDB.Close()

		secondary, err := postgres.New("supabase-secondary", secondaryDB,
			postgres.WithTimeout(cfg.Secondary.Timeout),
			postgres.WithEmbeddedCGPA(),
		)
		if err != nil {
			log.Error("build secondary source", "error", err)
			os.Exit(1)
		}
		entries = append(entries, registry.Entry{
			Descriptor: models.SourceDescriptor{
				ID:           secondary.ID(),
				Kind:         models.KindFallbackStore,
				Priority:     cfg.Secondary.Priority,
				Capabilities: models.Capabilities{SupportsCGPA: true},
			},
			Adapter: secondary,
		})
	}

	engineOpts := []engine.Option{
		engine.WithLogger(log),
		engine.WithMetrics(m),
		engine.WithGlobalDeadline(cfg.GlobalDeadline),
	}
	if cfg.Breaker.FailureThreshold > 0 {
		engineOpts = append(engineOpts, engine.WithCircuitBreakers(
			circuit.WithFailureThreshold(cfg.Breaker.FailureThreshold),
			circuit.WithSuccessThreshold(cfg.Breaker.SuccessThreshold),
			circuit.WithCooldown(cfg.Breaker.Cooldown),
		))
	}

	redisClient, err := platformredis.New(cfg.Cache)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()

		cache, err := rediscache.New("redis-cache", redisClient.Client,
			rediscache.WithTimeout(cfg.Cache.Timeout),
			rediscache.WithRecordTTL(cfg.Cache.RecordTTL),
		)
		if err != nil {
			log.Error("build cache source", "error", err)
			os.Exit(1)
		}
		entries = append(entries, registry.Entry{
			Descriptor: models.SourceDescriptor{
				ID:       cache.ID(),
				Kind:     models.KindFallbackStore,
				Priority: cfg.Cache.Priority,
			},
			Adapter: cache,
		})
		engineOpts = append(engineOpts, engine.WithRecordCache(cache))
	}

	if cfg.WebAPI.BaseURL != "" {
		web, err := webapi.New("btebresulthub", cfg.WebAPI.BaseURL,
			webapi.WithAPIKey(cfg.WebAPI.APIKey),
			webapi.WithTimeout(cfg.WebAPI.Timeout),
		)
		if err != nil {
			log.Error("build web fallback", "error", err)
			os.Exit(1)
		}
		entries = append(entries, registry.Entry{
			Descriptor: models.SourceDescriptor{
				ID:       web.ID(),
				Kind:     models.KindWebAPI,
				Priority: 100,
			},
			Adapter: web,
		})
	}

	reg, err := registry.New(entries)
	if err != nil {
		log.Error("build source registry", "error", err)
		os.Exit(1)
	}

	eng, err := engine.New(reg, agg, engineOpts...)
	if err != nil {
		log.Error("build resolution engine", "error", err)
		os.Exit(1)
	}

	handler := resulthandler.New(eng, reg, agg, log)
	router := httptransport.NewRouter(handler)

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting resultgate",
		"addr", cfg.Server.Addr,
		"sources", len(reg.OrderedSources()),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
