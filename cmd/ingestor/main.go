package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"review_dashboard/internal/adapters/hostaway"
	"review_dashboard/internal/adapters/observability"
	redisad "review_dashboard/internal/adapters/redis"
	"review_dashboard/internal/app"
	"review_dashboard/internal/domain"
	"review_dashboard/internal/shared"
	mysqlrepo "review_dashboard/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.HostawayBase).
		Int("workers", cfg.Workers).
		Int("page_size", cfg.PageSize).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := hostaway.New(cfg.HostawayBase, cfg.HostawayToken, cfg.HostawayAccount, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Hostaway client")
	}
	sample, err := hostaway.SampleReviews()
	if err != nil {
		log.Fatal().Err(err).Msg("bundled sample dataset is broken")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	ing := app.NewIngestionService(client, repo, cache, sample)
	n, err := ing.IngestAll(ctx, cfg.PageSize, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("ingestion failed")
	}
	log.Info().Int("reviews", n).Msg("ingestion completed")

	// Warm the per-property review caches so the first dashboard loads
	// after an ingest run don't all fan out to MySQL.
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	perf, err := q.PropertyPerformance(ctx, time.Now())
	if err != nil {
		log.Warn().Err(err).Msg("performance precompute failed")
		return
	}

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup
	for _, p := range perf {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(propertyID string) {
			defer wg.Done()
			defer sem.Release(int64(1))

			if _, err := q.ListReviews(ctx, domain.ReviewsQuery{PropertyID: &propertyID}); err != nil {
				log.Warn().Str("property", propertyID).Err(err).Msg("cache warm failed")
				return
			}
			log.Info().Str("property", propertyID).Msg("cache warm ok")
		}(p.PropertyID)
	}

	wg.Wait()
	log.Info().Int("properties", len(perf)).Msg("cache warm completed")
}
