// Read stock quotes from the price feed into the database
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/database"
	"github.com/dense-analysis/stocker/internal/quote"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ingester struct {
	db      *gorm.DB
	source  quote.Source
	cache   quote.Cache
	timeout time.Duration
}

func (ingester *ingester) run() {
	ctx, cancel := context.WithTimeout(context.Background(), ingester.timeout)
	defer cancel()

	start := time.Now()
	updated, err := quote.Ingest(ctx, ingester.db, ingester.source, ingester.cache)

	if err != nil {
		log.WithError(err).Error("ingest failed")

		return
	}

	log.WithFields(log.Fields{
		"updated":  updated,
		"duration": time.Since(start).String(),
	}).Info("ingest finished")
}

func main() {
	cfg := config.MustLoad()

	db, err := database.Connect(cfg.Database)

	if err != nil {
		log.Fatalf("Connection error: %s", err)
	}

	defer func() {
		_ = database.Close(db)
	}()

	client, err := quote.NewClient(cfg.Quote)

	if err != nil {
		log.Fatalf("Quote feed error: %s", err)
	}

	ingester := &ingester{db: db, source: client, timeout: time.Minute}

	redisCache, err := quote.ConnectRedis(context.Background(), cfg.Redis)

	if err != nil {
		log.Fatalf("Redis error: %s", err)
	}

	if redisCache != nil {
		defer redisCache.Close()
		ingester.cache = redisCache
	}

	if cfg.Quote.Schedule == "" {
		ingester.run()

		return
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	if _, err := scheduler.AddFunc(cfg.Quote.Schedule, ingester.run); err != nil {
		log.Fatalf("Invalid INGEST_SCHEDULE %q: %s", cfg.Quote.Schedule, err)
	}

	scheduler.Start()
	log.WithField("schedule", cfg.Quote.Schedule).Info("ingest scheduler started")

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	<-scheduler.Stop().Done()
	log.Info("ingest scheduler stopped")
}
