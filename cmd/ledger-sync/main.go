// Copy new ledger entries into ClickHouse for reporting
package main

import (
	"context"

	"github.com/dense-analysis/stocker/internal/accounting"
	"github.com/dense-analysis/stocker/internal/analytics"
	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/database"
	"github.com/dense-analysis/stocker/internal/env"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.MustLoad()
	ctx := context.Background()

	db, err := database.Connect(cfg.Database)

	if err != nil {
		log.Fatalf("Connection error: %s", err)
	}

	defer func() {
		_ = database.Close(db)
	}()

	conn, err := analytics.Connect(ctx, cfg.ClickHouse)

	if err != nil {
		log.Fatalf("ClickHouse connection error: %s", err)
	}

	defer func() {
		_ = conn.Close()
	}()

	if err := conn.EnsureTable(ctx); err != nil {
		log.Fatalf("ClickHouse error: %s", err)
	}

	copied, err := analytics.Sync(ctx, accounting.New(db), conn, env.GetInt("LEDGER_SYNC_PAGE_SIZE", analytics.DefaultPageSize))

	if err != nil {
		log.WithField("copied", copied).Fatalf("Ledger sync error: %s", err)
	}

	log.WithField("copied", copied).Info("ledger sync finished")
}
