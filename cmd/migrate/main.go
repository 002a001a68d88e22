// Migrate the database from one state to another
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/database"
	"github.com/jackc/pgx/v4"
	log "github.com/sirupsen/logrus"
)

func parseSelectedMigration(args []string) (int, error) {
	if len(args) > 1 {
		return 0, fmt.Errorf("too many arguments")
	}

	if len(args) == 0 {
		return math.MaxInt32, nil
	}

	selectedMigration, err := strconv.Atoi(args[0])

	if err != nil || selectedMigration < 0 {
		return 0, fmt.Errorf("invalid migration number: %s", args[0])
	}

	return selectedMigration, nil
}

func main() {
	selectedMigration, err := parseSelectedMigration(os.Args[1:])

	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: migrate [N]: %s\n", err)
		os.Exit(1)
	}

	cfg := config.MustLoad()

	if cfg.Database.Driver != "postgres" {
		log.Fatalf("SQL migrations are for DB_DRIVER=postgres, %s creates its tables on connect", cfg.Database.Driver)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, database.PostgresURL(cfg.Database))

	if err != nil {
		log.Fatalf("Connection error: %s", err)
	}

	defer conn.Close(ctx)

	executor, err := NewMigrationExecutor(conn, "migrations")

	if err != nil {
		log.Fatalf("Error loading migrations: %s", err)
	}

	if err := executor.ApplyMigrations(ctx, selectedMigration); err != nil {
		log.Fatalf("Error applying migration: %s", err)
	}
}
