package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v4"
	log "github.com/sirupsen/logrus"
)

type MigrationExecutor struct {
	connection        *pgx.Conn
	directoryName     string
	migrationFileList []string
}

func NewMigrationExecutor(connection *pgx.Conn, directoryName string) (*MigrationExecutor, error) {
	migrationFileList, err := listMigrationFiles(directoryName)

	if err != nil {
		return nil, err
	}

	return &MigrationExecutor{connection, directoryName, migrationFileList}, nil
}

func listMigrationFiles(directoryName string) ([]string, error) {
	entryList, err := os.ReadDir(directoryName)

	if err != nil {
		return nil, err
	}

	migrationFileList := make([]string, 0, len(entryList))

	for _, entry := range entryList {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			migrationFileList = append(migrationFileList, entry.Name())
		}
	}

	return migrationFileList, nil
}

// findMigrationFile returns the file for a migration number and direction, or "".
func findMigrationFile(migrationFileList []string, migrationNumber int, reverse bool) string {
	for _, filename := range migrationFileList {
		splitList := strings.Split(filename, "_")
		fileMigrationNumber, err := strconv.Atoi(splitList[0])

		if err != nil {
			continue
		}

		isReverseFile := splitList[len(splitList)-1] == "reverse.sql"

		if migrationNumber == fileMigrationNumber && reverse == isReverseFile {
			return filename
		}
	}

	return ""
}

// splitStatements splits a migration file into statements.
//
// SQL functions in migration files won't work, as their bodies contain `;`.
func splitStatements(content string) []string {
	var statementList []string

	for _, statement := range strings.Split(content, ";\n") {
		if statement = strings.TrimSpace(statement); statement != "" {
			statementList = append(statementList, statement)
		}
	}

	return statementList
}

func (executor *MigrationExecutor) CreateMigrationTable(ctx context.Context) error {
	_, err := executor.connection.Exec(
		ctx,
		"CREATE TABLE IF NOT EXISTS stocker_migration (id serial, migration_number integer NOT NULL UNIQUE);",
	)

	return err
}

func (executor *MigrationExecutor) CurrentMigration(ctx context.Context) (int, error) {
	row := executor.connection.QueryRow(
		ctx,
		"SELECT COALESCE(MAX(migration_number), 0) FROM stocker_migration;",
	)

	var migrationNumber int32
	err := row.Scan(&migrationNumber)

	return int(migrationNumber), err
}

// applyMigration applies one migration, returning true when there is no file for it.
func (executor *MigrationExecutor) applyMigration(ctx context.Context, migrationNumber int, reverse bool) (bool, error) {
	filename := findMigrationFile(executor.migrationFileList, migrationNumber, reverse)

	if filename == "" {
		return true, nil
	}

	path := filepath.Join(executor.directoryName, filename)
	log.WithFields(log.Fields{"file": path, "reverse": reverse}).Info("Applying migration")

	content, err := os.ReadFile(path)

	if err != nil {
		return false, err
	}

	batch := &pgx.Batch{}

	for _, statement := range splitStatements(string(content)) {
		batch.Queue(statement)
	}

	if reverse {
		batch.Queue("DELETE FROM stocker_migration WHERE migration_number = $1;", migrationNumber)
	} else {
		batch.Queue(
			"INSERT INTO stocker_migration (migration_number) VALUES ($1) ON CONFLICT DO NOTHING;",
			migrationNumber,
		)
	}

	results := executor.connection.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return false, err
		}
	}

	return false, nil
}

// ApplyMigrations moves the database forwards or backwards to `selectedMigrationNumber`.
func (executor *MigrationExecutor) ApplyMigrations(ctx context.Context, selectedMigrationNumber int) error {
	if err := executor.CreateMigrationTable(ctx); err != nil {
		return err
	}

	currentMigrationNumber, err := executor.CurrentMigration(ctx)

	if err != nil {
		return err
	}

	if selectedMigrationNumber < currentMigrationNumber {
		for i := currentMigrationNumber; i > selectedMigrationNumber; i-- {
			if stop, err := executor.applyMigration(ctx, i, true); err != nil || stop {
				return err
			}
		}

		return nil
	}

	for i := currentMigrationNumber + 1; i <= selectedMigrationNumber; i++ {
		if stop, err := executor.applyMigration(ctx, i, false); err != nil || stop {
			return err
		}
	}

	return nil
}
