// Package database wraps the database implementation used for Stocker.
package database

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/model"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table managed by the application, in creation order.
var Models = []any{
	&model.User{},
	&model.Stock{},
	&model.Transaction{},
	&model.Portfolio{},
}

// Dialector returns the gorm dialector for the configured driver.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.Username,
			cfg.Password,
			cfg.Name,
			cfg.Port,
			cfg.SSLMode,
		)), nil
	case "mysql":
		return mysql.Open(fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.Username,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Name,
		)), nil
	case "sqlite":
		return sqlite.Open(SQLiteDSN(cfg.Name)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SQLiteDSN returns the DSN for a sqlite database file.
//
// Transactions take the write lock when they begin and wait up to 5s for it,
// so concurrent trades queue instead of failing with SQLITE_BUSY.
func SQLiteDSN(name string) string {
	return name + "?_foreign_keys=1&_busy_timeout=5000&_txlock=immediate"
}

// PostgresURL returns the connection URL used by the pgx tools.
func PostgresURL(cfg config.DatabaseConfig) string {
	postgresURL := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}

	return postgresURL.String()
}

// AutoMigrates reports if Connect creates the tables for a driver.
//
// Postgres schemas are managed with the SQL files in migrations/.
func AutoMigrates(driver string) bool {
	return driver != "postgres"
}

// Connect connects to the database with the project configuration.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)

	if err != nil {
		return nil, err
	}

	db, err := Open(dialector)

	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()

	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	if AutoMigrates(cfg.Driver) {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// Open opens a gorm connection with the settings every Stocker program uses.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(gormWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// gormWriter logs gorm's slow query and error messages as warnings.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...any) {
	log.Warnf(format, args...)
}

// Migrate creates or updates the tables from the model definitions.
func Migrate(db *gorm.DB) error {
	log.Debug("Running AutoMigrate")

	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()

	if err != nil {
		return err
	}

	return sqlDB.Close()
}
