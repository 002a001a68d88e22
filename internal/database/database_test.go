package database

import (
	"net/url"
	"path/filepath"
	"testing"

	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/model"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	dsn := SQLiteDSN("stocker.db")

	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "_foreign_keys=1")
}

func TestPostgresURLEscapesCredentials(t *testing.T) {
	raw := PostgresURL(config.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		Name:     "stocker",
		Username: "app",
		Password: "p@ss/w:rd?",
		SSLMode:  "disable",
	})

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	password, _ := parsed.User.Password()
	assert.Equal(t, "postgres", parsed.Scheme)
	assert.Equal(t, "app", parsed.User.Username())
	assert.Equal(t, "p@ss/w:rd?", password)
	assert.Equal(t, "db:5432", parsed.Host)
	assert.Equal(t, "/stocker", parsed.Path)
	assert.Equal(t, "disable", parsed.Query().Get("sslmode"))
}

func TestAutoMigrates(t *testing.T) {
	assert.False(t, AutoMigrates("postgres"))
	assert.True(t, AutoMigrates("mysql"))
	assert.True(t, AutoMigrates("sqlite"))
}

func TestConnectCreatesSQLiteTables(t *testing.T) {
	db, err := Connect(config.DatabaseConfig{
		Driver:       "sqlite",
		Name:         filepath.Join(t.TempDir(), "stocker.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = Close(db)
	})

	for _, table := range Models {
		assert.True(t, db.Migrator().HasTable(table))
	}

	var count int64
	require.NoError(t, db.Model(&model.Stock{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormWriterLogsWarnings(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	gormWriter{}.Printf("%s [%.3fms] %s", "database is locked", 1.5, "UPDATE portfolio")

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "database is locked")
}
