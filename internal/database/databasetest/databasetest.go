// Package databasetest provides throwaway databases for tests.
package databasetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/dense-analysis/stocker/internal/database"
	"github.com/dense-analysis/stocker/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open creates a private in-memory database with all tables migrated.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and avoids
	// shared cache table locks between connections.
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))

	return db
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string, role model.Role) model.User {
	t.Helper()

	user := model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
		Role:     role,
	}
	require.NoError(t, model.CreateUser(context.Background(), db, &user))

	return user
}

// CreateStock inserts a stock with the given price.
func CreateStock(t *testing.T, db *gorm.DB, symbol string, price string) model.Stock {
	t.Helper()

	stock := model.Stock{
		Symbol:    symbol,
		Name:      symbol + " Inc.",
		Price:     decimal.RequireFromString(price),
		MarketCap: decimal.NewFromInt(1_000_000),
		Sector:    "Technology",
		Industry:  "Software",
	}
	require.NoError(t, model.CreateStock(context.Background(), db, &stock))

	return stock
}

// SetPrice changes the current price of a stock.
func SetPrice(t *testing.T, db *gorm.DB, stock *model.Stock, price string) {
	t.Helper()

	stock.Price = decimal.RequireFromString(price)
	require.NoError(t, model.UpdateStockPrice(context.Background(), db, stock.ID, stock.Price))
}
