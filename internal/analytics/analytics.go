// Package analytics mirrors the trading ledger into ClickHouse for reporting.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/model"
	"github.com/shopspring/decimal"
)

type Conn struct {
	chConn clickhouse.Conn
}

type Row interface {
	Scan(dest ...any) error
}

type Batch interface {
	Append(values ...any) error
	Send() error
}

// Connect connects to ClickHouse with the project configuration.
func Connect(ctx context.Context, cfg config.ClickHouseConfig) (*Conn, error) {
	address := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{address},
		Auth: clickhouse.Auth{
			Database: cfg.Name,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: time.Second * 5,
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, err
	}

	return &Conn{chConn: conn}, nil
}

// Close closes a database connection.
func (conn *Conn) Close() error {
	return conn.chConn.Close()
}

// Exec executes a database query.
func (conn *Conn) Exec(ctx context.Context, sql string, arguments ...any) error {
	return conn.chConn.Exec(ctx, sql, arguments...)
}

// QueryRow executes a database query returning Row data.
func (conn *Conn) QueryRow(ctx context.Context, sql string, arguments ...any) Row {
	return conn.chConn.QueryRow(ctx, sql, arguments...)
}

// PrepareBatch prepares an insert batch for ClickHouse.
func (conn *Conn) PrepareBatch(ctx context.Context, sql string) (Batch, error) {
	return conn.chConn.PrepareBatch(ctx, sql)
}

const ledgerTable = `
CREATE TABLE IF NOT EXISTS stocker_ledger (
	id UInt64,
	user_id UInt64,
	stock_id UInt64,
	symbol LowCardinality(String),
	action LowCardinality(String),
	quantity Int64,
	price Decimal(20, 8),
	notional Decimal(38, 8),
	status LowCardinality(String),
	transaction_date DateTime64(6, 'UTC')
)
ENGINE = ReplacingMergeTree
PARTITION BY toYYYYMM(transaction_date)
ORDER BY id
`

// EnsureTable creates the ledger table if it doesn't exist yet.
func (conn *Conn) EnsureTable(ctx context.Context) error {
	return conn.Exec(ctx, ledgerTable)
}

// LastMirroredID returns the highest ledger ID copied so far, or 0.
func (conn *Conn) LastMirroredID(ctx context.Context) (uint64, error) {
	var id uint64

	if err := conn.QueryRow(ctx, "SELECT max(id) FROM stocker_ledger").Scan(&id); err != nil {
		return 0, err
	}

	return id, nil
}

// LedgerRow is a ledger entry as stored in ClickHouse.
type LedgerRow struct {
	ID              uint64
	UserID          uint64
	StockID         uint64
	Symbol          string
	Action          string
	Quantity        int64
	Price           decimal.Decimal
	Notional        decimal.Decimal
	Status          string
	TransactionDate time.Time
}

// NewLedgerRow converts a ledger entry. The entry's Stock must be loaded.
func NewLedgerRow(transaction *model.Transaction) LedgerRow {
	return LedgerRow{
		ID:              uint64(transaction.ID),
		UserID:          uint64(transaction.UserID),
		StockID:         uint64(transaction.StockID),
		Symbol:          transaction.Stock.Symbol,
		Action:          string(transaction.Action),
		Quantity:        transaction.Quantity,
		Price:           transaction.Price,
		Notional:        transaction.Total(),
		Status:          string(transaction.Status),
		TransactionDate: transaction.TransactionDate.UTC(),
	}
}

// AppendLedger copies ledger entries in one batch.
func (conn *Conn) AppendLedger(ctx context.Context, transactionList []model.Transaction) error {
	if len(transactionList) == 0 {
		return nil
	}

	batch, err := conn.PrepareBatch(
		ctx,
		`INSERT INTO stocker_ledger
			(id, user_id, stock_id, symbol, action, quantity, price, notional, status, transaction_date)`,
	)

	if err != nil {
		return err
	}

	for i := range transactionList {
		row := NewLedgerRow(&transactionList[i])

		if err := batch.Append(
			row.ID,
			row.UserID,
			row.StockID,
			row.Symbol,
			row.Action,
			row.Quantity,
			row.Price,
			row.Notional,
			row.Status,
			row.TransactionDate,
		); err != nil {
			return err
		}
	}

	return batch.Send()
}
