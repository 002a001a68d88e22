// Export the Postgres tables into CSV files for analytics imports.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/database"
	"github.com/jackc/pgx/v4"
	log "github.com/sirupsen/logrus"
)

// table describes one CSV file written from a query.
type table struct {
	filename string
	query    string
	header   []string
}

// Password hashes are never exported.
var tableList = []table{
	{
		filename: "stocker_user.csv",
		query:    "select id, username, email, role from stocker_user order by id",
		header:   []string{"user_id", "username", "email", "role"},
	},
	{
		filename: "stock.csv",
		query: `
			select id, symbol, name, price::text, market_cap::text, sector, industry,
				coalesce(to_char(date_added, 'YYYY-MM-DD'), '')
			from stock
			order by id
		`,
		header: []string{"stock_id", "symbol", "name", "price", "market_cap", "sector", "industry", "date_added"},
	},
	{
		filename: "stock_transaction.csv",
		query: `
			select
				stock_transaction.id,
				stock_transaction.user_id,
				stock.symbol,
				stock_transaction.action,
				stock_transaction.quantity::text,
				stock_transaction.price::text,
				stock_transaction.status,
				stock_transaction.transaction_date
			from stock_transaction
			inner join stock
				on stock.id = stock_transaction.stock_id
			order by stock_transaction.id
		`,
		header: []string{
			"transaction_id",
			"user_id",
			"symbol",
			"action",
			"quantity",
			"price",
			"status",
			"transaction_date",
		},
	},
	{
		filename: "portfolio.csv",
		query: `
			select
				portfolio.id,
				portfolio.user_id,
				stock.symbol,
				portfolio.quantity::text,
				portfolio.average_price::text
			from portfolio
			inner join stock
				on stock.id = portfolio.stock_id
			order by portfolio.id
		`,
		header: []string{"portfolio_id", "user_id", "symbol", "quantity", "average_price"},
	},
}

func main() {
	cfg := config.MustLoad()
	outputDir := argOrDefault(1, "export")
	ctx := context.Background()

	conn, err := pgx.Connect(ctx, database.PostgresURL(cfg.Database))

	if err != nil {
		log.Fatalf("Connection error: %s", err)
	}

	defer conn.Close(ctx)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Fatalf("Error creating output directory: %s", err)
	}

	for _, table := range tableList {
		count, err := exportTable(ctx, conn, outputDir, table)

		if err != nil {
			log.Fatalf("Export %s error: %s", table.filename, err)
		}

		log.WithFields(log.Fields{"file": table.filename, "rows": count}).Info("exported")
	}
}

func exportTable(ctx context.Context, conn *pgx.Conn, outputDir string, table table) (int, error) {
	rows, err := conn.Query(ctx, table.query)

	if err != nil {
		return 0, err
	}

	defer rows.Close()

	file, err := os.Create(filepath.Join(outputDir, table.filename))

	if err != nil {
		return 0, err
	}

	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(table.header); err != nil {
		return 0, err
	}

	count := 0

	for rows.Next() {
		values, err := rows.Values()

		if err != nil {
			return count, err
		}

		if err := writer.Write(formatRecord(values)); err != nil {
			return count, err
		}

		count++
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return count, err
	}

	return count, rows.Err()
}

// formatRecord converts the values of a row to CSV fields.
func formatRecord(values []any) []string {
	record := make([]string, len(values))

	for i, value := range values {
		record[i] = formatValue(value)
	}

	return record
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case int32:
		return strconv.FormatInt(int64(typed), 10)
	case int64:
		return strconv.FormatInt(typed, 10)
	case time.Time:
		return typed.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(typed)
	}
}

func argOrDefault(position int, fallback string) string {
	if len(os.Args) > position {
		return os.Args[position]
	}

	return fallback
}
