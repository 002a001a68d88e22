package quote

import (
	"context"
	"fmt"

	"github.com/dense-analysis/stocker/internal/model"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Ingest fetches prices for every stock and stores the ones which changed.
//
// `cache` may be nil. It returns the number of stocks updated.
func Ingest(ctx context.Context, db *gorm.DB, source Source, cache Cache) (int, error) {
	var stockList []model.Stock

	if err := model.LoadStockList(ctx, db, &stockList); err != nil {
		return 0, fmt.Errorf("load stocks: %w", err)
	}

	symbols := make([]string, 0, len(stockList))

	for _, stock := range stockList {
		symbols = append(symbols, stock.Symbol)
	}

	prices, err := source.Fetch(ctx, symbols)

	if err != nil {
		return 0, err
	}

	updated := 0

	for _, stock := range stockList {
		price, ok := prices[stock.Symbol]

		if !ok {
			log.WithField("symbol", stock.Symbol).Debug("no quote for stock")

			continue
		}

		if !moved(ctx, cache, stock.Symbol, price) {
			continue
		}

		if !stock.Price.Equal(price) {
			if err := model.UpdateStockPrice(ctx, db, stock.ID, price); err != nil {
				return updated, fmt.Errorf("update %s: %w", stock.Symbol, err)
			}

			updated++
		}

		if cache != nil {
			if err := cache.SetLastPrice(ctx, stock.Symbol, price); err != nil {
				log.WithError(err).WithField("symbol", stock.Symbol).Warn("failed to cache price")
			}
		}
	}

	log.WithFields(log.Fields{"stocks": len(stockList), "updated": updated}).Info("ingested quotes")

	return updated, nil
}

// moved reports if the feed price differs from the one seen by the last ingest.
//
// A price set by hand is kept until the feed moves.
func moved(ctx context.Context, cache Cache, symbol string, price decimal.Decimal) bool {
	if cache == nil {
		return true
	}

	cached, found, err := cache.LastPrice(ctx, symbol)

	if err != nil {
		log.WithError(err).WithField("symbol", symbol).Warn("price cache unavailable")

		return true
	}

	return !found || !cached.Equal(price)
}
