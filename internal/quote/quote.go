// Package quote reads stock prices from a market data feed into the database.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/model"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrNoFeed = errors.New("no QUOTE_URL set")

// Source provides the latest prices for a list of symbols.
type Source interface {
	Fetch(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// Client reads prices from an HTTP feed.
//
// The feed is called as `GET <url>?symbols=A,B` and must return a JSON array
// of `{"symbol": "A", "price": "12.34"}` objects. Prices may be strings or numbers.
type Client struct {
	url    string
	apiKey string
	http   *resty.Client
}

func NewClient(cfg config.QuoteConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrNoFeed
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")

	return &Client{url: cfg.URL, apiKey: cfg.APIKey, http: httpClient}, nil
}

type feedResult struct {
	Symbol string          `json:"symbol"`
	Price  json.RawMessage `json:"price"`
}

func parsePrice(raw json.RawMessage) (decimal.Decimal, error) {
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)

	return decimal.NewFromString(text)
}

// readFeedResults turns a feed response into prices by symbol.
//
// Unparsable and non-positive prices are skipped.
func readFeedResults(results []feedResult) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(results))

	for _, result := range results {
		symbol := model.NormalizeSymbol(result.Symbol)
		price, err := parsePrice(result.Price)

		if err != nil || symbol == "" {
			log.WithField("symbol", result.Symbol).Warn("skipping unreadable quote")

			continue
		}

		if !price.IsPositive() {
			log.WithFields(log.Fields{"symbol": symbol, "price": price.String()}).
				Warn("skipping non-positive quote")

			continue
		}

		prices[symbol] = price
	}

	return prices
}

func (client *Client) Fetch(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	var results []feedResult

	request := client.http.R().
		SetContext(ctx).
		SetQueryParam("symbols", strings.Join(symbols, ",")).
		SetResult(&results)

	if client.apiKey != "" {
		request.SetHeader("X-API-Key", client.apiKey)
	}

	response, err := request.Get(client.url)

	if err != nil {
		return nil, fmt.Errorf("quote feed request failed: %w", err)
	}

	if response.IsError() {
		return nil, fmt.Errorf("quote feed returned %s: %s", response.Status(), response.String())
	}

	return readFeedResults(results), nil
}
