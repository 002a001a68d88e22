// Package accounting keeps the positions and ledger of traders.
//
// Positions use weighted average cost: a buy moves the average price towards
// the price paid, a sell only reduces the quantity held.
package accounting

import (
	"errors"
	"math"
	"sort"

	"github.com/dense-analysis/stocker/internal/model"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity      = errors.New("quantity must be a positive whole number")
	ErrInvalidPrice         = errors.New("price must not be negative")
	ErrInsufficientHoldings = errors.New("not enough shares to sell")
	ErrNoSuchHolding        = errors.New("no shares of this stock are held")
	ErrNotFound             = model.ErrNotFound
)

// AveragePriceScale is the number of decimal places kept for average prices.
const AveragePriceScale = 8

// Position is the quantity of a stock held and its average cost.
type Position struct {
	Quantity     int64
	AveragePrice decimal.Decimal
}

// Closed returns true when nothing is held.
func (p Position) Closed() bool {
	return p.Quantity == 0
}

// Cost returns the total cost basis of the position.
func (p Position) Cost() decimal.Decimal {
	return p.AveragePrice.Mul(decimal.NewFromInt(p.Quantity))
}

// MarketValue returns the value of the position at the given price.
func (p Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(p.Quantity))
}

// Buy returns the position after buying `quantity` shares at `price`.
func (p Position) Buy(quantity int64, price decimal.Decimal) (Position, error) {
	if quantity <= 0 || quantity > math.MaxInt64-p.Quantity {
		return p, ErrInvalidQuantity
	}

	if price.IsNegative() {
		return p, ErrInvalidPrice
	}

	if p.Closed() {
		return Position{Quantity: quantity, AveragePrice: price}, nil
	}

	newQuantity := p.Quantity + quantity
	totalCost := p.Cost().Add(price.Mul(decimal.NewFromInt(quantity)))

	return Position{
		Quantity:     newQuantity,
		AveragePrice: totalCost.Div(decimal.NewFromInt(newQuantity)).Round(AveragePriceScale),
	}, nil
}

// Sell returns the position after selling `quantity` shares.
//
// The average price of the remaining shares does not change.
func (p Position) Sell(quantity int64) (Position, error) {
	if p.Closed() {
		return p, ErrNoSuchHolding
	}

	if quantity <= 0 {
		return p, ErrInvalidQuantity
	}

	if quantity > p.Quantity {
		return p, ErrInsufficientHoldings
	}

	return Position{Quantity: p.Quantity - quantity, AveragePrice: p.AveragePrice}, nil
}

// PositionOf returns the position recorded in a portfolio row.
func PositionOf(holding *model.Portfolio) Position {
	return Position{Quantity: holding.Quantity, AveragePrice: holding.AveragePrice}
}

type byExecutionOrder []model.Transaction

func (a byExecutionOrder) Len() int {
	return len(a)
}

func (a byExecutionOrder) Swap(i, j int) {
	a[i], a[j] = a[j], a[i]
}

func (a byExecutionOrder) Less(i, j int) bool {
	if a[i].TransactionDate.Equal(a[j].TransactionDate) {
		return a[i].ID < a[j].ID
	}

	return a[i].TransactionDate.Before(a[j].TransactionDate)
}

// Replay rebuilds positions by stock ID from completed ledger entries.
//
// The entries may be in any order. Closed positions are left out, as they
// have no portfolio row.
func Replay(transactionList []model.Transaction) (map[uint]Position, error) {
	ordered := make([]model.Transaction, len(transactionList))
	copy(ordered, transactionList)
	sort.Sort(byExecutionOrder(ordered))

	positions := map[uint]Position{}

	for _, transaction := range ordered {
		if transaction.Status != model.StatusCompleted {
			continue
		}

		var err error
		position := positions[transaction.StockID]

		switch transaction.Action {
		case model.ActionBuy:
			position, err = position.Buy(transaction.Quantity, transaction.Price)
		case model.ActionSell:
			position, err = position.Sell(transaction.Quantity)
		}

		if err != nil {
			return nil, err
		}

		if position.Closed() {
			delete(positions, transaction.StockID)
		} else {
			positions[transaction.StockID] = position
		}
	}

	return positions, nil
}
