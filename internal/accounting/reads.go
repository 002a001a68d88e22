package accounting

import (
	"context"
	"fmt"
	"sort"

	"github.com/dense-analysis/stocker/internal/model"
	"github.com/shopspring/decimal"
)

// Holding is a portfolio row valued at the current stock price.
type Holding struct {
	model.Portfolio
	Value decimal.Decimal `json:"value"`
}

// TraderValue is a trader with the market value of everything they hold.
type TraderValue struct {
	model.User
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
}

type bySymbolOrder []Holding

func (a bySymbolOrder) Len() int {
	return len(a)
}

func (a bySymbolOrder) Swap(i, j int) {
	a[i], a[j] = a[j], a[i]
}

func (a bySymbolOrder) Less(i, j int) bool {
	if a[i].Stock.Symbol == a[j].Stock.Symbol {
		return a[i].UserID < a[j].UserID
	}

	return a[i].Stock.Symbol < a[j].Stock.Symbol
}

func valueHoldings(portfolioList []model.Portfolio) []Holding {
	holdingList := make([]Holding, 0, len(portfolioList))

	for _, row := range portfolioList {
		holdingList = append(holdingList, Holding{
			Portfolio: row,
			Value:     PositionOf(&row).MarketValue(row.Stock.Price),
		})
	}

	sort.Sort(bySymbolOrder(holdingList))

	return holdingList
}

// Holdings loads the holdings of a user, sorted by symbol.
func (engine *Engine) Holdings(ctx context.Context, userID uint) ([]Holding, error) {
	var portfolioList []model.Portfolio

	err := engine.db.WithContext(ctx).
		Preload("Stock").
		Where("user_id = ?", userID).
		Find(&portfolioList).
		Error

	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}

	return valueHoldings(portfolioList), nil
}

// Transactions loads the ledger entries of a user, most recent first.
func (engine *Engine) Transactions(ctx context.Context, userID uint) ([]model.Transaction, error) {
	var transactionList []model.Transaction

	err := engine.db.WithContext(ctx).
		Preload("Stock").
		Where("user_id = ?", userID).
		Order("transaction_date DESC, id DESC").
		Find(&transactionList).
		Error

	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	return transactionList, nil
}

// PortfolioValue returns the market value of everything a user holds.
func (engine *Engine) PortfolioValue(ctx context.Context, userID uint) (decimal.Decimal, error) {
	holdingList, err := engine.Holdings(ctx, userID)

	if err != nil {
		return decimal.Zero, err
	}

	return sumValues(holdingList), nil
}

// TraderValues loads every trader with their portfolio value.
func (engine *Engine) TraderValues(ctx context.Context) ([]TraderValue, error) {
	var userList []model.User

	err := engine.db.WithContext(ctx).
		Where("role = ?", model.RoleTrader).
		Order("id").
		Find(&userList).
		Error

	if err != nil {
		return nil, fmt.Errorf("load traders: %w", err)
	}

	var portfolioList []model.Portfolio

	err = engine.db.WithContext(ctx).
		Preload("Stock").
		Joins("JOIN stocker_user ON stocker_user.id = portfolio.user_id").
		Where("stocker_user.role = ?", model.RoleTrader).
		Find(&portfolioList).
		Error

	if err != nil {
		return nil, fmt.Errorf("load trader holdings: %w", err)
	}

	valueMap := make(map[uint]decimal.Decimal, len(userList))

	for _, holding := range valueHoldings(portfolioList) {
		valueMap[holding.UserID] = valueMap[holding.UserID].Add(holding.Value)
	}

	traderList := make([]TraderValue, 0, len(userList))

	for _, user := range userList {
		traderList = append(traderList, TraderValue{User: user, PortfolioValue: valueMap[user.ID]})
	}

	return traderList, nil
}

// AllTransactions loads every ledger entry with its user and stock, most recent first.
func (engine *Engine) AllTransactions(ctx context.Context) ([]model.Transaction, error) {
	var transactionList []model.Transaction

	err := engine.db.WithContext(ctx).
		Preload("User").
		Preload("Stock").
		Order("transaction_date DESC, id DESC").
		Find(&transactionList).
		Error

	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	return transactionList, nil
}

// AllHoldings loads every holding of every user along with their total value.
func (engine *Engine) AllHoldings(ctx context.Context) ([]Holding, decimal.Decimal, error) {
	var portfolioList []model.Portfolio

	err := engine.db.WithContext(ctx).
		Preload("User").
		Preload("Stock").
		Find(&portfolioList).
		Error

	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("load holdings: %w", err)
	}

	holdingList := valueHoldings(portfolioList)

	return holdingList, sumValues(holdingList), nil
}

// LedgerSince loads up to `limit` ledger entries with IDs above `afterID`, in ID order.
func (engine *Engine) LedgerSince(ctx context.Context, afterID uint, limit int) ([]model.Transaction, error) {
	var transactionList []model.Transaction

	err := engine.db.WithContext(ctx).
		Preload("Stock").
		Where("id > ?", afterID).
		Order("id").
		Limit(limit).
		Find(&transactionList).
		Error

	if err != nil {
		return nil, fmt.Errorf("load ledger page: %w", err)
	}

	return transactionList, nil
}

func sumValues(holdingList []Holding) decimal.Decimal {
	total := decimal.Zero

	for _, holding := range holdingList {
		total = total.Add(holding.Value)
	}

	return total
}
