package accounting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dense-analysis/stocker/internal/model"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxAttempts bounds retries of a trade which lost a race to create a holding.
const maxAttempts = 3

// Order is a request to buy or sell a quantity of a stock at a price.
type Order struct {
	StockID  uint
	Quantity int64
	Price    decimal.Decimal
}

// Engine applies trades to the store.
//
// Every trade appends one ledger entry and changes one portfolio row inside
// a single database transaction.
type Engine struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates an Engine over a database.
func New(db *gorm.DB) *Engine {
	return &Engine{db: db, now: time.Now}
}

// WithClock returns a copy of the Engine which stamps ledger entries with `now`.
func (engine *Engine) WithClock(now func() time.Time) *Engine {
	copied := *engine
	copied.now = now

	return &copied
}

// Buy buys shares for the actor at the order price.
func (engine *Engine) Buy(ctx context.Context, actor model.Actor, order Order) (*model.Transaction, error) {
	if order.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var entry *model.Transaction

	err := engine.transact(ctx, func(tx *gorm.DB) error {
		if err := requireParties(tx, actor, order.StockID); err != nil {
			return err
		}

		holding, found, err := lockHolding(tx, actor.UserID, order.StockID)

		if err != nil {
			return err
		}

		position, err := PositionOf(holding).Buy(order.Quantity, order.Price)

		if err != nil {
			return err
		}

		if err := saveHolding(tx, holding, found, position); err != nil {
			return err
		}

		entry, err = engine.appendEntry(tx, actor, order, model.ActionBuy)

		return err
	})

	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  actor.UserID,
		"stock_id": order.StockID,
		"quantity": order.Quantity,
		"price":    order.Price.String(),
	}).Info("buy completed")

	return entry, nil
}

// Sell sells shares the actor holds at the order price.
func (engine *Engine) Sell(ctx context.Context, actor model.Actor, order Order) (*model.Transaction, error) {
	var entry *model.Transaction

	err := engine.transact(ctx, func(tx *gorm.DB) error {
		if err := requireParties(tx, actor, order.StockID); err != nil {
			return err
		}

		holding, found, err := lockHolding(tx, actor.UserID, order.StockID)

		if err != nil {
			return err
		}

		if !found {
			return ErrNoSuchHolding
		}

		if order.Price.IsNegative() {
			return ErrInvalidPrice
		}

		position, err := PositionOf(holding).Sell(order.Quantity)

		if err != nil {
			return err
		}

		if err := saveHolding(tx, holding, found, position); err != nil {
			return err
		}

		entry, err = engine.appendEntry(tx, actor, order, model.ActionSell)

		return err
	})

	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  actor.UserID,
		"stock_id": order.StockID,
		"quantity": order.Quantity,
		"price":    order.Price.String(),
	}).Info("sell completed")

	return entry, nil
}

// DeleteUser removes a user along with their holdings and ledger entries.
func (engine *Engine) DeleteUser(ctx context.Context, userID uint) error {
	return engine.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User

		if err := model.FindUserByID(ctx, tx, &user, userID); err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&model.Portfolio{}).Error; err != nil {
			return fmt.Errorf("delete holdings: %w", err)
		}

		if err := tx.Where("user_id = ?", userID).Delete(&model.Transaction{}).Error; err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}

		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		log.WithFields(log.Fields{"user_id": userID, "email": user.Email}).Info("user deleted")

		return nil
	})
}

// transact runs `fn` in a database transaction, retrying when a concurrent
// trade created the same holding first.
func (engine *Engine) transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = engine.db.WithContext(ctx).Transaction(fn)

		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}

		log.WithField("attempt", attempt).Warn("holding created concurrently, retrying trade")
	}

	return err
}

func (engine *Engine) appendEntry(
	tx *gorm.DB,
	actor model.Actor,
	order Order,
	action model.Action,
) (*model.Transaction, error) {
	entry := &model.Transaction{
		UserID:          actor.UserID,
		StockID:         order.StockID,
		Action:          action,
		Quantity:        order.Quantity,
		Price:           order.Price,
		Status:          model.StatusCompleted,
		TransactionDate: engine.now().UTC(),
	}

	if err := tx.Omit(clause.Associations).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}

	return entry, nil
}

func requireParties(tx *gorm.DB, actor model.Actor, stockID uint) error {
	var count int64

	if err := tx.Model(&model.User{}).Where("id = ?", actor.UserID).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return fmt.Errorf("user %d: %w", actor.UserID, ErrNotFound)
	}

	if err := tx.Model(&model.Stock{}).Where("id = ?", stockID).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return fmt.Errorf("stock %d: %w", stockID, ErrNotFound)
	}

	return nil
}

// lockHolding loads the portfolio row for a user and stock, locking it
// until the transaction ends.
func lockHolding(tx *gorm.DB, userID uint, stockID uint) (*model.Portfolio, bool, error) {
	holding := &model.Portfolio{UserID: userID, StockID: stockID}

	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND stock_id = ?", userID, stockID).
		First(holding).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return holding, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return holding, true, nil
}

func saveHolding(tx *gorm.DB, holding *model.Portfolio, found bool, position Position) error {
	holding.Quantity = position.Quantity
	holding.AveragePrice = position.AveragePrice

	if !found {
		return tx.Omit(clause.Associations).Create(holding).Error
	}

	if position.Closed() {
		return tx.Delete(&model.Portfolio{}, holding.ID).Error
	}

	return tx.Model(&model.Portfolio{}).
		Where("id = ?", holding.ID).
		Updates(map[string]any{
			"quantity":      position.Quantity,
			"average_price": position.AveragePrice,
		}).
		Error
}
