package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")
var ErrDuplicate = errors.New("already exists")

// translate maps gorm errors onto the errors of this package.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// FindUserByID loads a single user by ID.
func FindUserByID(ctx context.Context, db *gorm.DB, user *User, userID uint) error {
	return translate(db.WithContext(ctx).First(user, userID).Error)
}

// FindUserByEmail loads a single user by email address.
//
// If `role` is not empty, the user must also have that role.
func FindUserByEmail(ctx context.Context, db *gorm.DB, user *User, email string, role Role) error {
	query := db.WithContext(ctx).Where("email = ?", NormalizeEmail(email))

	if role != "" {
		query = query.Where("role = ?", role)
	}

	return translate(query.First(user).Error)
}

// CreateUser inserts a new user. The password must already be hashed.
func CreateUser(ctx context.Context, db *gorm.DB, user *User) error {
	user.Email = NormalizeEmail(user.Email)

	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user %s: %w", user.Email, translate(err))
	}

	return nil
}

// NormalizeEmail returns the form of an email address stored in the database.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LoadStockList loads all stocks ordered by symbol.
func LoadStockList(ctx context.Context, db *gorm.DB, stockList *[]Stock) error {
	return db.WithContext(ctx).Order("symbol").Find(stockList).Error
}

// FindStockByID loads a single stock by ID.
func FindStockByID(ctx context.Context, db *gorm.DB, stock *Stock, stockID uint) error {
	return translate(db.WithContext(ctx).First(stock, stockID).Error)
}

// FindStockBySymbol loads a single stock by its ticker symbol.
func FindStockBySymbol(ctx context.Context, db *gorm.DB, stock *Stock, symbol string) error {
	return translate(
		db.WithContext(ctx).Where("symbol = ?", NormalizeSymbol(symbol)).First(stock).Error,
	)
}

// CreateStock inserts a new stock, dated today if no date is set.
func CreateStock(ctx context.Context, db *gorm.DB, stock *Stock) error {
	stock.Symbol = NormalizeSymbol(stock.Symbol)

	if time.Time(stock.DateAdded).IsZero() {
		stock.DateAdded = datatypes.Date(time.Now())
	}

	if err := db.WithContext(ctx).Create(stock).Error; err != nil {
		return fmt.Errorf("create stock %s: %w", stock.Symbol, translate(err))
	}

	return nil
}

// UpdateStockPrice sets the current price of a stock.
func UpdateStockPrice(ctx context.Context, db *gorm.DB, stockID uint, price decimal.Decimal) error {
	result := db.WithContext(ctx).
		Model(&Stock{}).
		Where("id = ?", stockID).
		Update("price", price)

	if result.Error != nil {
		return result.Error
	}

	// MySQL reports zero affected rows when the price did not change.
	if result.RowsAffected == 0 {
		var stock Stock

		return FindStockByID(ctx, db, &stock, stockID)
	}

	return nil
}

// NormalizeSymbol returns the form of a ticker symbol stored in the database.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
