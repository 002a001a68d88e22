package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Role is the role a user has in the application.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleTrader Role = "trader"
)

// Action is the side of a ledger entry.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Status is the settlement status of a ledger entry.
//
// Every entry is created as completed, the other values exist so stored
// rows can be read back if anything ever writes them.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// User represents a user in the database
type User struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Username     string        `gorm:"size:150;not null" json:"username"`
	Email        string        `gorm:"size:150;not null;uniqueIndex" json:"email"`
	Password     string        `gorm:"size:150;not null" json:"-"`
	Role         Role          `gorm:"size:50;not null" json:"role"`
	Transactions []Transaction `json:"-"`
	Holdings     []Portfolio   `json:"-"`
}

func (User) TableName() string {
	return "stocker_user"
}

// Actor returns the identity used to perform operations as this user.
func (user *User) Actor() Actor {
	return Actor{UserID: user.ID, Role: user.Role}
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID uint
	Role   Role
}

// Stock represents a tradable instrument with its current price.
type Stock struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Symbol    string          `gorm:"size:20;not null;uniqueIndex" json:"symbol"`
	Name      string          `gorm:"size:150;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"price"`
	MarketCap decimal.Decimal `gorm:"type:numeric(24,2);not null" json:"market_cap"`
	Sector    string          `gorm:"size:100;not null" json:"sector"`
	Industry  string          `gorm:"size:100;not null" json:"industry"`
	DateAdded datatypes.Date  `gorm:"type:date" json:"date_added"`
}

func (Stock) TableName() string {
	return "stock"
}

// Transaction is an immutable ledger entry for a buy or a sell.
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	User            User            `json:"-"`
	StockID         uint            `gorm:"not null;index" json:"stock_id"`
	Stock           Stock           `json:"stock"`
	Action          Action          `gorm:"size:10;not null" json:"action"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	Price           decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"price"`
	Status          Status          `gorm:"size:10;not null;default:completed" json:"status"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
}

func (Transaction) TableName() string {
	return "stock_transaction"
}

// Total is the value of the transaction at its execution price.
func (transaction *Transaction) Total() decimal.Decimal {
	return transaction.Price.Mul(decimal.NewFromInt(transaction.Quantity))
}

// Portfolio is the current position a user holds in a stock.
type Portfolio struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"not null;uniqueIndex:idx_portfolio_user_stock" json:"user_id"`
	User         User            `json:"-"`
	StockID      uint            `gorm:"not null;uniqueIndex:idx_portfolio_user_stock" json:"stock_id"`
	Stock        Stock           `json:"stock"`
	Quantity     int64           `gorm:"not null" json:"quantity"`
	AveragePrice decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"average_price"`
}

func (Portfolio) TableName() string {
	return "portfolio"
}
