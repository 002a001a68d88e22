package template

import (
	"bytes"
	"testing"

	"github.com/dense-analysis/stocker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatMoney(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$0.00", FormatMoney(decimal.Zero))
	assert.Equal(t, "$0.13", FormatMoney(decimal.RequireFromString("0.125")))
}

func TestRenderPortfolio(t *testing.T) {
	Init()

	data := struct {
		User            *model.User
		FlashList       []struct{ Kind, Message string }
		HoldingList     []any
		TransactionList []model.Transaction
		TotalValue      decimal.Decimal
		TotalCost       decimal.Decimal
		TotalProfit     decimal.Decimal
	}{
		User:       &model.User{Username: "alice", Role: model.RoleTrader},
		FlashList:  []struct{ Kind, Message string }{{"success", "Successfully purchased 5 shares of ACME!"}},
		TotalValue: decimal.RequireFromString("50"),
		TransactionList: []model.Transaction{{
			Action:   model.ActionBuy,
			Quantity: 5,
			Price:    decimal.RequireFromString("10"),
			Stock:    model.Stock{Symbol: "ACME"},
		}},
	}

	var buffer bytes.Buffer
	Render(Portfolio, &buffer, data)
	html := buffer.String()

	assert.Contains(t, html, "Successfully purchased 5 shares of ACME!")
	assert.Contains(t, html, "Total value: $50.00")
	assert.Contains(t, html, `href="/portfolio"`)
	assert.Contains(t, html, "ACME")
	assert.NotContains(t, html, `href="/admin/traders"`)
}
