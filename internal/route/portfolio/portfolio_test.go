package portfolio

import (
	"testing"

	"github.com/dense-analysis/stocker/internal/accounting"
	"github.com/dense-analysis/stocker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func holding(symbol string, quantity int64, averagePrice string, price string) accounting.Holding {
	row := model.Portfolio{
		Quantity:     quantity,
		AveragePrice: decimal.RequireFromString(averagePrice),
		Stock:        model.Stock{Symbol: symbol, Price: decimal.RequireFromString(price)},
	}

	return accounting.Holding{
		Portfolio: row,
		Value:     accounting.PositionOf(&row).MarketValue(row.Stock.Price),
	}
}

func TestTrack(t *testing.T) {
	holdingList := []accounting.Holding{
		holding("ACME", 2, "10", "15"),
		holding("BOLT", 10, "10", "7"),
	}

	trackedList := Track(holdingList, decimal.NewFromInt(100))

	assert.Len(t, trackedList, 2)
	assert.Equal(t, "BOLT", trackedList[0].Stock.Symbol)
	assert.Equal(t, "70", trackedList[0].ShareOfPortfolio.String())
	assert.Equal(t, "-30", trackedList[0].Performance.String())
	assert.Equal(t, "ACME", trackedList[1].Stock.Symbol)
	assert.Equal(t, "30", trackedList[1].ShareOfPortfolio.String())
	assert.Equal(t, "50", trackedList[1].Performance.String())
}

func TestTrackZeroTotals(t *testing.T) {
	trackedList := Track([]accounting.Holding{holding("FREE", 3, "0", "0")}, decimal.Zero)

	assert.True(t, trackedList[0].ShareOfPortfolio.IsZero())
	assert.True(t, trackedList[0].Performance.IsZero())
}
