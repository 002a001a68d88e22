package accounting

import (
	"testing"
	"time"

	"github.com/dense-analysis/stocker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestPositionBuyOnEmptyPosition(t *testing.T) {
	position, err := Position{}.Buy(5, d("10"))

	require.NoError(t, err)
	assert.Equal(t, int64(5), position.Quantity)
	assert.True(t, d("10").Equal(position.AveragePrice))
}

func TestPositionBuyWeightedAverage(t *testing.T) {
	testCases := []struct {
		name         string
		start        Position
		quantity     int64
		price        string
		wantQuantity int64
		wantAverage  string
	}{
		{"equal lots", Position{5, d("10")}, 5, "20", 10, "15"},
		{"uneven lots", Position{1, d("100")}, 3, "50", 4, "62.5"},
		{"free shares", Position{2, d("9")}, 1, "0", 3, "6"},
		{"doubling", Position{3, d("1")}, 3, "2", 6, "1.5"},
		{"rounded to scale", Position{1, d("1")}, 2, "1", 3, "1"},
		{"thirds", Position{2, d("0")}, 1, "1", 3, "0.33333333"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			position, err := testCase.start.Buy(testCase.quantity, d(testCase.price))

			require.NoError(t, err)
			assert.Equal(t, testCase.wantQuantity, position.Quantity)
			assert.Equal(t, d(testCase.wantAverage).String(), position.AveragePrice.String())
		})
	}
}

func TestPositionBuyRejectsBadInput(t *testing.T) {
	start := Position{Quantity: 2, AveragePrice: d("3")}

	_, err := start.Buy(0, d("1"))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = start.Buy(-4, d("1"))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = Position{Quantity: 1 << 62, AveragePrice: d("1")}.Buy(1<<62, d("1"))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = start.Buy(1, d("-0.01"))
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestPositionSell(t *testing.T) {
	start := Position{Quantity: 10, AveragePrice: d("15")}

	position, err := start.Sell(4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), position.Quantity)
	assert.True(t, start.AveragePrice.Equal(position.AveragePrice))
	assert.False(t, position.Closed())

	position, err = position.Sell(6)
	require.NoError(t, err)
	assert.True(t, position.Closed())
}

func TestPositionSellErrors(t *testing.T) {
	_, err := Position{}.Sell(1)
	assert.ErrorIs(t, err, ErrNoSuchHolding)

	_, err = Position{Quantity: 3, AveragePrice: d("1")}.Sell(0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = Position{Quantity: 3, AveragePrice: d("1")}.Sell(4)
	assert.ErrorIs(t, err, ErrInsufficientHoldings)
}

func TestPositionValues(t *testing.T) {
	position := Position{Quantity: 4, AveragePrice: d("2.5")}

	assert.Equal(t, "10", position.Cost().String())
	assert.Equal(t, "12", position.MarketValue(d("3")).String())
}

func TestWeightedAverageIsIndependentOfOrder(t *testing.T) {
	type lot struct {
		quantity int64
		price    string
	}

	lots := []lot{{3, "10.25"}, {7, "11.5"}, {1, "99.99"}, {12, "0.3"}, {5, "42"}}
	orders := [][]int{
		{0, 1, 2, 3, 4},
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
		{3, 4, 0, 2, 1},
	}

	totalCost := decimal.Zero
	totalQuantity := int64(0)

	for _, item := range lots {
		totalCost = totalCost.Add(d(item.price).Mul(decimal.NewFromInt(item.quantity)))
		totalQuantity += item.quantity
	}

	want := totalCost.Div(decimal.NewFromInt(totalQuantity))
	tolerance := d("0.0000001")

	for _, order := range orders {
		position := Position{}

		for _, index := range order {
			var err error

			position, err = position.Buy(lots[index].quantity, d(lots[index].price))
			require.NoError(t, err)
		}

		assert.Equal(t, totalQuantity, position.Quantity)
		assert.True(
			t,
			position.AveragePrice.Sub(want).Abs().LessThanOrEqual(tolerance),
			"order %v: got %s, want %s", order, position.AveragePrice, want,
		)
	}
}

func TestReplay(t *testing.T) {
	start := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

	// Deliberately out of order, with a failed entry which must be skipped.
	transactionList := []model.Transaction{
		{ID: 3, StockID: 1, Action: model.ActionSell, Quantity: 10, Price: d("20"), Status: model.StatusCompleted, TransactionDate: start.Add(2 * time.Hour)},
		{ID: 1, StockID: 1, Action: model.ActionBuy, Quantity: 5, Price: d("10"), Status: model.StatusCompleted, TransactionDate: start},
		{ID: 4, StockID: 2, Action: model.ActionBuy, Quantity: 2, Price: d("7"), Status: model.StatusCompleted, TransactionDate: start},
		{ID: 2, StockID: 1, Action: model.ActionBuy, Quantity: 5, Price: d("20"), Status: model.StatusCompleted, TransactionDate: start.Add(time.Hour)},
		{ID: 5, StockID: 2, Action: model.ActionBuy, Quantity: 100, Price: d("1"), Status: model.StatusFailed, TransactionDate: start},
	}

	positions, err := Replay(transactionList)

	require.NoError(t, err)
	assert.Len(t, positions, 1)
	assert.Equal(t, int64(2), positions[2].Quantity)
	assert.Equal(t, "7", positions[2].AveragePrice.String())
}

func TestReplayRejectsOverselling(t *testing.T) {
	_, err := Replay([]model.Transaction{
		{ID: 1, StockID: 1, Action: model.ActionBuy, Quantity: 1, Price: d("1"), Status: model.StatusCompleted},
		{ID: 2, StockID: 1, Action: model.ActionSell, Quantity: 2, Price: d("1"), Status: model.StatusCompleted},
	})

	assert.ErrorIs(t, err, ErrInsufficientHoldings)
}
