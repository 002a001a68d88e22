package portfolio

import (
	"net/http"
	"sort"

	"github.com/dense-analysis/stocker/internal/accounting"
	"github.com/dense-analysis/stocker/internal/model"
	"github.com/dense-analysis/stocker/internal/route/util"
	"github.com/dense-analysis/stocker/internal/template"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var One decimal.Decimal = decimal.NewFromInt(1)
var Hundred decimal.Decimal = decimal.NewFromInt(100)

// TrackedHolding is a Holding with additional information available to it.
type TrackedHolding struct {
	accounting.Holding
	ShareOfPortfolio decimal.Decimal
	Performance      decimal.Decimal
}

// Track computes the share of the portfolio and the gain or loss of each holding.
func Track(holdingList []accounting.Holding, totalValue decimal.Decimal) []TrackedHolding {
	trackedList := make([]TrackedHolding, 0, len(holdingList))

	for _, holding := range holdingList {
		tracked := TrackedHolding{Holding: holding}
		cost := accounting.PositionOf(&holding.Portfolio).Cost()

		// The share of the portofolio is the value over the total value
		if totalValue.IsZero() {
			tracked.ShareOfPortfolio = decimal.Zero
		} else {
			tracked.ShareOfPortfolio = holding.Value.Div(totalValue).Mul(Hundred)
		}

		// Calculate percentage gains per holding
		if cost.IsZero() {
			tracked.Performance = decimal.Zero
		} else {
			tracked.Performance = holding.Value.Div(cost).Sub(One).Mul(Hundred)
		}

		trackedList = append(trackedList, tracked)
	}

	sort.Stable(byValueOrder(trackedList))

	return trackedList
}

type byValueOrder []TrackedHolding

func (a byValueOrder) Len() int {
	return len(a)
}

func (a byValueOrder) Swap(i, j int) {
	a[i], a[j] = a[j], a[i]
}

func (a byValueOrder) Less(i, j int) bool {
	return a[j].Value.LessThan(a[i].Value)
}

type PortfolioPageData struct {
	util.Page
	HoldingList     []TrackedHolding
	TransactionList []model.Transaction
	TotalValue      decimal.Decimal
	TotalCost       decimal.Decimal
	TotalProfit     decimal.Decimal
}

// HandlePortfolio shows the holdings and trading history of a trader.
func HandlePortfolio(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	data := PortfolioPageData{Page: util.LoadPage(writer, request)}
	engine := accounting.New(db)

	holdingList, err := engine.Holdings(request.Context(), data.User.ID)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	data.TotalCost = decimal.Zero
	data.TotalValue = decimal.Zero

	for _, holding := range holdingList {
		data.TotalCost = data.TotalCost.Add(accounting.PositionOf(&holding.Portfolio).Cost())
		data.TotalValue = data.TotalValue.Add(holding.Value)
	}

	data.TotalProfit = data.TotalValue.Sub(data.TotalCost)
	data.HoldingList = Track(holdingList, data.TotalValue)

	data.TransactionList, err = engine.Transactions(request.Context(), data.User.ID)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.Render(template.Portfolio, writer, data)
}
