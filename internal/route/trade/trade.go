// Package trade defines the routes traders use to browse and trade stocks.
package trade

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dense-analysis/stocker/internal/accounting"
	"github.com/dense-analysis/stocker/internal/model"
	"github.com/dense-analysis/stocker/internal/route/query"
	"github.com/dense-analysis/stocker/internal/route/util"
	"github.com/dense-analysis/stocker/internal/session"
	"github.com/dense-analysis/stocker/internal/template"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardPageData struct {
	util.Page
	StockList      []model.Stock
	PortfolioValue decimal.Decimal
}

// HandleDashboard shows the market and the value of the trader's holdings.
func HandleDashboard(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	data := DashboardPageData{Page: util.LoadPage(writer, request)}

	if err := model.LoadStockList(request.Context(), db, &data.StockList); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	var err error
	data.PortfolioValue, err = accounting.New(db).PortfolioValue(request.Context(), data.User.ID)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.Render(template.TraderDashboard, writer, data)
}

type StockListPageData struct {
	util.Page
	StockList []model.Stock
}

func HandleStockList(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	data := StockListPageData{Page: util.LoadPage(writer, request)}

	if err := model.LoadStockList(request.Context(), db, &data.StockList); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.Render(template.StockList, writer, data)
}

type TradePageData struct {
	util.Page
	Stock        model.Stock
	Verb         string
	Held         int64
	AveragePrice decimal.Decimal
}

func tradePath(stock *model.Stock, action model.Action) string {
	return fmt.Sprintf("/stocks/%d/%s", stock.ID, action)
}

// loadHolding loads the portfolio row of the user for a stock, if any.
func loadHolding(db *gorm.DB, request *http.Request, user *model.User, stock *model.Stock) (*model.Portfolio, error) {
	var portfolioList []model.Portfolio

	err := db.WithContext(request.Context()).
		Where("user_id = ? AND stock_id = ?", user.ID, stock.ID).
		Limit(1).
		Find(&portfolioList).
		Error

	if err != nil || len(portfolioList) == 0 {
		return nil, err
	}

	return &portfolioList[0], nil
}

func HandleViewBuyForm(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	data := TradePageData{Verb: "Buy"}

	if !query.LoadStockForRequest(db, writer, request, &data.Stock) {
		return
	}

	data.Page = util.LoadPage(writer, request)
	template.Render(template.Buy, writer, data)
}

// respondTradeError maps a failed trade to a message on the trade form.
func respondTradeError(
	writer http.ResponseWriter,
	request *http.Request,
	stock *model.Stock,
	action model.Action,
	err error,
) {
	switch {
	case errors.Is(err, accounting.ErrInvalidQuantity):
		util.RedirectWithFlash(writer, request, tradePath(stock, action), session.FlashError, "Please enter a valid quantity.")
	case errors.Is(err, accounting.ErrInsufficientHoldings):
		util.RedirectWithFlash(writer, request, tradePath(stock, action), session.FlashError, "You don't have enough shares to sell.")
	case errors.Is(err, accounting.ErrNoSuchHolding):
		util.RedirectWithFlash(writer, request, "/stocks", session.FlashError, "You don't own any shares of this stock.")
	case errors.Is(err, accounting.ErrNotFound):
		util.RespondNotFound(writer)
	default:
		util.RespondInternalServerError(writer, err)
	}
}

func HandleBuy(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	var stock model.Stock

	if !query.LoadStockForRequest(db, writer, request, &stock) {
		return
	}

	user, err := session.UserFromContext(request.Context())

	if err != nil {
		util.RespondForbidden(writer)

		return
	}

	request.ParseForm()
	quantity, ok := query.ParseQuantity(request.Form.Get("quantity"))

	if !ok {
		respondTradeError(writer, request, &stock, model.ActionBuy, accounting.ErrInvalidQuantity)

		return
	}

	order := accounting.Order{StockID: stock.ID, Quantity: quantity, Price: stock.Price}

	if _, err := accounting.New(db).Buy(request.Context(), user.Actor(), order); err != nil {
		respondTradeError(writer, request, &stock, model.ActionBuy, err)

		return
	}

	util.RedirectWithFlash(
		writer,
		request,
		"/portfolio",
		session.FlashSuccess,
		fmt.Sprintf("Successfully purchased %d shares of %s!", quantity, stock.Symbol),
	)
}

func HandleViewSellForm(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	data := TradePageData{Verb: "Sell"}

	if !query.LoadStockForRequest(db, writer, request, &data.Stock) {
		return
	}

	user, err := session.UserFromContext(request.Context())

	if err != nil {
		util.RespondForbidden(writer)

		return
	}

	holding, err := loadHolding(db, request, user, &data.Stock)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	if holding == nil {
		respondTradeError(writer, request, &data.Stock, model.ActionSell, accounting.ErrNoSuchHolding)

		return
	}

	data.Held = holding.Quantity
	data.AveragePrice = holding.AveragePrice
	data.Page = util.LoadPage(writer, request)
	template.Render(template.Sell, writer, data)
}

func HandleSell(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	var stock model.Stock

	if !query.LoadStockForRequest(db, writer, request, &stock) {
		return
	}

	user, err := session.UserFromContext(request.Context())

	if err != nil {
		util.RespondForbidden(writer)

		return
	}

	holding, err := loadHolding(db, request, user, &stock)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	if holding == nil {
		respondTradeError(writer, request, &stock, model.ActionSell, accounting.ErrNoSuchHolding)

		return
	}

	request.ParseForm()
	quantity, ok := query.ParseQuantity(request.Form.Get("quantity"))

	if !ok {
		respondTradeError(writer, request, &stock, model.ActionSell, accounting.ErrInvalidQuantity)

		return
	}

	order := accounting.Order{StockID: stock.ID, Quantity: quantity, Price: stock.Price}

	if _, err := accounting.New(db).Sell(request.Context(), user.Actor(), order); err != nil {
		respondTradeError(writer, request, &stock, model.ActionSell, err)

		return
	}

	util.RedirectWithFlash(
		writer,
		request,
		"/portfolio",
		session.FlashSuccess,
		fmt.Sprintf("Successfully sold %d shares of %s!", quantity, stock.Symbol),
	)
}
