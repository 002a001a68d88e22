// Package admin defines the routes for administrators.
package admin

import (
	"errors"
	"net/http"

	"github.com/dense-analysis/stocker/internal/accounting"
	"github.com/dense-analysis/stocker/internal/model"
	"github.com/dense-analysis/stocker/internal/route/query"
	"github.com/dense-analysis/stocker/internal/route/util"
	"github.com/dense-analysis/stocker/internal/session"
	"github.com/dense-analysis/stocker/internal/template"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DashboardPageData struct {
	util.Page
	StockList   []model.Stock
	TraderCount int
	TotalValue  decimal.Decimal
}

func HandleDashboard(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	data := DashboardPageData{Page: util.LoadPage(writer, request)}

	if err := model.LoadStockList(request.Context(), db, &data.StockList); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	traderList, err := accounting.New(db).TraderValues(request.Context())

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	data.TraderCount = len(traderList)
	data.TotalValue = decimal.Zero

	for _, trader := range traderList {
		data.TotalValue = data.TotalValue.Add(trader.PortfolioValue)
	}

	template.Render(template.AdminDashboard, writer, data)
}

type TraderListPageData struct {
	util.Page
	TraderList []accounting.TraderValue
}

func HandleTraderList(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	data := TraderListPageData{Page: util.LoadPage(writer, request)}

	var err error
	data.TraderList, err = accounting.New(db).TraderValues(request.Context())

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.Render(template.TraderList, writer, data)
}

// HandleDeleteTrader removes a trader along with their holdings and history.
func HandleDeleteTrader(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	userID, ok := query.ParseID(request, "id")

	if !ok {
		util.RespondNotFound(writer)

		return
	}

	var user model.User

	if err := model.FindUserByID(request.Context(), db, &user, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			util.RespondNotFound(writer)
		} else {
			util.RespondInternalServerError(writer, err)
		}

		return
	}

	// Admin accounts can't be removed from here.
	if user.Role != model.RoleTrader {
		util.RespondForbidden(writer)

		return
	}

	if err := accounting.New(db).DeleteUser(request.Context(), user.ID); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	if admin, err := session.UserFromContext(request.Context()); err == nil {
		log.WithFields(log.Fields{"admin_id": admin.ID, "user_id": user.ID}).Info("trader removed")
	}

	util.RedirectWithFlash(writer, request, "/admin/traders", session.FlashSuccess, "Removed trader "+user.Username+".")
}

type TransactionListPageData struct {
	util.Page
	TransactionList []model.Transaction
}

func HandleTransactionList(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	data := TransactionListPageData{Page: util.LoadPage(writer, request)}

	var err error
	data.TransactionList, err = accounting.New(db).AllTransactions(request.Context())

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.Render(template.TransactionList, writer, data)
}

type HoldingListPageData struct {
	util.Page
	HoldingList []accounting.Holding
	TotalValue  decimal.Decimal
}

func HandleHoldingList(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	data := HoldingListPageData{Page: util.LoadPage(writer, request)}

	var err error
	data.HoldingList, data.TotalValue, err = accounting.New(db).AllHoldings(request.Context())

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.Render(template.HoldingList, writer, data)
}
