// Package query holds lookups shared between routes.
package query

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dense-analysis/stocker/internal/model"
	"github.com/dense-analysis/stocker/internal/route/util"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// ParseID reads a positive numeric ID from the route variable `name`.
func ParseID(request *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(request)[name], 10, 64)

	if err != nil || id == 0 {
		return 0, false
	}

	return uint(id), true
}

// LoadStockForRequest loads the stock named by the `id` route variable.
//
// A response is written and `false` is returned if the stock can't be loaded.
func LoadStockForRequest(
	db *gorm.DB,
	writer http.ResponseWriter,
	request *http.Request,
	stock *model.Stock,
) bool {
	stockID, ok := ParseID(request, "id")

	if !ok {
		util.RespondNotFound(writer)

		return false
	}

	if err := model.FindStockByID(request.Context(), db, stock, stockID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			util.RespondNotFound(writer)
		} else {
			util.RespondInternalServerError(writer, err)
		}

		return false
	}

	return true
}

var validate = validator.New()

// TradeForm is the form submitted to buy or sell shares.
type TradeForm struct {
	Quantity int64 `validate:"gt=0"`
}

// ParseQuantity reads a whole, positive number of shares from a form value.
func ParseQuantity(value string) (int64, bool) {
	quantity, err := strconv.ParseInt(value, 10, 64)

	if err != nil {
		return 0, false
	}

	if err := validate.Struct(TradeForm{Quantity: quantity}); err != nil {
		return 0, false
	}

	return quantity, true
}
