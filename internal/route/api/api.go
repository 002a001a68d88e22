// Package api defines the read-only JSON API, authenticated with bearer tokens.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dense-analysis/stocker/internal/accounting"
	"github.com/dense-analysis/stocker/internal/model"
	"github.com/dense-analysis/stocker/pkg/lax"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const userKey = "user"

var validate = validator.New()

// API holds what the API views need.
type API struct {
	db     *gorm.DB
	tokens *Tokens
}

func New(db *gorm.DB, tokens *Tokens) *API {
	return &API{db: db, tokens: tokens}
}

// guard builds a lax Guard which admits valid tokens for `role`, or any role if empty.
func (api *API) guard(role model.Role) lax.MethodHandler {
	return func(request *lax.Request) any {
		tokenString, ok := BearerToken(request.Header.Get("Authorization"))

		if !ok {
			return lax.MakeUnauthorizedResponse("missing bearer token")
		}

		actor, err := api.tokens.Parse(tokenString)

		if err != nil {
			return lax.MakeUnauthorizedResponse(ErrInvalidToken.Error())
		}

		var user model.User

		if err := model.FindUserByID(request.Context(), api.db, &user, actor.UserID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return lax.MakeUnauthorizedResponse(ErrInvalidToken.Error())
			}

			return err
		}

		if user.Role != actor.Role {
			return lax.MakeUnauthorizedResponse(ErrInvalidToken.Error())
		}

		if role != "" && user.Role != role {
			return lax.MakeForbiddenResponse("this endpoint is for " + string(role) + " accounts")
		}

		request.Set(userKey, &user)

		return nil
	}
}

func requestUser(request *lax.Request) *model.User {
	user, _ := request.Value(userKey).(*model.User)

	return user
}

type TokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenView exchanges an email and password for a token.
func (api *API) TokenView() lax.View {
	return lax.View{
		Post: func(request *lax.Request) any {
			var body TokenRequest

			if err := request.JSON(&body); err != nil {
				return lax.MakeBadRequestResponse("request body must be a JSON object")
			}

			if err := validate.Struct(body); err != nil {
				return lax.MakeErrorListResponse(describeIssues(err)...)
			}

			var user model.User

			if err := model.FindUserByEmail(request.Context(), api.db, &user, body.Email, ""); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return lax.MakeUnauthorizedResponse("invalid credentials")
				}

				return err
			}

			if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)) != nil {
				return lax.MakeUnauthorizedResponse("invalid credentials")
			}

			token, expiresAt, err := api.tokens.Issue(&user)

			if err != nil {
				return err
			}

			log.WithField("user_id", user.ID).Info("api token issued")

			return lax.MakeResponse(http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
		},
	}
}

func describeIssues(err error) []lax.IssueDescription {
	var validationErrors validator.ValidationErrors

	if !errors.As(err, &validationErrors) {
		return []lax.IssueDescription{lax.Issue("", err.Error())}
	}

	issues := make([]lax.IssueDescription, 0, len(validationErrors))

	for _, fieldError := range validationErrors {
		issues = append(issues, lax.Issue(fieldError.Field(), "failed "+fieldError.Tag()))
	}

	return issues
}

// StockListView lists every stock for any valid token.
func (api *API) StockListView() lax.View {
	return lax.View{
		Guard: api.guard(""),
		Get: func(request *lax.Request) any {
			stockList := []model.Stock{}

			if err := model.LoadStockList(request.Context(), api.db, &stockList); err != nil {
				return err
			}

			return stockList
		},
	}
}

type PortfolioResponse struct {
	Holdings     []accounting.Holding `json:"holdings"`
	Value        decimal.Decimal      `json:"value"`
	Transactions []model.Transaction  `json:"transactions"`
}

// PortfolioView shows a trader their own holdings and history.
func (api *API) PortfolioView() lax.View {
	return lax.View{
		Guard: api.guard(model.RoleTrader),
		Get: func(request *lax.Request) any {
			user := requestUser(request)
			engine := accounting.New(api.db)

			holdingList, err := engine.Holdings(request.Context(), user.ID)

			if err != nil {
				return err
			}

			transactionList, err := engine.Transactions(request.Context(), user.ID)

			if err != nil {
				return err
			}

			response := PortfolioResponse{
				Holdings:     holdingList,
				Value:        decimal.Zero,
				Transactions: transactionList,
			}

			for _, holding := range holdingList {
				response.Value = response.Value.Add(holding.Value)
			}

			return response
		},
	}
}

// TraderListView lists traders with their portfolio values for admins.
func (api *API) TraderListView() lax.View {
	return lax.View{
		Guard: api.guard(model.RoleAdmin),
		Get: func(request *lax.Request) any {
			traderList, err := accounting.New(api.db).TraderValues(request.Context())

			if err != nil {
				return err
			}

			return traderList
		},
	}
}
