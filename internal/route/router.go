// Package route wires every page and API view into one router.
package route

import (
	"net/http"
	"time"

	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/model"
	"github.com/dense-analysis/stocker/internal/route/admin"
	"github.com/dense-analysis/stocker/internal/route/api"
	"github.com/dense-analysis/stocker/internal/route/auth"
	"github.com/dense-analysis/stocker/internal/route/portfolio"
	"github.com/dense-analysis/stocker/internal/route/trade"
	"github.com/dense-analysis/stocker/internal/route/util"
	"github.com/dense-analysis/stocker/internal/session"
	"github.com/dense-analysis/stocker/internal/template"
	"github.com/dense-analysis/stocker/pkg/lax"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type dbHandler = func(db *gorm.DB, writer http.ResponseWriter, request *http.Request)

func bind(db *gorm.DB, handler dbHandler) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		handler(db, writer, request)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(status int) {
	recorder.status = status
	recorder.ResponseWriter.WriteHeader(status)
}

// logRequests logs every request with an ID also sent back in X-Request-ID.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requestID := request.Header.Get("X-Request-ID")

		if requestID == "" {
			requestID = uuid.NewString()
		}

		writer.Header().Set("X-Request-ID", requestID)
		recorder := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, request)

		log.WithFields(log.Fields{
			"request_id": requestID,
			"method":     request.Method,
			"path":       request.URL.Path,
			"status":     recorder.status,
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}

func handleIndex(writer http.ResponseWriter, request *http.Request) {
	if user, err := session.UserFromContext(request.Context()); err == nil {
		http.Redirect(writer, request, auth.DashboardPath(user.Role), http.StatusFound)

		return
	}

	template.Render(template.Index, writer, util.LoadPage(writer, request))
}

// NewRouter creates the router for the whole application.
//
// template.Init and session.Init must be called first.
func NewRouter(db *gorm.DB, cfg *config.Config) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(logRequests)

	tokens := api.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	views := api.New(db, tokens)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Handle("/token", lax.Wrap(views.TokenView())).Methods("POST")
	apiRouter.Handle("/stocks", lax.Wrap(views.StockListView())).Methods("GET")
	apiRouter.Handle("/portfolio", lax.Wrap(views.PortfolioView())).Methods("GET")
	apiRouter.Handle("/traders", lax.Wrap(views.TraderListView())).Methods("GET")

	fileServer := http.FileServer(http.Dir("./static/"))
	router.PathPrefix("/static/").
		Handler(http.StripPrefix("/static/", fileServer))

	pages := router.PathPrefix("/").Subrouter()
	pages.Use(auth.LoadUser(db))

	pages.HandleFunc("/", handleIndex).Methods("GET")
	pages.HandleFunc("/login", auth.HandleViewLoginForm).Methods("GET")
	pages.HandleFunc("/login", bind(db, auth.HandleLogin)).Methods("POST")
	pages.HandleFunc("/signup", func(writer http.ResponseWriter, request *http.Request) {
		auth.HandleViewSignupForm(cfg, writer, request)
	}).Methods("GET")
	pages.HandleFunc("/signup", func(writer http.ResponseWriter, request *http.Request) {
		auth.HandleSignup(db, cfg, writer, request)
	}).Methods("POST")
	pages.HandleFunc("/logout", auth.HandleLogout).Methods("POST")

	adminRouter := pages.PathPrefix("/admin").Subrouter()
	adminRouter.Use(auth.RequireRole(db, model.RoleAdmin))
	adminRouter.HandleFunc("", bind(db, admin.HandleDashboard)).Methods("GET")
	adminRouter.HandleFunc("/traders", bind(db, admin.HandleTraderList)).Methods("GET")
	adminRouter.HandleFunc("/traders/{id}/delete", bind(db, admin.HandleDeleteTrader)).Methods("POST")
	adminRouter.HandleFunc("/transactions", bind(db, admin.HandleTransactionList)).Methods("GET")
	adminRouter.HandleFunc("/holdings", bind(db, admin.HandleHoldingList)).Methods("GET")

	traderRouter := pages.NewRoute().Subrouter()
	traderRouter.Use(auth.RequireRole(db, model.RoleTrader))
	traderRouter.HandleFunc("/trader", bind(db, trade.HandleDashboard)).Methods("GET")
	traderRouter.HandleFunc("/stocks", bind(db, trade.HandleStockList)).Methods("GET")
	traderRouter.HandleFunc("/stocks/{id}/buy", bind(db, trade.HandleViewBuyForm)).Methods("GET")
	traderRouter.HandleFunc("/stocks/{id}/buy", bind(db, trade.HandleBuy)).Methods("POST")
	traderRouter.HandleFunc("/stocks/{id}/sell", bind(db, trade.HandleViewSellForm)).Methods("GET")
	traderRouter.HandleFunc("/stocks/{id}/sell", bind(db, trade.HandleSell)).Methods("POST")
	traderRouter.HandleFunc("/portfolio", bind(db, portfolio.HandlePortfolio)).Methods("GET")

	return router
}
