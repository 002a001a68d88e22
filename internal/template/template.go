package template

import (
	"embed"
	"html/template"
	"io"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

//go:embed html/*.tmpl
var files embed.FS

var Index *template.Template
var Login *template.Template
var Signup *template.Template
var AdminDashboard *template.Template
var TraderList *template.Template
var TransactionList *template.Template
var HoldingList *template.Template
var TraderDashboard *template.Template
var StockList *template.Template
var Buy *template.Template
var Sell *template.Template
var Portfolio *template.Template

// FormatMoney formats a decimal amount as US dollars.
func FormatMoney(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()

	return money.New(cents, money.USD).Display()
}

var funcMap = template.FuncMap{
	"money": FormatMoney,
}

func parse(names ...string) *template.Template {
	paths := make([]string, 0, len(names)+1)
	paths = append(paths, "html/base.tmpl")

	for _, name := range names {
		paths = append(paths, "html/"+name+".tmpl")
	}

	return template.Must(template.New("base").Funcs(funcMap).ParseFS(files, paths...))
}

func Init() {
	Index = parse("index")
	Login = parse("login")
	Signup = parse("signup")
	AdminDashboard = parse("dashboard_admin")
	TraderList = parse("traders")
	TransactionList = parse("transactions")
	HoldingList = parse("holdings")
	TraderDashboard = parse("dashboard_trader")
	StockList = parse("stocks")
	Buy = parse("trade_form", "buy")
	Sell = parse("trade_form", "sell")
	Portfolio = parse("portfolio")
}

func Render(tmpl *template.Template, writer io.Writer, data any) {
	if err := tmpl.ExecuteTemplate(writer, "base", data); err != nil {
		log.WithError(err).WithField("template", tmpl.Name()).Error("template render failed")
	}
}
