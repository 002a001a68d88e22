package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dense-analysis/stocker/internal/accounting"
	"github.com/dense-analysis/stocker/internal/model"
	"github.com/dense-analysis/stocker/internal/route/auth"
	"github.com/dense-analysis/stocker/internal/template"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type addUserCmd struct {
	username string
	email    string
	password string
	role     string
}

func (*addUserCmd) Name() string     { return "adduser" }
func (*addUserCmd) Synopsis() string { return "create an admin or trader account" }
func (*addUserCmd) Usage() string {
	return `adduser -username <name> -email <email> -password <password> [-role trader|admin]
`
}

func (c *addUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "", "display name (required)")
	f.StringVar(&c.email, "email", "", "login email address (required)")
	f.StringVar(&c.password, "password", "", "password, at least 8 characters (required)")
	f.StringVar(&c.role, "role", string(model.RoleTrader), "trader or admin")
}

func (c *addUserCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := appFrom(args)
	role := model.Role(c.role)

	if c.username == "" || c.email == "" || len(c.password) < 8 {
		fmt.Fprint(os.Stderr, c.Usage())

		return subcommands.ExitUsageError
	}

	if role != model.RoleTrader && role != model.RoleAdmin {
		return failf("unknown role %q", c.role)
	}

	hash, err := auth.HashPassword(c.password, a.cfg.BcryptCost)

	if err != nil {
		return failf("password hashing: %s", err)
	}

	user := model.User{Username: c.username, Email: c.email, Password: hash, Role: role}

	if err := model.CreateUser(ctx, a.db, &user); err != nil {
		return failf("%s", err)
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("user created")
	fmt.Fprintf(a.out, "Created %s %s (id %d)\n", user.Role, user.Email, user.ID)

	return subcommands.ExitSuccess
}

type addStockCmd struct {
	symbol    string
	name      string
	price     string
	marketCap string
	sector    string
	industry  string
}

func (*addStockCmd) Name() string     { return "addstock" }
func (*addStockCmd) Synopsis() string { return "add a tradable stock" }
func (*addStockCmd) Usage() string {
	return `addstock -symbol <SYM> -name <name> -price <price> [-market-cap <n> -sector <s> -industry <i>]
`
}

func (c *addStockCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "ticker symbol (required)")
	f.StringVar(&c.name, "name", "", "company name (required)")
	f.StringVar(&c.price, "price", "", "current price (required)")
	f.StringVar(&c.marketCap, "market-cap", "0", "market capitalisation")
	f.StringVar(&c.sector, "sector", "", "sector")
	f.StringVar(&c.industry, "industry", "", "industry")
}

func (c *addStockCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := appFrom(args)

	if strings.TrimSpace(c.symbol) == "" || c.name == "" || c.price == "" {
		fmt.Fprint(os.Stderr, c.Usage())

		return subcommands.ExitUsageError
	}

	price, err := parsePrice(c.price)

	if err != nil {
		return failf("%s", err)
	}

	marketCap, err := decimal.NewFromString(c.marketCap)

	if err != nil {
		return failf("invalid market cap %q", c.marketCap)
	}

	stock := model.Stock{
		Symbol:    c.symbol,
		Name:      c.name,
		Price:     price,
		MarketCap: marketCap,
		Sector:    c.sector,
		Industry:  c.industry,
	}

	if err := model.CreateStock(ctx, a.db, &stock); err != nil {
		return failf("%s", err)
	}

	fmt.Fprintf(a.out, "Added %s at %s\n", stock.Symbol, template.FormatMoney(stock.Price))

	return subcommands.ExitSuccess
}

// parsePrice parses a positive decimal price.
func parsePrice(value string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(value))

	if err != nil || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid price %q", value)
	}

	return price, nil
}

type setPriceCmd struct{}

func (*setPriceCmd) Name() string             { return "setprice" }
func (*setPriceCmd) Synopsis() string         { return "set the current price of a stock" }
func (*setPriceCmd) Usage() string            { return "setprice <SYM> <price>\n" }
func (*setPriceCmd) SetFlags(f *flag.FlagSet) {}

func (c *setPriceCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := appFrom(args)

	if f.NArg() != 2 {
		fmt.Fprint(os.Stderr, c.Usage())

		return subcommands.ExitUsageError
	}

	price, err := parsePrice(f.Arg(1))

	if err != nil {
		return failf("%s", err)
	}

	var stock model.Stock

	if err := model.FindStockBySymbol(ctx, a.db, &stock, f.Arg(0)); err != nil {
		return failf("stock %s: %s", f.Arg(0), err)
	}

	if err := model.UpdateStockPrice(ctx, a.db, stock.ID, price); err != nil {
		return failf("%s", err)
	}

	log.WithFields(log.Fields{"symbol": stock.Symbol, "price": price.String()}).Info("price set")
	fmt.Fprintf(a.out, "%s: %s -> %s\n", stock.Symbol, template.FormatMoney(stock.Price), template.FormatMoney(price))

	return subcommands.ExitSuccess
}

// findTrader loads a trader account by email.
func findTrader(ctx context.Context, a *app, email string) (*model.User, error) {
	var user model.User

	if err := model.FindUserByEmail(ctx, a.db, &user, email, model.RoleTrader); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("no trader with email %s", email)
		}

		return nil, err
	}

	return &user, nil
}

type deleteTraderCmd struct{}

func (*deleteTraderCmd) Name() string             { return "deltrader" }
func (*deleteTraderCmd) Synopsis() string         { return "delete a trader with their holdings and history" }
func (*deleteTraderCmd) Usage() string            { return "deltrader <email>\n" }
func (*deleteTraderCmd) SetFlags(f *flag.FlagSet) {}

func (c *deleteTraderCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := appFrom(args)

	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())

		return subcommands.ExitUsageError
	}

	user, err := findTrader(ctx, a, f.Arg(0))

	if err != nil {
		return failf("%s", err)
	}

	if err := accounting.New(a.db).DeleteUser(ctx, user.ID); err != nil {
		return failf("%s", err)
	}

	fmt.Fprintf(a.out, "Deleted trader %s\n", user.Email)

	return subcommands.ExitSuccess
}

type statementCmd struct{}

func (*statementCmd) Name() string             { return "statement" }
func (*statementCmd) Synopsis() string         { return "print a trader's holdings and history" }
func (*statementCmd) Usage() string            { return "statement <email>\n" }
func (*statementCmd) SetFlags(f *flag.FlagSet) {}

func (c *statementCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	a := appFrom(args)

	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())

		return subcommands.ExitUsageError
	}

	user, err := findTrader(ctx, a, f.Arg(0))

	if err != nil {
		return failf("%s", err)
	}

	engine := accounting.New(a.db)
	holdingList, err := engine.Holdings(ctx, user.ID)

	if err != nil {
		return failf("%s", err)
	}

	transactionList, err := engine.Transactions(ctx, user.ID)

	if err != nil {
		return failf("%s", err)
	}

	total := decimal.Zero

	fmt.Fprintf(a.out, "Statement for %s <%s>\n\nHoldings:\n", user.Username, user.Email)

	for _, holding := range holdingList {
		total = total.Add(holding.Value)
		fmt.Fprintf(
			a.out,
			"  %-8s %6d @ %s  value %s\n",
			holding.Stock.Symbol,
			holding.Quantity,
			template.FormatMoney(holding.AveragePrice),
			template.FormatMoney(holding.Value),
		)
	}

	fmt.Fprintf(a.out, "Total value: %s\n\nTransactions:\n", template.FormatMoney(total))

	for _, transaction := range transactionList {
		fmt.Fprintf(
			a.out,
			"  %s %-4s %-8s %6d @ %s\n",
			transaction.TransactionDate.UTC().Format("2006-01-02 15:04"),
			transaction.Action,
			transaction.Stock.Symbol,
			transaction.Quantity,
			template.FormatMoney(transaction.Price),
		)
	}

	return subcommands.ExitSuccess
}
