package main

import (
	"bytes"
	"context"
	"flag"
	"testing"

	"github.com/dense-analysis/stocker/internal/accounting"
	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/database/databasetest"
	"github.com/dense-analysis/stocker/internal/model"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	out := &bytes.Buffer{}

	return &app{
		db:  databasetest.Open(t),
		cfg: &config.Config{BcryptCost: bcrypt.MinCost},
		out: out,
	}, out
}

// run parses `arguments` for a command and executes it.
func run(t *testing.T, a *app, command subcommands.Command, arguments ...string) subcommands.ExitStatus {
	t.Helper()

	flagSet := flag.NewFlagSet(command.Name(), flag.ContinueOnError)
	command.SetFlags(flagSet)
	require.NoError(t, flagSet.Parse(arguments))

	return command.Execute(context.Background(), flagSet, a)
}

func TestAddUser(t *testing.T) {
	a, out := newTestApp(t)

	status := run(t, a, &addUserCmd{}, "-username", "boss", "-email", "Boss@Example.com", "-password", "longenough", "-role", "admin")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out.String(), "Created admin boss@example.com")

	var user model.User
	require.NoError(t, model.FindUserByEmail(context.Background(), a.db, &user, "boss@example.com", model.RoleAdmin))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("longenough")))

	status = run(t, a, &addUserCmd{}, "-username", "boss", "-email", "boss@example.com", "-password", "longenough")
	assert.Equal(t, subcommands.ExitFailure, status)

	status = run(t, a, &addUserCmd{}, "-username", "x", "-email", "x@example.com", "-password", "short")
	assert.Equal(t, subcommands.ExitUsageError, status)

	status = run(t, a, &addUserCmd{}, "-username", "x", "-email", "x@example.com", "-password", "longenough", "-role", "root")
	assert.Equal(t, subcommands.ExitFailure, status)
}

func TestAddStockAndSetPrice(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	status := run(t, a, &addStockCmd{}, "-symbol", "acme", "-name", "Acme Corp", "-price", "10.5", "-sector", "Tech")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out.String(), "Added ACME at $10.50")

	status = run(t, a, &addStockCmd{}, "-symbol", "BAD", "-name", "Bad", "-price", "-1")
	assert.Equal(t, subcommands.ExitFailure, status)

	status = run(t, a, &setPriceCmd{}, "ACME", "12.25")
	require.Equal(t, subcommands.ExitSuccess, status)

	var stock model.Stock
	require.NoError(t, model.FindStockBySymbol(ctx, a.db, &stock, "ACME"))
	assert.Equal(t, "12.25", stock.Price.String())
	assert.Equal(t, "Tech", stock.Sector)

	assert.Equal(t, subcommands.ExitFailure, run(t, a, &setPriceCmd{}, "NOPE", "1"))
	assert.Equal(t, subcommands.ExitFailure, run(t, a, &setPriceCmd{}, "ACME", "0"))
	assert.Equal(t, subcommands.ExitUsageError, run(t, a, &setPriceCmd{}, "ACME"))
}

func TestStatementAndDeleteTrader(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()
	trader := databasetest.CreateUser(t, a.db, "trader", model.RoleTrader)
	stock := databasetest.CreateStock(t, a.db, "ACME", "10")

	_, err := accounting.New(a.db).Buy(ctx, trader.Actor(), accounting.Order{
		StockID:  stock.ID,
		Quantity: 3,
		Price:    stock.Price,
	})
	require.NoError(t, err)

	require.Equal(t, subcommands.ExitSuccess, run(t, a, &statementCmd{}, trader.Email))
	assert.Contains(t, out.String(), "Statement for trader <trader@example.com>")
	assert.Contains(t, out.String(), "Total value: $30.00")
	assert.Contains(t, out.String(), "buy  ACME")

	assert.Equal(t, subcommands.ExitFailure, run(t, a, &statementCmd{}, "nobody@example.com"))

	require.Equal(t, subcommands.ExitSuccess, run(t, a, &deleteTraderCmd{}, trader.Email))

	var count int64
	require.NoError(t, a.db.Model(&model.Portfolio{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.Equal(t, subcommands.ExitFailure, run(t, a, &deleteTraderCmd{}, trader.Email))
}
