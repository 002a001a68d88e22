// Administer users, stocks and prices from the command line
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/database"
	"github.com/google/subcommands"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// app is passed to every command's Execute.
type app struct {
	db  *gorm.DB
	cfg *config.Config
	out io.Writer
}

// appFrom returns the app from the Execute arguments.
func appFrom(args []any) *app {
	if len(args) == 0 {
		return nil
	}

	a, _ := args[0].(*app)

	return a
}

// Commands lists every stockerctl command.
var Commands = []subcommands.Command{
	&addUserCmd{},
	&addStockCmd{},
	&setPriceCmd{},
	&deleteTraderCmd{},
	&statementCmd{},
}

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range Commands {
		commander.Register(c, "")
	}

	flag.Parse()

	cfg := config.MustLoad()
	db, err := database.Connect(cfg.Database)

	if err != nil {
		log.Fatalf("Connection error: %s", err)
	}

	status := commander.Execute(context.Background(), &app{db: db, cfg: cfg, out: os.Stdout})
	_ = database.Close(db)

	os.Exit(int(status))
}

func failf(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)

	return subcommands.ExitFailure
}
