package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/store"
	"github.com/google/subcommands"
	"github.com/google/uuid"
)

type initCmd struct {
	cash     string
	id       string
	currency string
	force    bool
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create a new account" }
func (*initCmd) Usage() string {
	return `sbk init -cash <amount> [-id <id>] [-currency <code>] [-force]

  Creates a new account holding <amount> of cash. The id defaults to a random UUID.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.cash, "cash", "0", "Initial cash")
	f.StringVar(&c.id, "id", "", "Account id (default: a random UUID)")
	f.StringVar(&c.currency, "currency", "", "Account currency (default: from the configuration)")
	f.BoolVar(&c.force, "force", false, "Overwrite an existing account file")
}

func (c *initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openSession()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.close()

	if _, err := os.Stat(s.file); err == nil && !c.force {
		fmt.Fprintf(os.Stderr, "Error: account file %q already exists, use -force to overwrite it\n", s.file)
		return subcommands.ExitFailure
	}

	currency := c.currency
	if currency == "" {
		currency = s.config.Currency
	}
	cash, err := stockbook.ParseMoney(c.cash, currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing cash: %v\n", err)
		return subcommands.ExitUsageError
	}
	if cash.IsNegative() {
		fmt.Fprintln(os.Stderr, "Error: initial cash must not be negative")
		return subcommands.ExitUsageError
	}
	id := c.id
	if id == "" {
		id = uuid.NewString()
	}

	s.account = stockbook.NewAccount(id, cash, stockbook.WithLogger(s.logger))
	record := func(st *store.Store) error { return st.Create(ctx, s.account) }
	if c.force {
		record = func(st *store.Store) error { return st.Save(ctx, s.account) }
	}
	if err := s.save(ctx, record); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Account %s created in %s with %s\n", id, s.file, cash)
	return subcommands.ExitSuccess
}
