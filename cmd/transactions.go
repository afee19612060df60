package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/store"
	"github.com/google/subcommands"
)

// orderCmd implements both 'buy' and 'sell'.
type orderCmd struct {
	action stockbook.Action
	date   string
}

func (c *orderCmd) Name() string { return c.action.String() }
func (c *orderCmd) Synopsis() string {
	if c.action == stockbook.Buy {
		return "buy shares of a stock"
	}
	return "sell shares of a stock"
}
func (c *orderCmd) Usage() string {
	return fmt.Sprintf(`sbk %s [-d <date>] <symbol> <quantity> <price>

  Places an order to %s <quantity> shares of <symbol> at <price> per share.
  An order the account cannot honor is rejected and nothing is recorded.
`, c.action, c.action)
}

func (c *orderCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Order time, YYYY-MM-DD or RFC 3339 (default: now)")
}

func (c *orderCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	on, err := parseTime(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	quantity, err := stockbook.ParseQuantity(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing quantity: %v\n", err)
		return subcommands.ExitUsageError
	}

	s, err := loadSession()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.close()

	price, err := stockbook.ParseMoney(f.Arg(2), s.account.Currency())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing price: %v\n", err)
		return subcommands.ExitUsageError
	}
	order := stockbook.TradingOrder{Symbol: f.Arg(0), Action: c.action, Price: price, Quantity: quantity, Time: on}

	if err := s.account.ApplyOrder(order); err != nil {
		var rejection *stockbook.RejectionError
		if errors.As(err, &rejection) {
			fmt.Fprintf(os.Stderr, "Rejected: %v\n", rejection)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return subcommands.ExitFailure
	}
	if err := s.save(ctx, func(st *store.Store) error { return st.AppendOrder(ctx, s.account.ID(), order) }); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "%s, cash is now %s\n", order, s.account.Cash())
	return subcommands.ExitSuccess
}

type depositCmd struct {
	date string
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "inject cash into the account" }
func (*depositCmd) Usage() string {
	return `sbk deposit [-d <date>] <amount>

  Adds <amount> of cash to the account.
`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Deposit time, YYYY-MM-DD or RFC 3339 (default: now)")
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	on, err := parseTime(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	s, err := loadSession()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.close()

	amount, err := stockbook.ParseMoney(f.Arg(0), s.account.Currency())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	injection := stockbook.NewCashInjection(on, amount)
	if err := s.account.ApplyCashInjection(injection); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := s.save(ctx, func(st *store.Store) error { return st.AppendInjection(ctx, s.account.ID(), injection) }); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Deposited %s, cash is now %s\n", amount, s.account.Cash())
	return subcommands.ExitSuccess
}

// watchCmd implements both 'watch' and 'unwatch'.
type watchCmd struct {
	remove bool
}

func (c *watchCmd) Name() string {
	if c.remove {
		return "unwatch"
	}
	return "watch"
}
func (c *watchCmd) Synopsis() string {
	if c.remove {
		return "remove symbols from the watchlist"
	}
	return "add symbols to the watchlist"
}
func (c *watchCmd) Usage() string {
	return fmt.Sprintf(`sbk %s <symbol>...

  %s.
`, c.Name(), c.Synopsis())
}

func (c *watchCmd) SetFlags(*flag.FlagSet) {}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	s, err := loadSession()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.close()

	changed := false
	for _, symbol := range f.Args() {
		if c.remove {
			changed = s.account.RemoveFromWatchlist(symbol) || changed
		} else {
			changed = s.account.AddToWatchlist(symbol) || changed
		}
	}
	if !changed {
		fmt.Fprintln(stdout, "Watchlist unchanged")
		return subcommands.ExitSuccess
	}
	if err := s.save(ctx, func(st *store.Store) error { return st.SetWatchlist(ctx, s.account.ID(), s.account.Watchlist()) }); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Watchlist: %v\n", s.account.Watchlist())
	return subcommands.ExitSuccess
}
