package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/renderer"
	"github.com/etnz/stockbook/store"
	"github.com/google/subcommands"
)

type historyCmd struct {
	symbol string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list the orders and cash deposits" }
func (*historyCmd) Usage() string {
	return `sbk history [-s <symbol>]

  Lists the recorded orders, and the cash history unless a symbol is given.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Only list the orders of this symbol")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := loadSession()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.close()

	printMarkdown(renderer.HistoryMarkdown(s.account, c.symbol))
	return subcommands.ExitSuccess
}

type replayCmd struct {
	verify bool
	save   bool
}

func (*replayCmd) Name() string     { return "replay" }
func (*replayCmd) Synopsis() string { return "rebuild the account from its history" }
func (*replayCmd) Usage() string {
	return `sbk replay [-verify] [-save]

  Rebuilds cash and lots from the initial cash, the deposits and the orders,
  and lists the orders that could not be replayed.
  With -verify, fails if the stored current cash differs from the replayed
  one.
  With -save, writes the rebuilt account back.
`
}

func (c *replayCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.verify, "verify", false, "Fail when the stored state differs from the replay")
	f.BoolVar(&c.save, "save", false, "Save the rebuilt account")
}

func (c *replayCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openSession()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.close()

	a, issues, err := stockbook.LoadAccount(s.file, stockbook.WithLogger(s.logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	s.account = a

	// The account is already the replay of its history: the only state that
	// can diverge is the stored current_money, reported by LoadAccount.
	var verifyErr error
	for _, issue := range issues {
		if errors.Is(issue, stockbook.ErrStateDiverged) {
			verifyErr = issue
		}
	}
	// Reconstruct is idempotent, it is only run for the skipped orders.
	skipped := a.Reconstruct()

	printMarkdown(renderer.ReplayMarkdown(a, skipped, verifyErr))

	if c.save {
		if err := s.save(ctx, func(st *store.Store) error { return st.Save(ctx, a) }); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	if c.verify && verifyErr != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
