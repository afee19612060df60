package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/quote"
	"github.com/etnz/stockbook/renderer"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct {
	quotes       string
	path         string
	defaultPrice string
	fetch        bool
	lots         bool
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display the holdings valued at market prices" }
func (*holdingCmd) Usage() string {
	return `sbk holding [-q <quotes.json>] [-path <jsonpath>] [-fetch] [-default-price <price>] [-lots]

  Displays the account holdings (stocks and cash). Prices are read from a JSON
  quote file, or fetched from the quote URL of the configuration with -fetch.
  A "{symbol}" placeholder in the path is replaced by each symbol.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.quotes, "q", "", "JSON quote file (default: from the configuration)")
	f.StringVar(&c.path, "path", "", "JSONPath of a price in the quotes (default: from the configuration)")
	f.StringVar(&c.defaultPrice, "default-price", "", "Price used for symbols without a quote")
	f.BoolVar(&c.fetch, "fetch", false, "Fetch the prices from the quote URL")
	f.BoolVar(&c.lots, "lots", false, "Show the lots of every holding")
}

// prices builds the price provider described by the flags and the
// configuration. It is nil when no price source is available.
func (c *holdingCmd) prices(ctx context.Context, s *session) (stockbook.PriceProvider, error) {
	q := s.config.Quotes
	if c.path != "" {
		q.Path = c.path
	}
	if c.quotes != "" {
		q.File = c.quotes
	}

	var p stockbook.PriceProvider
	switch {
	case c.fetch:
		if q.URL == "" {
			return nil, fmt.Errorf("-fetch needs a quote URL in the configuration")
		}
		client := &quote.Client{
			HTTP:     quote.NewCachedClient(q.CacheDir, s.logger),
			URL:      q.URL,
			Path:     q.Path,
			Currency: q.Currency,
			Logger:   s.logger,
		}
		client.HTTP.Timeout = q.GetTimeout()
		snapshot, err := client.Snapshot(ctx, s.account.OwnedSymbols())
		if err != nil {
			// missing quotes are reported by the report itself
			s.logger.Warn("some quotes could not be fetched", zap.Error(err))
		}
		p = snapshot
	case q.File != "":
		doc, err := quote.LoadDocument(q.File, q.Path, q.Currency)
		if err != nil {
			return nil, err
		}
		p = doc
	}

	if c.defaultPrice != "" {
		fallback, err := stockbook.ParseMoney(c.defaultPrice, s.account.Currency())
		if err != nil {
			return nil, fmt.Errorf("invalid default price: %w", err)
		}
		if p == nil {
			p = stockbook.PriceMap{}
		}
		p = stockbook.WithDefaultPrice(p, fallback)
	}
	return p, nil
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := loadSession()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer s.close()

	prices, err := c.prices(ctx, s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if prices == nil {
		prices = stockbook.PriceMap{}
	}

	report, err := s.account.NewHoldingReport(prices)
	if err != nil {
		// the report lists unpriced holdings, the error tells which
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	printMarkdown(renderer.HoldingMarkdown(report, renderer.HoldingOptions{Lots: c.lots}))
	return subcommands.ExitSuccess
}
