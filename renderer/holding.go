package renderer

import (
	"bytes"
	"strings"

	"github.com/etnz/stockbook"
	md "github.com/nao1215/markdown"
)

// HoldingOptions holds configuration for rendering a holding report.
type HoldingOptions struct {
	Lots bool // Render the lots of every holding.
}

// HoldingMarkdown renders a holding report.
func HoldingMarkdown(r *stockbook.HoldingReport, opts HoldingOptions) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(title(r.AccountID))
	if !r.Time.IsZero() {
		doc.PlainText(md.Italic("As of " + date(r.Time))).LF()
	}

	doc.H2("Stocks")
	if len(r.Stocks) == 0 {
		doc.PlainText("No stock held.").LF()
	} else {
		table := md.TableSet{
			Alignment: []md.TableAlignment{
				md.AlignLeft,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
			},
			Header: []string{"Symbol", "Quantity", "Cost Basis", "Price", "Market Value", "Gain/Loss", "Weight"},
			Rows:   [][]string{},
		}
		for _, h := range r.Stocks {
			price, value, gain, weight := dash, dash, dash, dash
			if h.Priced {
				price = money(h.Price)
				value = money(h.MarketValue)
				gain = h.GainLoss.SignedString()
			}
			if h.Priced && r.Complete {
				weight = h.Weight.String()
			}
			table.Rows = append(table.Rows, []string{
				h.Symbol,
				h.Quantity.String(),
				money(h.CostBasis),
				price,
				value,
				gain,
				weight,
			})
		}
		doc.Table(table)
	}

	if opts.Lots {
		for _, h := range r.Stocks {
			doc.H3f("Lots of %s", h.Symbol)
			table := md.TableSet{
				Alignment: []md.TableAlignment{md.AlignRight, md.AlignRight, md.AlignRight},
				Header:    []string{"Price", "Quantity", "Cost"},
				Rows:      [][]string{},
			}
			for _, l := range h.Lots {
				table.Rows = append(table.Rows, []string{money(l.Price), l.Quantity.String(), money(l.Cost())})
			}
			doc.Table(table)
		}
	}

	doc.H2("Total")
	total := money(r.TotalValue)
	if !r.Complete {
		total = dash
	}
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Cash", "Stocks", "Total"},
		Rows:      [][]string{{money(r.Cash), money(r.StockValue), total}},
	})

	if len(r.Watchlist) > 0 {
		doc.H2("Watchlist")
		doc.PlainText(strings.Join(r.Watchlist, ", "))
	}
	return doc.String()
}
