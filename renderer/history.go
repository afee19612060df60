package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/stockbook"
	md "github.com/nao1215/markdown"
)

// HistoryMarkdown renders the order log and the cash injections of an
// account. When symbol is not empty, only its orders are listed.
func HistoryMarkdown(a *stockbook.Account, symbol string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	if symbol != "" {
		doc.H1f("History for %s", symbol)
	} else {
		doc.H1f("History of %s", title(a.ID()))
	}

	orders := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignRight,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"#", "Date", "Action", "Symbol", "Quantity", "Price", "Amount"},
		Rows:   [][]string{},
	}
	for i, o := range a.Orders() {
		if symbol != "" && o.Symbol != symbol {
			continue
		}
		orders.Rows = append(orders.Rows, []string{
			fmt.Sprint(i + 1),
			date(o.Time),
			o.Action.String(),
			o.Symbol,
			o.Quantity.String(),
			money(o.Price),
			money(o.Amount()),
		})
	}
	doc.H2("Orders")
	if len(orders.Rows) == 0 {
		doc.PlainText("No order.").LF()
	} else {
		doc.Table(orders)
	}

	if symbol != "" {
		return doc.String()
	}

	cash := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight},
		Header:    []string{"Date", "Kind", "Amount"},
		Rows:      [][]string{{dash, "initial", money(a.InitialCash())}},
	}
	for _, inj := range a.CashInjections() {
		cash.Rows = append(cash.Rows, []string{date(inj.Time), "deposit", money(inj.Amount)})
	}
	doc.H2("Cash")
	doc.Table(cash)
	doc.PlainTextf("Current cash: %s", md.Bold(money(a.Cash())))
	return doc.String()
}

// ReplayMarkdown renders the outcome of a replay.
func ReplayMarkdown(a *stockbook.Account, skipped []stockbook.Skipped, verifyErr error) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1f("Replay of %s", title(a.ID()))
	verification := "Verification: ok"
	if verifyErr != nil {
		verification = fmt.Sprintf("Verification: %s (%v)", md.Bold("failed"), verifyErr)
	}
	doc.BulletList(
		fmt.Sprintf("Orders: %d", a.OrderCount()),
		fmt.Sprintf("Skipped: %d", len(skipped)),
		fmt.Sprintf("Cash: %s", money(a.Cash())),
		verification,
	).LF()

	if len(skipped) > 0 {
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignRight, md.AlignLeft, md.AlignLeft},
			Header:    []string{"#", "Order", "Reason"},
			Rows:      [][]string{},
		}
		for _, s := range skipped {
			table.Rows = append(table.Rows, []string{fmt.Sprint(s.Index + 1), s.Order.String(), s.Err.Error()})
		}
		doc.H2("Skipped orders")
		doc.Table(table)
	}
	return doc.String()
}
