package stockbook

import (
	"errors"
	"time"
)

// HoldingReport represents a detailed view of the account holdings.
type HoldingReport struct {
	AccountID  string
	Time       time.Time // Generation time
	Currency   string
	Cash       Money
	Stocks     []StockHolding
	Watchlist  []string
	StockValue Money // market value of the priced stocks
	TotalValue Money // only meaningful when Complete
	Complete   bool  // false when at least one price was unavailable
}

// StockHolding represents the holding of a single symbol.
type StockHolding struct {
	Symbol      string
	Quantity    Quantity
	Lots        []Lot
	CostBasis   Money
	Priced      bool // false when the price was unavailable
	Price       Money
	MarketValue Money
	GainLoss    Money
	Weight      Percent // share of the total value
}

// NewHoldingReport values every owned symbol with prices.
//
// Symbols without a price are still listed, unpriced, and the returned error
// reports each of them (wrapping ErrPriceUnavailable). The report is never nil.
func (a *Account) NewHoldingReport(prices PriceProvider) (*HoldingReport, error) {
	report := &HoldingReport{
		AccountID:  a.id,
		Time:       time.Now(),
		Currency:   a.currency,
		Cash:       a.book.cash,
		Watchlist:  a.Watchlist(),
		StockValue: a.zero(),
		Complete:   true,
	}

	var errs error
	for _, symbol := range a.OwnedSymbols() {
		l := a.book.ledgers[symbol]
		h := StockHolding{
			Symbol:    symbol,
			Quantity:  l.Total(),
			Lots:      l.Lots(),
			CostBasis: a.zero().Add(l.CostBasis()),
		}
		if p, err := a.price(symbol, prices); err != nil {
			errs = errors.Join(errs, err)
			report.Complete = false
		} else {
			h.Priced = true
			h.Price = p
			h.MarketValue = a.zero().Add(l.Valuation(p))
			h.GainLoss = h.MarketValue.Sub(h.CostBasis)
			report.StockValue = report.StockValue.Add(h.MarketValue)
		}
		report.Stocks = append(report.Stocks, h)
	}

	report.TotalValue = report.Cash.Add(report.StockValue)
	if report.Complete && !report.TotalValue.IsExactlyZero() {
		for i, h := range report.Stocks {
			report.Stocks[i].Weight = Percent(h.MarketValue.Ratio(report.TotalValue).Shift(2).InexactFloat64())
		}
	}
	return report, errs
}
