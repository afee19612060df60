package stockbook

import (
	"fmt"
	"slices"
)

// Lot is the remaining unsold quantity of one purchase, at its purchase price.
type Lot struct {
	Price    Money
	Quantity Quantity
}

// Cost returns price * quantity.
func (l Lot) Cost() Money { return l.Price.Mul(l.Quantity) }

// compareLots orders lots by price, then by quantity.
func compareLots(a, b Lot) int {
	if c := a.Price.value.Cmp(b.Price.value); c != 0 {
		return c
	}
	return a.Quantity.Cmp(b.Quantity)
}

// LotLedger holds the open lots of a single symbol, sorted by ascending price
// (ties by ascending quantity). Every lot quantity is above Epsilon.
//
// The zero value is an empty ledger.
type LotLedger struct {
	lots []Lot
}

// AddLot records a purchase. Near-zero quantities are ignored. Lots with the
// same price are kept separate.
func (l *LotLedger) AddLot(price Money, quantity Quantity) {
	if !quantity.IsPositive() {
		return
	}
	l.insert(Lot{Price: price, Quantity: quantity})
}

func (l *LotLedger) insert(lot Lot) {
	i, _ := slices.BinarySearchFunc(l.lots, lot, compareLots)
	l.lots = slices.Insert(l.lots, i, lot)
}

// RemoveQuantity consumes quantity from the cheapest lots first.
//
// If quantity exceeds the total held it returns ErrInsufficientHoldings and
// the ledger is left untouched.
func (l *LotLedger) RemoveQuantity(quantity Quantity) error {
	if total := l.Total(); quantity.GreaterThan(total) {
		return fmt.Errorf("%w: cannot remove %s, only %s held", ErrInsufficientHoldings, quantity, total)
	}

	remaining := quantity
	for remaining.IsPositive() && len(l.lots) > 0 {
		lowest := l.lots[0]
		l.lots = slices.Delete(l.lots, 0, 1)

		taken := remaining.Min(lowest.Quantity)
		remaining = remaining.Sub(taken)
		lowest.Quantity = lowest.Quantity.Sub(taken)

		if !lowest.Quantity.IsZero() {
			// partially consumed, the loop ends right after.
			l.insert(lowest)
		}
	}
	return nil
}

// Total returns the quantity held across all lots.
func (l *LotLedger) Total() Quantity {
	var total Quantity
	for _, lot := range l.lots {
		total = total.Add(lot.Quantity)
	}
	return total
}

// CostBasis returns the amount paid for the quantity held.
func (l *LotLedger) CostBasis() Money {
	var basis Money
	for _, lot := range l.lots {
		basis = basis.Add(lot.Cost())
	}
	return basis
}

// Valuation returns marketPrice * Total().
func (l *LotLedger) Valuation(marketPrice Money) Money {
	return marketPrice.Mul(l.Total())
}

// GainLoss returns Valuation(marketPrice) - CostBasis(). Realized gains of
// past sales are not included.
func (l *LotLedger) GainLoss(marketPrice Money) Money {
	return l.Valuation(marketPrice).Sub(l.CostBasis())
}

// Lots returns a copy of the open lots, in consumption order.
func (l *LotLedger) Lots() []Lot { return slices.Clone(l.lots) }

// Len returns the number of open lots.
func (l *LotLedger) Len() int { return len(l.lots) }

// Clone returns an independent copy of the ledger.
func (l *LotLedger) Clone() *LotLedger { return &LotLedger{lots: slices.Clone(l.lots)} }

// Equal compares two ledgers lot by lot.
func (l *LotLedger) Equal(o *LotLedger) bool {
	return slices.EqualFunc(l.lots, o.lots, func(a, b Lot) bool {
		return a.Price.Equal(b.Price) && a.Quantity.Equal(b.Quantity)
	})
}
