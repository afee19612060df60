package stockbook

import (
	"iter"
	"slices"
)

// OrderLog is the append-only sequence of admitted orders. It is the source
// of truth from which cash and lots are derived.
type OrderLog struct {
	orders []TradingOrder
}

// Append adds orders at the end of the log.
func (l *OrderLog) Append(orders ...TradingOrder) {
	l.orders = append(l.orders, orders...)
}

// Len returns the number of orders in the log.
func (l *OrderLog) Len() int { return len(l.orders) }

// At returns the i-th order.
func (l *OrderLog) At(i int) TradingOrder { return l.orders[i] }

// All iterates over the orders in their original order.
func (l *OrderLog) All() iter.Seq2[int, TradingOrder] {
	return func(yield func(int, TradingOrder) bool) {
		for i, o := range l.orders {
			if !yield(i, o) {
				return
			}
		}
	}
}

// BySymbol iterates over the orders of a single symbol.
func (l *OrderLog) BySymbol(symbol string) iter.Seq2[int, TradingOrder] {
	return func(yield func(int, TradingOrder) bool) {
		for i, o := range l.orders {
			if o.Symbol != symbol {
				continue
			}
			if !yield(i, o) {
				return
			}
		}
	}
}

// Orders returns a copy of the log content.
func (l *OrderLog) Orders() []TradingOrder { return slices.Clone(l.orders) }
