package stockbook

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

// book is the state derived from the histories: available cash and open lots.
type book struct {
	cash    Money
	ledgers map[string]*LotLedger
}

func newBook(cash Money) book {
	return book{cash: cash, ledgers: make(map[string]*LotLedger)}
}

// held returns the quantity held for symbol, zero when unknown.
func (b *book) held(symbol string) Quantity {
	if l, ok := b.ledgers[symbol]; ok {
		return l.Total()
	}
	return Quantity{}
}

// admit checks that order can be executed against the book. It never mutates
// the book.
func (b *book) admit(o TradingOrder) error {
	if err := o.validate(); err != nil {
		return err
	}
	if c := o.Price.Currency(); c != "" && b.cash.Currency() != "" && c != b.cash.Currency() {
		return fmt.Errorf("%w: price in %s, account in %s", ErrInvalidOrder, c, b.cash.Currency())
	}

	switch o.Action {
	case Buy:
		// exact comparison: cash never goes below zero.
		if cost := o.Amount(); cost.value.GreaterThan(b.cash.value) {
			return fmt.Errorf("%w: costs %s, cash is %s", ErrInsufficientCash, cost, b.cash)
		}
	case Sell:
		if held := b.held(o.Symbol); held.LessThan(o.Quantity) {
			return fmt.Errorf("%w: position is only %s", ErrInsufficientHoldings, held)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedAction, o.Action)
	}
	return nil
}

// execute applies an admitted order.
func (b *book) execute(o TradingOrder) error {
	l, ok := b.ledgers[o.Symbol]
	if !ok {
		l = new(LotLedger)
		b.ledgers[o.Symbol] = l
	}
	switch o.Action {
	case Buy:
		b.cash = b.cash.Sub(o.Amount())
		l.AddLot(o.Price, o.Quantity)
	case Sell:
		if err := l.RemoveQuantity(o.Quantity); err != nil {
			return err
		}
		b.cash = b.cash.Add(o.Amount())
	}
	return nil
}

// apply is admit then execute.
func (b *book) apply(o TradingOrder) error {
	if err := b.admit(o); err != nil {
		return err
	}
	return b.execute(o)
}

// equal compares two books, ignoring empty ledgers.
func (b *book) equal(o *book) bool {
	if !b.cash.Equal(o.cash) {
		return false
	}
	symbols := make(map[string]struct{})
	for s := range maps.Keys(b.ledgers) {
		symbols[s] = struct{}{}
	}
	for s := range maps.Keys(o.ledgers) {
		symbols[s] = struct{}{}
	}
	var empty LotLedger
	for s := range symbols {
		x, y := b.ledgers[s], o.ledgers[s]
		if x == nil {
			x = &empty
		}
		if y == nil {
			y = &empty
		}
		if !x.Equal(y) {
			return false
		}
	}
	return true
}

// Skipped is a history entry that the admission rules refused during a replay.
type Skipped struct {
	Index int
	Order TradingOrder
	Err   error
}

// Replayed is the state rebuilt by Replay.
type Replayed struct {
	Cash    Money
	Ledgers map[string]*LotLedger
	Applied int
	Skipped []Skipped
}

// Symbols returns the symbols that have a ledger, sorted.
func (r Replayed) Symbols() []string {
	return slices.Sorted(maps.Keys(r.Ledgers))
}

// Replay rebuilds cash and lots from the histories. It is a pure function of
// its inputs.
//
// Cash starts at initialCash plus every injection. Orders are then applied in
// log order with the same admission rules as Account.ApplyOrder; an order that
// is not admitted is skipped and reported, it never aborts the replay.
func Replay(initialCash Money, injections []CashInjection, orders iter.Seq2[int, TradingOrder]) Replayed {
	seed := initialCash
	for _, inj := range injections {
		seed = seed.Add(inj.Amount)
	}
	b := newBook(seed)

	var r Replayed
	for i, o := range orders {
		if err := b.apply(o); err != nil {
			r.Skipped = append(r.Skipped, Skipped{Index: i, Order: o, Err: err})
			continue
		}
		r.Applied++
	}
	r.Cash = b.cash
	r.Ledgers = b.ledgers
	return r
}
