package stockbook

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"

	"go.uber.org/zap"
)

// Account is a cash account trading stocks.
//
// The order log and the cash injection history are the source of truth. Cash
// and lots are maintained incrementally by ApplyOrder and ApplyCashInjection,
// and can always be rebuilt from the histories with Reconstruct.
//
// An Account is not safe for concurrent use: callers serialize mutations.
type Account struct {
	id          string
	currency    string
	initialCash Money

	book       book
	orders     OrderLog
	injections []CashInjection
	watchlist  watchlist

	logger *zap.Logger
}

// Option configures an Account.
type Option func(*Account)

// WithLogger sets the logger used to report rejections and replay skips.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Account) { a.logger = logger }
}

// NewAccount creates an empty account holding initialCash. The account
// currency is the one of initialCash, or DefaultCurrency. A negative
// initialCash is replaced by zero: cash is never negative.
func NewAccount(id string, initialCash Money, opts ...Option) *Account {
	currency := initialCash.Currency()
	if currency == "" {
		currency = DefaultCurrency
	}
	if initialCash.IsNegative() {
		initialCash = M(0, currency)
	}
	initialCash = initialCash.WithCurrency(currency)
	a := &Account{
		id:          id,
		currency:    currency,
		initialCash: initialCash,
		book:        newBook(initialCash),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Restore creates an account from persisted histories. Orders are recorded
// as-is and cash and lots are rebuilt with Reconstruct; the entries skipped by
// the replay are returned.
func Restore(id string, initialCash Money, orders []TradingOrder, injections []CashInjection, opts ...Option) (*Account, []Skipped) {
	a := NewAccount(id, initialCash, opts...)
	a.orders.Append(orders...)
	for _, inj := range injections {
		if inj.Amount.Currency() == "" {
			inj.Amount = inj.Amount.WithCurrency(a.currency)
		}
		a.injections = append(a.injections, inj)
	}
	return a, a.Reconstruct()
}

func (a *Account) ID() string         { return a.id }
func (a *Account) Currency() string   { return a.currency }
func (a *Account) InitialCash() Money { return a.initialCash }
func (a *Account) Cash() Money        { return a.book.cash }

// zero returns 0 in the account currency.
func (a *Account) zero() Money { return M(0, a.currency) }

// ApplyOrder executes order if the admission rules accept it, and appends it
// to the order log.
//
// A buy costing more than the available cash, or a sell of more than the
// quantity held, is rejected with a *RejectionError wrapping
// ErrInsufficientCash or ErrInsufficientHoldings. Actions other than Buy and
// Sell are rejected with ErrUnsupportedAction. A rejected order leaves the
// account unchanged and is not recorded.
func (a *Account) ApplyOrder(order TradingOrder) error {
	if err := a.book.admit(order); err != nil {
		a.logger.Debug("order rejected", zap.String("account", a.id), zap.Stringer("order", order), zap.Error(err))
		return &RejectionError{Order: order, Err: err}
	}
	if err := a.book.execute(order); err != nil {
		// admit guarantees execute succeeds.
		return fmt.Errorf("executing admitted order %v: %w", order, err)
	}
	a.orders.Append(order)
	a.logger.Debug("order applied", zap.String("account", a.id), zap.Stringer("order", order), zap.Stringer("cash", a.book.cash))
	return nil
}

// ApplyCashInjection deposits cash into the account and records it.
func (a *Account) ApplyCashInjection(injection CashInjection) error {
	if injection.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative, got %s", ErrInvalidInjection, injection.Amount)
	}
	if c := injection.Amount.Currency(); c != "" && c != a.currency {
		return fmt.Errorf("%w: amount in %s, account in %s", ErrInvalidInjection, c, a.currency)
	}
	injection.Amount = injection.Amount.WithCurrency(a.currency)
	a.book.cash = a.book.cash.Add(injection.Amount)
	a.injections = append(a.injections, injection)
	return nil
}

// Reconstruct rebuilds cash and lots from the histories, discarding the
// incremental state. Orders the admission rules refuse are skipped and
// returned. Calling it twice yields the same state.
func (a *Account) Reconstruct() []Skipped {
	r := a.replay()
	for _, s := range r.Skipped {
		a.logger.Warn("history entry skipped", zap.String("account", a.id), zap.Int("index", s.Index), zap.Stringer("order", s.Order), zap.Error(s.Err))
	}
	a.book = book{cash: r.Cash, ledgers: r.Ledgers}
	return r.Skipped
}

func (a *Account) replay() Replayed {
	return Replay(a.initialCash, a.injections, a.orders.All())
}

// Verify replays the histories and compares the result with the incremental
// state. It returns an error wrapping ErrStateDiverged when they differ.
func (a *Account) Verify() error {
	r := a.replay()
	replayed := book{cash: r.Cash, ledgers: r.Ledgers}
	if !a.book.equal(&replayed) {
		return fmt.Errorf("%w: account %s has cash %s, replay gives %s", ErrStateDiverged, a.id, a.book.cash, r.Cash)
	}
	return nil
}

// Orders iterates over the order log.
func (a *Account) Orders() iter.Seq2[int, TradingOrder] { return a.orders.All() }

// OrderCount returns the number of recorded orders.
func (a *Account) OrderCount() int { return a.orders.Len() }

// CashInjections returns a copy of the cash injection history.
func (a *Account) CashInjections() []CashInjection { return slices.Clone(a.injections) }

// TotalInjected returns the sum of all cash injections.
func (a *Account) TotalInjected() Money {
	total := a.zero()
	for _, inj := range a.injections {
		total = total.Add(inj.Amount)
	}
	return total
}

// Ledger returns a copy of the lots of symbol. It is empty for unknown symbols.
func (a *Account) Ledger(symbol string) *LotLedger {
	if l, ok := a.book.ledgers[symbol]; ok {
		return l.Clone()
	}
	return new(LotLedger)
}

// OwnedSymbols returns the symbols with a positive quantity, sorted.
func (a *Account) OwnedSymbols() []string {
	var owned []string
	for symbol, l := range a.book.ledgers {
		if l.Total().IsPositive() {
			owned = append(owned, symbol)
		}
	}
	slices.Sort(owned)
	return owned
}

// Symbols returns every symbol ever traded, sorted.
func (a *Account) Symbols() []string {
	return slices.Sorted(maps.Keys(a.book.ledgers))
}

// OwnedQuantity returns the quantity held of symbol.
func (a *Account) OwnedQuantity(symbol string) Quantity {
	return a.book.held(symbol)
}

// CostBasis returns the amount paid for the quantity held of symbol.
func (a *Account) CostBasis(symbol string) Money {
	l, ok := a.book.ledgers[symbol]
	if !ok {
		return a.zero()
	}
	return a.zero().Add(l.CostBasis())
}

// price returns the market price of a held symbol.
func (a *Account) price(symbol string, prices PriceProvider) (Money, error) {
	p, err := prices.LatestPrice(symbol)
	if err != nil {
		return Money{}, fmt.Errorf("cannot value %s: %w", symbol, err)
	}
	if c := p.Currency(); c != "" && c != a.currency {
		return Money{}, fmt.Errorf("cannot value %s: price in %s, account in %s", symbol, c, a.currency)
	}
	return p, nil
}

// MarketValue returns the market value of the quantity held of symbol. The
// provider is not consulted when nothing is held.
func (a *Account) MarketValue(symbol string, prices PriceProvider) (Money, error) {
	l, ok := a.book.ledgers[symbol]
	if !ok || l.Total().IsZero() {
		return a.zero(), nil
	}
	p, err := a.price(symbol, prices)
	if err != nil {
		return Money{}, err
	}
	return a.zero().Add(l.Valuation(p)), nil
}

// GainLoss returns the unrealized gain or loss on symbol: market value minus
// cost basis.
func (a *Account) GainLoss(symbol string, prices PriceProvider) (Money, error) {
	l, ok := a.book.ledgers[symbol]
	if !ok || l.Total().IsZero() {
		return a.zero(), nil
	}
	p, err := a.price(symbol, prices)
	if err != nil {
		return Money{}, err
	}
	return a.zero().Add(l.GainLoss(p)), nil
}

// StockValuation returns the market value of all holdings, without cash.
// Every missing price is reported in the returned error.
func (a *Account) StockValuation(prices PriceProvider) (Money, error) {
	total := a.zero()
	var errs error
	for _, symbol := range a.OwnedSymbols() {
		v, err := a.MarketValue(symbol, prices)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		total = total.Add(v)
	}
	if errs != nil {
		return Money{}, errs
	}
	return total, nil
}

// TotalValuation returns cash plus the market value of all holdings.
func (a *Account) TotalValuation(prices PriceProvider) (Money, error) {
	stocks, err := a.StockValuation(prices)
	if err != nil {
		return Money{}, err
	}
	return a.book.cash.Add(stocks), nil
}

// PercentOfAccount returns the weight of symbol in the total valuation. It is
// 0 when the total valuation is 0.
func (a *Account) PercentOfAccount(symbol string, prices PriceProvider) (Percent, error) {
	value, err := a.MarketValue(symbol, prices)
	if err != nil {
		return 0, err
	}
	total, err := a.TotalValuation(prices)
	if err != nil {
		return 0, err
	}
	if total.IsExactlyZero() {
		return 0, nil
	}
	return Percent(value.Ratio(total).Shift(2).InexactFloat64()), nil
}
