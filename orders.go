package stockbook

import (
	"fmt"
	"time"
)

// Action is the kind of a trading order.
type Action int

const (
	Buy Action = iota
	Sell
	// SellShort is decoded from old records but never admitted.
	SellShort
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	case SellShort:
		return "sell-short"
	default:
		return "unknown"
	}
}

// ParseAction parses the string form of an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	case "sell-short":
		return SellShort, nil
	default:
		return 0, fmt.Errorf("unknown action: %q", s)
	}
}

// TradingOrder is an instruction to buy or sell Quantity shares of Symbol
// at Price per share. Orders are values; once recorded they never change.
type TradingOrder struct {
	Symbol   string
	Action   Action
	Price    Money // per unit
	Quantity Quantity
	Time     time.Time
}

// NewBuy creates a buy order.
func NewBuy(on time.Time, symbol string, quantity Quantity, price Money) TradingOrder {
	return TradingOrder{Symbol: symbol, Action: Buy, Price: price, Quantity: quantity, Time: on}
}

// NewSell creates a sell order.
func NewSell(on time.Time, symbol string, quantity Quantity, price Money) TradingOrder {
	return TradingOrder{Symbol: symbol, Action: Sell, Price: price, Quantity: quantity, Time: on}
}

// Amount returns Price * Quantity, the cash moved by the order.
func (o TradingOrder) Amount() Money { return o.Price.Mul(o.Quantity) }

// Equal compares two orders field by field.
func (o TradingOrder) Equal(p TradingOrder) bool {
	return o.Symbol == p.Symbol &&
		o.Action == p.Action &&
		o.Price.Equal(p.Price) &&
		o.Quantity.Equal(p.Quantity) &&
		o.Time.Equal(p.Time)
}

func (o TradingOrder) String() string {
	return fmt.Sprintf("%s %s %s @ %s", o.Action, o.Quantity, o.Symbol, o.Price)
}

// validate checks the fields that do not depend on the account state.
func (o TradingOrder) validate() error {
	if o.Symbol == "" {
		return fmt.Errorf("%w: symbol is missing", ErrInvalidOrder)
	}
	if !o.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidOrder, o.Quantity)
	}
	if o.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative, got %s", ErrInvalidOrder, o.Price)
	}
	return nil
}

// CashInjection is an external deposit of cash into the account.
type CashInjection struct {
	Time   time.Time
	Amount Money
}

// NewCashInjection creates a cash injection.
func NewCashInjection(on time.Time, amount Money) CashInjection {
	return CashInjection{Time: on, Amount: amount}
}

// Equal compares two injections field by field.
func (c CashInjection) Equal(d CashInjection) bool {
	return c.Time.Equal(d.Time) && c.Amount.Equal(d.Amount)
}
