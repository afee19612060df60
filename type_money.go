package stockbook

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used by accounts created without an explicit currency.
const DefaultCurrency = "USD"

// Money represents a monetary value. The currency is only used for display,
// the account never converts between currencies.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// M returns a Money.
func M[T float64 | int | int64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// ParseMoney parses a decimal string like "123.45".
func ParseMoney(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{value: d, cur: currency}, nil
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the string representation of the money value.
func (m Money) String() string {
	if m.cur == "" {
		return m.value.StringFixed(2)
	}
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(dec.IntPart())
}

func (m Money) Currency() string              { return m.cur }
func (m Money) Decimal() decimal.Decimal      { return m.value }
func (m Money) Equal(n Money) bool            { return m.value.Equal(n.value) }
func (m Money) IsExactlyZero() bool           { return m.value.IsZero() }
func (m Money) Neg() Money                    { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Mul(q Quantity) Money          { return Money{value: m.value.Mul(q.value), cur: m.cur} }
func (m Money) WithCurrency(cur string) Money { return Money{value: m.value, cur: cur} }

// IsZero is true when the amount is within Epsilon of zero.
func (m Money) IsZero() bool { return nearZero(m.value) }

// IsNegative is true when the amount is strictly below -Epsilon.
func (m Money) IsNegative() bool { return m.value.LessThan(Epsilon.Neg()) }

// GreaterThan is m > n beyond Epsilon.
func (m Money) GreaterThan(n Money) bool { return m.value.Sub(n.value).GreaterThan(Epsilon) }

// NearlyEqual is |m - n| <= Epsilon.
func (m Money) NearlyEqual(n Money) bool { return nearZero(m.value.Sub(n.value)) }

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// Ratio returns m/n as a plain decimal.
func (m Money) Ratio(n Money) decimal.Decimal { return m.value.Div(n.value) }

// makes the "" currency totally weak.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic("currency mismatch" + A.cur + "!=" + B.cur)
	}
	return A.cur
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as "-".
func (m Money) SignedString() string {
	if m.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// MarshalJSON writes the amount as a plain JSON number, with all its digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.String()), nil
}
