package stockbook

import "github.com/shopspring/decimal"

// Epsilon is the absolute tolerance used for every quantity and amount
// comparison. Values whose magnitude is below or equal to Epsilon are zero.
//
// Amounts are exact decimals, but records written by earlier float based
// versions can carry residues like 2.9999999999999996.
var Epsilon = decimal.New(1, -9)

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float64 | int | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// nearZero reports whether |d| <= Epsilon.
func nearZero(d decimal.Decimal) bool { return d.Abs().LessThanOrEqual(Epsilon) }

// Quantity is a number of shares.
type Quantity struct {
	value decimal.Decimal
}

// Q returns a Quantity.
func Q[T float64 | int | int64 | decimal.Decimal](value T) Quantity {
	return Quantity{value: newDecimal(value)}
}

// ParseQuantity parses a decimal string like "12.5".
func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{value: d}, nil
}

func (q Quantity) Add(p Quantity) Quantity  { return Quantity{value: q.value.Add(p.value)} }
func (q Quantity) Sub(p Quantity) Quantity  { return Quantity{value: q.value.Sub(p.value)} }
func (q Quantity) Decimal() decimal.Decimal { return q.value }
func (q Quantity) String() string           { return q.value.String() }

// Equal is an exact comparison.
func (q Quantity) Equal(p Quantity) bool { return q.value.Equal(p.value) }

// IsZero is true when the quantity is within Epsilon of zero.
func (q Quantity) IsZero() bool { return nearZero(q.value) }

// IsPositive is true when the quantity is strictly above Epsilon.
func (q Quantity) IsPositive() bool { return q.value.GreaterThan(Epsilon) }

// IsNegative is true when the quantity is strictly below -Epsilon.
func (q Quantity) IsNegative() bool { return q.value.LessThan(Epsilon.Neg()) }

// LessThan is q < p beyond Epsilon.
func (q Quantity) LessThan(p Quantity) bool { return p.value.Sub(q.value).GreaterThan(Epsilon) }

// GreaterThan is q > p beyond Epsilon.
func (q Quantity) GreaterThan(p Quantity) bool { return q.value.Sub(p.value).GreaterThan(Epsilon) }

// Min returns the smallest of q and p.
func (q Quantity) Min(p Quantity) Quantity {
	if p.value.LessThan(q.value) {
		return p
	}
	return q
}

// Cmp compares exactly, -1, 0 or +1.
func (q Quantity) Cmp(p Quantity) int { return q.value.Cmp(p.value) }

// MarshalJSON writes the quantity as a plain JSON number.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.value.String()), nil
}

func (q *Quantity) UnmarshalJSON(decimalBytes []byte) error {
	return q.value.UnmarshalJSON(decimalBytes)
}
