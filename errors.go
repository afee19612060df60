package stockbook

import (
	"errors"
	"fmt"
)

// Admission failures. State is unchanged when one of them is returned.
var (
	ErrInsufficientCash     = errors.New("insufficient cash")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrUnsupportedAction    = errors.New("unsupported action")
	ErrInvalidOrder         = errors.New("invalid order")
	ErrInvalidInjection     = errors.New("invalid cash injection")
)

var (
	// ErrMalformedRecord reports a persisted field or history entry that was skipped on load.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrPriceUnavailable is returned by price providers that have no price for a symbol.
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrStateDiverged is returned by Verify when replay and incremental state differ.
	ErrStateDiverged = errors.New("state diverged from history")
)

// RejectionError is returned when an order is not admitted. It wraps one of
// the admission sentinels.
type RejectionError struct {
	Order TradingOrder
	Err   error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("cannot %s %s %s: %v", e.Order.Action, e.Order.Quantity, e.Order.Symbol, e.Err)
}

func (e *RejectionError) Unwrap() error { return e.Err }
