package stockbook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// Keys of the persisted account document. They are shared with the files
// written by the first versions of the tracker.
const (
	keyID         = "id"
	keyInitial    = "initial_money"
	keyCurrent    = "current_money"
	keyWatchlist  = "stock_watch_list"
	keyOrders     = "trading_order_history"
	keyInjections = "load_up_history"
	keyCurrency   = "currency"

	keySymbol    = "symbol"
	keyAction    = "action"
	keyPrice     = "price"
	keyQuantity  = "quantity"
	keyTimestamp = "time_stamp"
)

// Lots are not persisted: they are rebuilt from the order history on load.

// encodeTime returns unix seconds, 0 for the zero time.
func encodeTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func decodeTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// MarshalJSON implements the json.Marshaler interface for TradingOrder.
func (o TradingOrder) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append(keySymbol, o.Symbol)
	w.Append(keyAction, o.Action.String())
	w.Append(keyPrice, o.Price)
	w.Append(keyQuantity, o.Quantity)
	w.Append(keyTimestamp, encodeTime(o.Time))
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for CashInjection.
func (c CashInjection) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append(keyTimestamp, encodeTime(c.Time))
	w.Append(keyQuantity, c.Amount)
	return w.MarshalJSON()
}

// EncodeAccount writes the account as an indented JSON document.
func EncodeAccount(w io.Writer, a *Account) error {
	watch := a.Watchlist()
	if watch == nil {
		watch = []string{}
	}
	orders := a.orders.Orders()
	if orders == nil {
		orders = []TradingOrder{}
	}
	injections := a.CashInjections()
	if injections == nil {
		injections = []CashInjection{}
	}

	var obj jsonObjectWriter
	obj.Append(keyID, a.id)
	obj.Append(keyInitial, a.initialCash)
	obj.Append(keyCurrent, a.book.cash)
	obj.Append(keyWatchlist, watch)
	obj.Append(keyOrders, orders)
	obj.Append(keyInjections, injections)
	if a.currency != DefaultCurrency {
		obj.Append(keyCurrency, a.currency) // implicit for USD, as in the first versions
	}

	data, err := obj.MarshalJSON()
	if err != nil {
		return fmt.Errorf("cannot encode account %q: %w", a.id, err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("cannot encode account %q: %w", a.id, err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}

// record reads the fields of a decoded JSON object. A field with the wrong
// type is skipped and reported.
type record struct {
	obj    map[string]any
	where  string // prefix for issues
	issues []error
}

func (r *record) malformed(key, want string) {
	r.issues = append(r.issues, fmt.Errorf("%w: %s%q must be %s", ErrMalformedRecord, r.where, key, want))
}

func (r *record) str(key string) (string, bool) {
	v, ok := r.obj[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		r.malformed(key, "a string")
		return "", false
	}
	return s, true
}

func (r *record) num(key string) (decimal.Decimal, bool) {
	v, ok := r.obj[key]
	if !ok {
		return decimal.Zero, false
	}
	n, ok := v.(json.Number)
	if !ok {
		r.malformed(key, "a number")
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		r.malformed(key, "a decimal number")
		return decimal.Zero, false
	}
	return d, true
}

func (r *record) timestamp(key string) (time.Time, bool) {
	d, ok := r.num(key)
	if !ok {
		return time.Time{}, false
	}
	return decodeTime(d.IntPart()), true
}

func (r *record) list(key string) ([]any, bool) {
	v, ok := r.obj[key]
	if !ok {
		return nil, false
	}
	l, ok := v.([]any)
	if !ok {
		r.malformed(key, "an array")
		return nil, false
	}
	return l, true
}

// action accepts the string form, or the numeric form of the first versions.
func (r *record) action(key string) (Action, bool) {
	v, ok := r.obj[key]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case string:
		a, err := ParseAction(t)
		if err != nil {
			r.malformed(key, "buy, sell or sell-short")
			return 0, false
		}
		return a, true
	case json.Number:
		i, err := t.Int64()
		if err != nil || i < int64(Buy) || i > int64(SellShort) {
			r.malformed(key, "0, 1 or 2")
			return 0, false
		}
		return Action(i), true
	}
	r.malformed(key, "an action")
	return 0, false
}

// entry returns a record for the i-th element of a history, or false if it is
// not an object.
func (r *record) entry(key string, i int, v any) (*record, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		r.issues = append(r.issues, fmt.Errorf("%w: %s[%d] is not an object, dropped", ErrMalformedRecord, key, i))
		return nil, false
	}
	return &record{obj: obj, where: fmt.Sprintf("%s[%d].", key, i)}, true
}

func (r *record) decodeOrder(i int, v any, currency string) (TradingOrder, bool) {
	e, ok := r.entry(keyOrders, i, v)
	if !ok {
		return TradingOrder{}, false
	}
	symbol, okSymbol := e.str(keySymbol)
	action, okAction := e.action(keyAction)
	price, okPrice := e.num(keyPrice)
	quantity, okQuantity := e.num(keyQuantity)
	on, _ := e.timestamp(keyTimestamp)
	r.issues = append(r.issues, e.issues...)

	if !okSymbol || !okAction || !okPrice || !okQuantity {
		r.issues = append(r.issues, fmt.Errorf("%w: %s[%d] is incomplete, dropped", ErrMalformedRecord, keyOrders, i))
		return TradingOrder{}, false
	}
	return TradingOrder{
		Symbol:   symbol,
		Action:   action,
		Price:    M(price, currency),
		Quantity: Q(quantity),
		Time:     on,
	}, true
}

func (r *record) decodeInjection(i int, v any, currency string) (CashInjection, bool) {
	e, ok := r.entry(keyInjections, i, v)
	if !ok {
		return CashInjection{}, false
	}
	amount, okAmount := e.num(keyQuantity)
	on, _ := e.timestamp(keyTimestamp)
	r.issues = append(r.issues, e.issues...)

	if !okAmount || amount.IsNegative() {
		r.issues = append(r.issues, fmt.Errorf("%w: %s[%d] has no valid amount, dropped", ErrMalformedRecord, keyInjections, i))
		return CashInjection{}, false
	}
	return CashInjection{Time: on, Amount: M(amount, currency)}, true
}

// DecodeAccount reads an account document written by EncodeAccount or by the
// first versions of the tracker, and rebuilds its cash and lots from the
// histories.
//
// Decoding is tolerant: a missing field keeps its default, a field of the
// wrong type is skipped and a malformed history entry is dropped. Every such
// problem is returned in issues. An error is only returned when r does not
// hold a JSON object.
func DecodeAccount(r io.Reader, opts ...Option) (a *Account, issues []error, err error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("cannot decode account: %w", err)
	}

	rec := &record{obj: doc}
	id, _ := rec.str(keyID)
	currency, ok := rec.str(keyCurrency)
	if !ok || currency == "" {
		currency = DefaultCurrency
	}
	initial, _ := rec.num(keyInitial)
	if initial.IsNegative() {
		rec.malformed(keyInitial, "a non negative number")
		initial = decimal.Zero
	}
	current, hasCurrent := rec.num(keyCurrent)

	var watch []string
	if list, ok := rec.list(keyWatchlist); ok {
		for i, v := range list {
			s, ok := v.(string)
			if !ok {
				rec.issues = append(rec.issues, fmt.Errorf("%w: %s[%d] is not a string, dropped", ErrMalformedRecord, keyWatchlist, i))
				continue
			}
			watch = append(watch, s)
		}
	}

	var orders []TradingOrder
	if list, ok := rec.list(keyOrders); ok {
		for i, v := range list {
			if o, ok := rec.decodeOrder(i, v, currency); ok {
				orders = append(orders, o)
			}
		}
	}

	var injections []CashInjection
	if list, ok := rec.list(keyInjections); ok {
		for i, v := range list {
			if inj, ok := rec.decodeInjection(i, v, currency); ok {
				injections = append(injections, inj)
			}
		}
	}

	a, skipped := Restore(id, M(initial, currency), orders, injections, opts...)
	for _, symbol := range watch {
		a.AddToWatchlist(symbol)
	}

	issues = rec.issues
	for _, s := range skipped {
		issues = append(issues, fmt.Errorf("order %d (%v) skipped on replay: %w", s.Index, s.Order, s.Err))
	}
	if hasCurrent && !M(current, currency).NearlyEqual(a.Cash()) {
		issues = append(issues, fmt.Errorf("%w: %s is %s, replay gives %s", ErrStateDiverged, keyCurrent, current, a.Cash().Decimal()))
	}
	return a, issues, nil
}

// LoadAccount decodes the account document stored in file.
func LoadAccount(file string, opts ...Option) (*Account, []error, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open account file %q: %w", file, err)
	}
	defer f.Close()
	a, issues, err := DecodeAccount(f, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("in %q: %w", file, err)
	}
	return a, issues, nil
}

// SaveAccount writes the account document to file. The file is replaced
// atomically.
func SaveAccount(file string, a *Account) error {
	var buf bytes.Buffer
	if err := EncodeAccount(&buf, a); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(file), filepath.Base(file)+".*")
	if err != nil {
		return fmt.Errorf("cannot save account %q: %w", file, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := buf.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot save account %q: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot save account %q: %w", file, err)
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		return fmt.Errorf("cannot save account %q: %w", file, err)
	}
	return nil
}
