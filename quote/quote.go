// Package quote provides stockbook.PriceProvider implementations reading
// market prices out of JSON documents, local or fetched over HTTP.
//
// Prices are located with a JSONPath expression in which the "{symbol}"
// placeholder is replaced by the requested symbol, for instance
//
//	$.quotes["{symbol}"].last
package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/stockbook"
	"github.com/shopspring/decimal"
)

// Placeholder is replaced by the symbol in paths and URLs.
const Placeholder = "{symbol}"

// ErrNoValue is returned when the path does not select a usable price.
var ErrNoValue = errors.New("no price value")

func expand(template, symbol string) string {
	return strings.ReplaceAll(template, Placeholder, symbol)
}

// decode reads a JSON document keeping numbers exact.
func decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// extract evaluates path in doc and converts the result into a price.
func extract(doc any, path string) (decimal.Decimal, error) {
	jval, err := jsonpath.Get(path, doc)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrNoValue, path, err)
	}
	// jsonpath returns a list for wildcard and slice paths: keep the first.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return decimal.Zero, fmt.Errorf("%w: %q selects nothing", ErrNoValue, path)
		}
		jval = jlist[0]
	}

	var val decimal.Decimal
	switch v := jval.(type) {
	case json.Number:
		val, err = decimal.NewFromString(v.String())
	case float64:
		val = decimal.NewFromFloat(v)
	case string:
		// some APIs return "1 234,5"
		s := strings.ReplaceAll(strings.ReplaceAll(v, " ", ""), ",", ".")
		val, err = decimal.NewFromString(s)
	default:
		return decimal.Zero, fmt.Errorf("%w: %q gives %T", ErrNoValue, path, jval)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrNoValue, path, err)
	}
	if !val.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q gives %s", ErrNoValue, path, val)
	}
	return val, nil
}

// Document serves prices from a JSON document held in memory.
type Document struct {
	doc      any
	path     string
	currency string
}

// NewDocument parses a JSON quote document. path locates the price of a
// symbol, currency is the currency of every price in the document.
func NewDocument(r io.Reader, path, currency string) (*Document, error) {
	doc, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("cannot decode quote document: %w", err)
	}
	return &Document{doc: doc, path: path, currency: currency}, nil
}

// LoadDocument parses the JSON quote document stored in file.
func LoadDocument(file, path, currency string) (*Document, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("cannot open quote file %q: %w", file, err)
	}
	defer f.Close()
	d, err := NewDocument(f, path, currency)
	if err != nil {
		return nil, fmt.Errorf("in %q: %w", file, err)
	}
	return d, nil
}

// LatestPrice implements stockbook.PriceProvider.
func (d *Document) LatestPrice(symbol string) (stockbook.Money, error) {
	val, err := extract(d.doc, expand(d.path, symbol))
	if err != nil {
		return stockbook.Money{}, fmt.Errorf("%w: %s: %w", stockbook.ErrPriceUnavailable, symbol, err)
	}
	return stockbook.M(val, d.currency), nil
}
