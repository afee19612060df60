package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/etnz/stockbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quotes = `{
  "quotes": {
    "AAPL": {"last": 187.25},
    "MSFT": {"last": "412,5"},
    "BAD":  {"last": "n/a"},
    "ZERO": {"last": 0}
  },
  "history": {"AAPL": [180, 185, 187.25]}
}`

func TestDocument(t *testing.T) {
	d, err := NewDocument(strings.NewReader(quotes), "$.quotes.{symbol}.last", "USD")
	require.NoError(t, err)

	p, err := d.LatestPrice("AAPL")
	require.NoError(t, err)
	assert.True(t, p.Equal(stockbook.M(187.25, "USD")), "got %v", p)
	assert.Equal(t, "USD", p.Currency())

	p, err = d.LatestPrice("MSFT")
	require.NoError(t, err)
	assert.True(t, p.Equal(stockbook.M(412.5, "USD")), "got %v", p)

	for _, symbol := range []string{"BAD", "ZERO", "TSLA"} {
		_, err := d.LatestPrice(symbol)
		assert.ErrorIs(t, err, stockbook.ErrPriceUnavailable, symbol)
		assert.ErrorIs(t, err, ErrNoValue, symbol)
	}
}

func TestDocumentListPath(t *testing.T) {
	d, err := NewDocument(strings.NewReader(quotes), "$.history.{symbol}[-1:]", "EUR")
	require.NoError(t, err)
	p, err := d.LatestPrice("AAPL")
	require.NoError(t, err)
	assert.True(t, p.Equal(stockbook.M(187.25, "EUR")), "got %v", p)
}

func TestLoadDocument(t *testing.T) {
	file := filepath.Join(t.TempDir(), "quotes.json")
	require.NoError(t, os.WriteFile(file, []byte(quotes), 0o644))

	d, err := LoadDocument(file, "$.quotes.{symbol}.last", "USD")
	require.NoError(t, err)
	_, err = d.LatestPrice("AAPL")
	assert.NoError(t, err)

	_, err = LoadDocument(filepath.Join(t.TempDir(), "missing.json"), "$", "USD")
	assert.Error(t, err)
}

func TestDocumentValuesAccount(t *testing.T) {
	d, err := NewDocument(strings.NewReader(quotes), "$.quotes.{symbol}.last", "USD")
	require.NoError(t, err)

	a := stockbook.NewAccount("test", stockbook.M(1000, "USD"))
	require.NoError(t, a.ApplyOrder(stockbook.NewBuy(time.Time{}, "AAPL", stockbook.Q(2), stockbook.M(150, "USD"))))

	v, err := a.MarketValue("AAPL", d)
	require.NoError(t, err)
	assert.True(t, v.Equal(stockbook.M(374.5, "USD")), "got %v", v)
}

func server(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		symbol := strings.TrimPrefix(r.URL.Path, "/quote/")
		switch symbol {
		case "AAPL":
			fmt.Fprint(w, `{"price": {"last": 190.5}}`)
		case "MSFT":
			fmt.Fprint(w, `{"price": {"last": "415.10"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func TestClientSnapshot(t *testing.T) {
	var hits atomic.Int32
	s := server(t, &hits)
	c := &Client{
		HTTP:     s.Client(),
		URL:      s.URL + "/quote/{symbol}",
		Path:     "$.price.last",
		Currency: "USD",
	}

	prices, err := c.Snapshot(context.Background(), []string{"AAPL", "MSFT", "TSLA"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Len(t, prices, 2)
	assert.True(t, prices["AAPL"].Equal(stockbook.M(190.5, "USD")))
	assert.True(t, prices["MSFT"].Equal(stockbook.M(415.1, "USD")))

	_, err = prices.LatestPrice("TSLA")
	assert.ErrorIs(t, err, stockbook.ErrPriceUnavailable)
}

func TestClientCanceled(t *testing.T) {
	var hits atomic.Int32
	s := server(t, &hits)
	c := &Client{HTTP: s.Client(), URL: s.URL + "/quote/{symbol}", Path: "$.price.last"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Snapshot(ctx, []string{"AAPL"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, hits.Load())
}

func TestDailyCache(t *testing.T) {
	var hits atomic.Int32
	s := server(t, &hits)
	dir := t.TempDir()
	today := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &http.Client{Transport: &DailyCache{Base: s.Client().Transport, Dir: dir, now: func() time.Time { return today }}}
	c := &Client{HTTP: client, URL: s.URL + "/quote/{symbol}", Path: "$.price.last", Currency: "USD"}

	for range 3 {
		p, err := c.Fetch(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.True(t, p.Equal(stockbook.M(190.5, "USD")))
	}
	assert.Equal(t, int32(1), hits.Load(), "responses of the day must be served from the cache")

	// errors are not cached
	for range 2 {
		_, err := c.Fetch(context.Background(), "TSLA")
		assert.Error(t, err)
	}
	assert.Equal(t, int32(3), hits.Load())

	today = today.AddDate(0, 0, 1)
	_, err := c.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(4), hits.Load(), "the cache expires every day")
}
