package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/etnz/stockbook"
	"go.uber.org/zap"
)

// Client fetches quotes from an HTTP JSON API.
//
// The PriceProvider contract is synchronous, so a Client is not a provider
// itself: Snapshot fetches the prices once and returns them as a
// stockbook.PriceMap.
type Client struct {
	HTTP     *http.Client // http.DefaultClient when nil
	URL      string       // URL template, with a "{symbol}" placeholder
	Path     string       // JSONPath template locating the price in the response
	Currency string
	Logger   *zap.Logger // zap.NewNop() when nil
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Fetch retrieves the latest price of symbol.
func (c *Client) Fetch(ctx context.Context, symbol string) (stockbook.Money, error) {
	addr := expand(c.URL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return stockbook.Money{}, fmt.Errorf("cannot fetch %s: %w", symbol, err)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return stockbook.Money{}, fmt.Errorf("cannot fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	c.logger().Debug("quote fetched", zap.String("symbol", symbol), zap.String("host", resp.Request.URL.Host), zap.String("status", resp.Status))
	if resp.StatusCode != http.StatusOK {
		return stockbook.Money{}, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	doc, err := decode(resp.Body)
	if err != nil {
		return stockbook.Money{}, fmt.Errorf("cannot decode quote of %s: %w", symbol, err)
	}
	val, err := extract(doc, expand(c.Path, symbol))
	if err != nil {
		return stockbook.Money{}, fmt.Errorf("quote of %s: %w", symbol, err)
	}
	return stockbook.M(val, c.Currency), nil
}

// Snapshot fetches the price of every symbol. Symbols that could not be
// fetched are missing from the map, so valuing them reports
// stockbook.ErrPriceUnavailable, and their errors are joined in the returned
// error.
func (c *Client) Snapshot(ctx context.Context, symbols []string) (stockbook.PriceMap, error) {
	prices := make(stockbook.PriceMap, len(symbols))
	var errs error
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return prices, errors.Join(errs, err)
		}
		p, err := c.Fetch(ctx, symbol)
		if err != nil {
			c.logger().Warn("quote unavailable", zap.String("symbol", symbol), zap.Error(err))
			errs = errors.Join(errs, err)
			continue
		}
		prices[symbol] = p
	}
	return prices, errs
}
