package stockbook

import (
	"errors"
	"testing"
)

func TestPriceProviders(t *testing.T) {
	errBroken := errors.New("broken feed")
	feed := PriceFunc(func(symbol string) (Money, error) {
		switch symbol {
		case "AAPL":
			return usd(150), nil
		case "BAD":
			return Money{}, errBroken
		}
		return Money{}, ErrPriceUnavailable
	})

	testCases := []struct {
		name     string
		provider PriceProvider
		symbol   string
		want     Money
		wantErr  error
	}{
		{"map hit", PriceMap{"AAPL": usd(10)}, "AAPL", usd(10), nil},
		{"map miss", PriceMap{"AAPL": usd(10)}, "MSFT", Money{}, ErrPriceUnavailable},
		{"func", feed, "AAPL", usd(150), nil},
		{"default on a miss", WithDefaultPrice(feed, usd(1)), "MSFT", usd(1), nil},
		{"default keeps known prices", WithDefaultPrice(feed, usd(1)), "AAPL", usd(150), nil},
		{"default keeps other errors", WithDefaultPrice(feed, usd(1)), "BAD", Money{}, errBroken},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.provider.LatestPrice(tc.symbol)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("LatestPrice(%q) error = %v, want %v", tc.symbol, err, tc.wantErr)
			}
			if !got.Equal(tc.want) {
				t.Errorf("LatestPrice(%q) = %v, want %v", tc.symbol, got, tc.want)
			}
		})
	}
}

func TestAccount_PriceInOtherCurrency(t *testing.T) {
	a := NewAccount("eur", M(100, "EUR"))
	mustApply(t, a, NewBuy(day(1), "AIR", Q(1), M(50, "EUR")))

	if _, err := a.MarketValue("AIR", PriceMap{"AIR": usd(60)}); err == nil {
		t.Errorf("MarketValue() accepted a price in USD for an EUR account")
	}
	// a price without currency is in the account currency
	v, err := a.MarketValue("AIR", PriceMap{"AIR": M(60, "")})
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(M(60, "EUR")) || v.Currency() != "EUR" {
		t.Errorf("MarketValue() = %v %s, want 60 EUR", v, v.Currency())
	}
}
