// Package renderer turns stockbook reports into markdown.
package renderer

import (
	"fmt"
	"time"

	"github.com/etnz/stockbook"
)

// dash is printed for values that cannot be computed.
const dash = "n/a"

func title(id string) string {
	if id == "" {
		return "Account"
	}
	return fmt.Sprintf("Account %s", id)
}

func money(m stockbook.Money) string { return m.String() }

func date(t time.Time) string {
	if t.IsZero() {
		return dash
	}
	return t.Format("2006-01-02 15:04")
}
