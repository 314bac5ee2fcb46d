// Package currency converts USD-denominated P/L into the display currency
// and formats it for a locale. It is presentation only; the engine always
// works in account currency.
package currency

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"trade-journal/internal/analysis"
)

// Defaults when settings leave the display currency unset.
const (
	DefaultCode   = "USD"
	DefaultLocale = "en"
)

// Convert multiplies a USD amount by the display rate. A rate <= 0 leaves
// the amount unchanged.
func Convert(usd, rate float64) float64 {
	if rate <= 0 {
		return usd
	}
	return analysis.RoundMoney(usd * rate)
}

// Formatter renders amounts in one currency and locale.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
	rate    float64
}

// NewFormatter builds a formatter for an ISO 4217 code and a BCP 47 locale.
func NewFormatter(code, locale string, rate float64) (*Formatter, error) {
	if code == "" {
		code = DefaultCode
	}
	if locale == "" {
		locale = DefaultLocale
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("invalid currency code %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &Formatter{
		unit:    unit,
		printer: message.NewPrinter(tag),
		rate:    rate,
	}, nil
}

// Code returns the ISO code of the display currency.
func (f *Formatter) Code() string {
	return f.unit.String()
}

// Format renders an amount already in the display currency, e.g. "$ 1,234.50".
// Negative amounts are prefixed with a minus sign.
func (f *Formatter) Format(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + f.printer.Sprint(currency.Symbol(f.unit.Amount(amount)))
}

// Display converts a USD amount at the formatter's rate and formats it.
func (f *Formatter) Display(usd float64) string {
	return f.Format(Convert(usd, f.rate))
}

// Format is a one-shot helper around NewFormatter.
func Format(amount float64, code, locale string) (string, error) {
	f, err := NewFormatter(code, locale, 1)
	if err != nil {
		return "", err
	}
	return f.Format(amount), nil
}

// Normalize upper-cases and trims a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
