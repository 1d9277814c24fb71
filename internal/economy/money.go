package economy

import (
	"fmt"
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money converts and formats amounts of one currency for one locale.
type Money struct {
	unit    currency.Unit
	tag     language.Tag
	printer *message.Printer
	scale   int
}

// NewMoney parses an ISO 4217 code and a BCP 47 locale.
func NewMoney(code, locale string) (*Money, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("currency %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", locale, err)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return &Money{
		unit:    unit,
		tag:     tag,
		printer: message.NewPrinter(tag),
		scale:   scale,
	}, nil
}

func (m *Money) Unit() currency.Unit { return m.unit }
func (m *Money) Scale() int          { return m.scale }

// Printer is the locale's message printer, for surrounding receipt text.
func (m *Money) Printer() *message.Printer { return m.printer }

// ToMinor rounds a major-unit amount to minor units, half away from zero.
func (m *Money) ToMinor(major float64) int64 {
	return int64(math.Round(major * math.Pow10(m.scale)))
}

func (m *Money) ToMajor(minor int64) float64 {
	return float64(minor) / math.Pow10(m.scale)
}

// Format renders a minor-unit amount with the currency symbol.
func (m *Money) Format(minor int64) string {
	return m.printer.Sprint(currency.Symbol(m.unit.Amount(m.ToMajor(minor))))
}
