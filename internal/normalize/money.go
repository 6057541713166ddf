package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyFromCents interprets raw digit input as an integer number of
// centavos and renders it as R$ with pt-BR grouping. Working in minor
// units keeps keystroke-by-keystroke input free of float rounding drift.
// Empty input (no digits) renders empty so a cleared field stays cleared.
func CurrencyFromCents(raw string) string {
	d := Digits(raw)
	if d == "" {
		return ""
	}
	// Guard against pathological input lengths; 15 digits is already
	// trillions of reais.
	if len(d) > 15 {
		d = d[:15]
	}
	cents, err := decimal.NewFromString(d)
	if err != nil {
		return ""
	}
	v := cents.Div(decimal.NewFromInt(100))
	return "R$ " + groupBR(v.StringFixed(2))
}

// CurrencyFromDecimal renders a plain decimal string in major units
// (the transmission form, e.g. "1234.5") as R$ display. The boolean is
// false when the input is not numeric.
func CurrencyFromDecimal(v string) (string, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return "", false
	}
	return "R$ " + groupBR(d.StringFixed(2)), true
}

// CurrencyToDecimal strips the currency symbol and pt-BR grouping from a
// display value and returns a plain decimal string (comma becomes point)
// suitable for transmission. Non-monetary input falls through untouched
// apart from symbol stripping.
func CurrencyToDecimal(display string) string {
	s := strings.TrimSpace(display)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return s
}

// groupBR converts a fixed "1234.56" decimal string to "1.234,56".
func groupBR(fixed string) string {
	intPart := fixed
	frac := ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i+1:]
	}
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}
