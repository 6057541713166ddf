// Package normalize holds the pure input-normalization routines shared by
// the form layer and the report compiler. Every function is idempotent:
// feeding an already-normalized value back in is a no-op.
package normalize

import (
	"strings"
	"time"
)

// Digits strips everything but ASCII digits from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// CPF applies the progressive DDD.DDD.DDD-DD mask to raw input.
// Non-digits are stripped and anything past 11 digits is dropped, so the
// mask can be applied on every keystroke.
func CPF(raw string) string {
	d := Digits(raw)
	if len(d) > 11 {
		d = d[:11]
	}
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "." + d[3:]
	case len(d) <= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	default:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	}
}

// Phone applies the progressive (DD) DDDDD-DDDD mask to raw input,
// breaking after the area code and after the seventh digit.
func Phone(raw string) string {
	d := Digits(raw)
	if len(d) > 11 {
		d = d[:11]
	}
	switch {
	case len(d) == 0:
		return ""
	case len(d) <= 2:
		return d
	case len(d) <= 7:
		return "(" + d[:2] + ") " + d[2:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}

// DateBR renders an ISO calendar date (optionally with a time suffix, as
// returned by the collaborator API) as DD/MM/YYYY. Values that do not
// parse are returned unchanged.
func DateBR(iso string) string {
	s := iso
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return iso
	}
	return t.Format("02/01/2006")
}

// DateISO converts a DD/MM/YYYY display date back to ISO form. Values
// that do not parse are returned unchanged.
func DateISO(br string) string {
	t, err := time.Parse("02/01/2006", br)
	if err != nil {
		return br
	}
	return t.Format("2006-01-02")
}
