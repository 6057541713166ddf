// Package form holds the transient, editable copy of a record while the
// user fills it in. Normalization runs on every edit and subscribers are
// notified with the canonical value; the state is discarded after a
// successful submit. Everything here is synchronous and single-threaded,
// mirroring the request-scoped way the forms are used.
package form

import (
	"github.com/odontocare/prontuario/internal/normalize"
)

// FieldKind selects the normalization and validation applied to a field.
type FieldKind int

const (
	Text FieldKind = iota
	CPF
	Phone
	Money
	Email
	BirthDate
	Weight
)

// Validation messages rendered inline next to the offending field.
const (
	MsgInvalidCPF    = "CPF inválido"
	MsgInvalidEmail  = "E-mail inválido"
	MsgInvalidBirth  = "Data de nascimento inválida"
	MsgInvalidWeight = "Peso inválido"
)

// ChangeFunc receives the canonical value after each edit.
type ChangeFunc func(field, value string)

// State is one form's working copy.
type State struct {
	kinds    map[string]FieldKind
	values   map[string]string
	required []string
	subs     []ChangeFunc
}

// New creates an empty form. required lists the fields Validate flags
// when empty; kinds maps fields to their normalization behavior (absent
// fields default to Text).
func New(required []string, kinds map[string]FieldKind) *State {
	if kinds == nil {
		kinds = map[string]FieldKind{}
	}
	return &State{
		kinds:    kinds,
		values:   make(map[string]string),
		required: required,
	}
}

// Subscribe registers a change listener. Listeners run synchronously in
// registration order on every Set.
func (s *State) Subscribe(fn ChangeFunc) {
	s.subs = append(s.subs, fn)
}

// Set normalizes raw input for the field's kind, stores the canonical
// value and notifies subscribers. Setting an already-canonical value is
// a no-op transformation but still notifies.
func (s *State) Set(field, raw string) {
	v := s.normalizeFor(field, raw)
	s.values[field] = v
	for _, fn := range s.subs {
		fn(field, v)
	}
}

// Get returns the canonical value of a field.
func (s *State) Get(field string) string {
	return s.values[field]
}

// Values returns a copy of the current canonical values.
func (s *State) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Reset discards the working copy.
func (s *State) Reset() {
	s.values = make(map[string]string)
}

// Validate returns the field→message map gating submission: required
// fields first, then per-kind format checks on whatever was typed. An
// empty map means the form may be submitted.
func (s *State) Validate() map[string]string {
	errs := normalize.Required(s.required, s.values)
	for field, kind := range s.kinds {
		v := s.values[field]
		if v == "" {
			continue // emptiness is the required check's concern
		}
		if _, flagged := errs[field]; flagged {
			continue
		}
		switch kind {
		case CPF:
			if !normalize.ValidCPF(v) {
				errs[field] = MsgInvalidCPF
			}
		case Email:
			if !normalize.ValidEmail(v) {
				errs[field] = MsgInvalidEmail
			}
		case BirthDate:
			if !normalize.ValidBirthDate(v) {
				errs[field] = MsgInvalidBirth
			}
		case Weight:
			if !normalize.ValidWeight(v) {
				errs[field] = MsgInvalidWeight
			}
		}
	}
	return errs
}

func (s *State) normalizeFor(field, raw string) string {
	switch s.kinds[field] {
	case CPF:
		return normalize.CPF(raw)
	case Phone:
		return normalize.Phone(raw)
	case Money:
		return normalize.CurrencyFromCents(raw)
	default:
		return raw
	}
}
