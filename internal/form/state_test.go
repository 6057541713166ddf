package form

import (
	"testing"
	"time"
)

func patientForm() *State {
	return New(
		[]string{"nome", "cpf", "telefone"},
		map[string]FieldKind{
			"cpf":            CPF,
			"telefone":       Phone,
			"email":          Email,
			"dataNascimento": BirthDate,
			"peso":           Weight,
			"valor":          Money,
		},
	)
}

func TestSet_NormalizesPerKind(t *testing.T) {
	s := patientForm()
	s.Set("cpf", "12206154471")
	s.Set("telefone", "11987654321")
	s.Set("valor", "1000")
	s.Set("nome", "Maria")

	if got := s.Get("cpf"); got != "122.061.544-71" {
		t.Errorf("cpf = %q", got)
	}
	if got := s.Get("telefone"); got != "(11) 98765-4321" {
		t.Errorf("telefone = %q", got)
	}
	if got := s.Get("valor"); got != "R$ 10,00" {
		t.Errorf("valor = %q", got)
	}
	if got := s.Get("nome"); got != "Maria" {
		t.Errorf("text field must pass through, got %q", got)
	}
}

func TestSubscribe_ReceivesCanonicalValue(t *testing.T) {
	s := patientForm()
	var gotField, gotValue string
	calls := 0
	s.Subscribe(func(field, value string) {
		gotField, gotValue = field, value
		calls++
	})

	s.Set("cpf", "122061544")
	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
	if gotField != "cpf" || gotValue != "122.061.544" {
		t.Errorf("notified with %q=%q", gotField, gotValue)
	}
}

func TestValidate_RequiredBlocksSubmission(t *testing.T) {
	s := patientForm()
	s.Set("nome", "Maria")
	s.Set("cpf", "12206154471")
	// telefone left empty

	errs := s.Validate()
	if len(errs) != 1 {
		t.Fatalf("expected only telefone flagged, got %v", errs)
	}
	if _, ok := errs["telefone"]; !ok {
		t.Errorf("telefone missing from errors: %v", errs)
	}
}

func TestValidate_InvalidCPF(t *testing.T) {
	s := patientForm()
	s.Set("nome", "Maria")
	s.Set("cpf", "123")
	s.Set("telefone", "11987654321")

	errs := s.Validate()
	if errs["cpf"] != MsgInvalidCPF {
		t.Errorf("expected %q, got %v", MsgInvalidCPF, errs)
	}
}

func TestValidate_FormatChecks(t *testing.T) {
	s := patientForm()
	s.Set("nome", "Maria")
	s.Set("cpf", "12206154471")
	s.Set("telefone", "11987654321")
	s.Set("email", "maria@")
	s.Set("dataNascimento", time.Now().AddDate(1, 0, 0).Format("2006-01-02"))
	s.Set("peso", "70,5")

	errs := s.Validate()
	if errs["email"] != MsgInvalidEmail {
		t.Errorf("email error = %q", errs["email"])
	}
	if errs["dataNascimento"] != MsgInvalidBirth {
		t.Errorf("birth error = %q", errs["dataNascimento"])
	}
	if errs["peso"] != MsgInvalidWeight {
		t.Errorf("weight error = %q", errs["peso"])
	}
}

func TestValidate_EmptyOptionalFieldsPass(t *testing.T) {
	s := patientForm()
	s.Set("nome", "Maria")
	s.Set("cpf", "12206154471")
	s.Set("telefone", "11987654321")
	// email, peso, dataNascimento untouched

	if errs := s.Validate(); len(errs) != 0 {
		t.Errorf("expected clean validation, got %v", errs)
	}
}

func TestReset(t *testing.T) {
	s := patientForm()
	s.Set("nome", "Maria")
	s.Reset()
	if got := s.Get("nome"); got != "" {
		t.Errorf("reset should drop values, got %q", got)
	}
}

func TestValues_ReturnsCopy(t *testing.T) {
	s := patientForm()
	s.Set("nome", "Maria")
	vals := s.Values()
	vals["nome"] = "alterado"
	if s.Get("nome") != "Maria" {
		t.Error("Values must not expose internal state")
	}
}
