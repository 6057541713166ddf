package models

import (
	"encoding/json"
	"testing"
)

func TestCoerce_FullPayload(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "42",
		"nome": "Maria Souza",
		"email": "maria@exemplo.com.br",
		"cpf": "12206154471",
		"telefone": "11987654321",
		"endereco": "Rua das Flores, 10",
		"dataNascimento": "1990-05-20",
		"doencas": "Hipertensão",
		"peso": 70.5,
		"fuma": "Nunca",
		"bebe": "Ocasionalmente",
		"exameSangue": "Normal",
		"procedimentos": [
			{"data": "2024-01-10", "procedimento": "Extração", "denteFace": "36", "valor": 350.0, "formaPagamento": "Pix", "profissional": "Dr. Lima", "principal": true},
			{"dataProcedimento": "2024-02-02", "procedimento": "Restauração", "valor": "120.00", "principal": false}
		]
	}`)

	r := Coerce(raw)

	if r.ID != "42" {
		t.Errorf("ID = %q", r.ID)
	}
	if r.Name != "Maria Souza" || r.CPF != "12206154471" {
		t.Errorf("personal data not coerced: %+v", r.PersonalData)
	}
	if r.Weight != "70.5" {
		t.Errorf("numeric weight should be stringified, got %q", r.Weight)
	}
	if r.Smoking != FrequencyNever || r.Drinking != FrequencyOccasionally {
		t.Errorf("habits = %+v", r.Habits)
	}
	if len(r.Procedures) != 2 {
		t.Fatalf("expected 2 procedures, got %d", len(r.Procedures))
	}
	p := r.Procedures[0]
	if !p.Principal || p.Name != "Extração" || p.Value != "350" {
		t.Errorf("principal procedure = %+v", p)
	}
	if r.Procedures[1].Value != "120.00" {
		t.Errorf("string value should pass through, got %q", r.Procedures[1].Value)
	}
}

func TestCoerce_MalformedPayload(t *testing.T) {
	r := Coerce(json.RawMessage(`"not an object"`))
	if r.ID != "" || len(r.Procedures) != 0 {
		t.Errorf("malformed payload should yield empty record, got %+v", r)
	}
	r = Coerce(json.RawMessage(`{"procedimentos": "oops"}`))
	if len(r.Procedures) != 0 {
		t.Errorf("non-array procedures should be dropped, got %+v", r.Procedures)
	}
}

func TestDisplayDate_Fallback(t *testing.T) {
	p := Procedure{PerformedAt: "2024-02-02"}
	if p.DisplayDate() != "2024-02-02" {
		t.Errorf("expected alternate date, got %q", p.DisplayDate())
	}
	p.Date = "2024-01-10"
	if p.DisplayDate() != "2024-01-10" {
		t.Errorf("primary date must win, got %q", p.DisplayDate())
	}
}

func TestPrincipalProcedure(t *testing.T) {
	r := PatientRecord{Procedures: []Procedure{
		{Name: "Limpeza"},
		{Name: "Canal", Principal: true},
	}}
	p, ok := r.PrincipalProcedure()
	if !ok || p.Name != "Canal" {
		t.Errorf("PrincipalProcedure = %+v, %v", p, ok)
	}

	empty := PatientRecord{}
	if _, ok := empty.PrincipalProcedure(); ok {
		t.Error("empty record has no principal procedure")
	}
}

func TestSortedByDate(t *testing.T) {
	r := PatientRecord{Procedures: []Procedure{
		{Name: "Principal", Date: "2023-01-01", Principal: true},
		{Name: "A", Date: "2024-01-10"},
		{Name: "B", Date: "2024-03-05"},
		{Name: "C", Date: "2024-02-01"},
	}}

	got := r.SortedByDate()
	wantOrder := []string{"Principal", "B", "C", "A"}
	for i, name := range wantOrder {
		if got[i].Name != name {
			t.Errorf("position %d = %q, want %q", i, got[i].Name, name)
		}
	}

	// Stored order must be untouched.
	if r.Procedures[1].Name != "A" || r.Procedures[3].Name != "C" {
		t.Errorf("stored order mutated: %+v", r.Procedures)
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	r := PatientRecord{
		ID:           "7",
		PersonalData: PersonalData{Name: "João", CPF: "12345678901"},
		Procedures:   []Procedure{{Name: "Limpeza", Principal: true}},
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	// Embedded groups must flatten into one object for the API.
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["nome"] != "João" {
		t.Errorf("expected flattened nome key, got %v", m)
	}
	if _, ok := m["PersonalData"]; ok {
		t.Error("embedded struct must not nest")
	}
}
