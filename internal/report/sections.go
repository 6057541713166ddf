package report

import (
	"fmt"

	"github.com/odontocare/prontuario/internal/normalize"
	"github.com/odontocare/prontuario/pkg/models"
)

type row struct {
	label string
	value string
}

type table struct {
	title string
	rows  []row
}

type field struct {
	label string
	get   func(models.PatientRecord) string
}

type section struct {
	title  string
	fields []field
}

// fixedSections is the static section layout of the document: label plus
// accessor, in render order. Order and grouping match the clinic's
// printed prontuário.
var fixedSections = []section{
	{
		title: "Dados Pessoais",
		fields: []field{
			{"Nome", func(r models.PatientRecord) string { return r.Name }},
			{"E-mail", func(r models.PatientRecord) string { return r.Email }},
			{"CPF", func(r models.PatientRecord) string { return normalize.CPF(r.CPF) }},
			{"Telefone", func(r models.PatientRecord) string { return normalize.Phone(r.Phone) }},
			{"Endereço", func(r models.PatientRecord) string { return r.Address }},
			{"Data de Nascimento", func(r models.PatientRecord) string { return dateOrEmpty(r.BirthDate) }},
		},
	},
	{
		title: "Histórico de Saúde",
		fields: []field{
			{"Doenças", func(r models.PatientRecord) string { return r.Diseases }},
			{"Alergia a Medicamentos", func(r models.PatientRecord) string { return r.AllergyMedication }},
			{"Medicamentos em Uso", func(r models.PatientRecord) string { return r.MedicationInUse }},
			{"Cirurgias", func(r models.PatientRecord) string { return r.Surgeries }},
			{"Respiração", func(r models.PatientRecord) string { return r.Breathing }},
			{"Peso (kg)", func(r models.PatientRecord) string { return r.Weight }},
		},
	},
	{
		title: "Hábitos",
		fields: []field{
			{"Fuma", func(r models.PatientRecord) string { return string(r.Smoking) }},
			{"Bebe", func(r models.PatientRecord) string { return string(r.Drinking) }},
		},
	},
	{
		title: "Exames",
		fields: []field{
			{"Exame de Sangue", func(r models.PatientRecord) string { return r.BloodExam }},
			{"Coagulação", func(r models.PatientRecord) string { return r.Coagulation }},
			{"Cicatrização", func(r models.PatientRecord) string { return r.Healing }},
			{"Sangramento Pós-procedimento", func(r models.PatientRecord) string { return r.PostBleeding }},
		},
	},
	{
		title: "Histórico Odontológico",
		fields: []field{
			{"Procedimentos Registrados", func(r models.PatientRecord) string {
				if len(r.Procedures) == 0 {
					return ""
				}
				return fmt.Sprintf("%d", len(r.Procedures))
			}},
		},
	},
}

// sectionData resolves the fixed sections against a record, substituting
// the placeholder for missing values.
func sectionData(rec models.PatientRecord) []table {
	out := make([]table, 0, len(fixedSections))
	for _, s := range fixedSections {
		t := table{title: s.title}
		for _, f := range s.fields {
			t.rows = append(t.rows, row{label: f.label, value: orDash(f.get(rec))})
		}
		out = append(out, t)
	}
	return out
}

// procedureData builds one table per procedure in stored order. The
// principal procedure keeps its distinct label; secondaries are numbered
// in sequence.
func procedureData(rec models.PatientRecord) []table {
	out := make([]table, 0, len(rec.Procedures))
	n := 0
	for _, p := range rec.Procedures {
		title := principalName
		if !p.Principal {
			n++
			title = fmt.Sprintf("Procedimento %d", n)
		}
		out = append(out, table{
			title: title,
			rows: []row{
				{"Data", orDash(dateOrEmpty(p.DisplayDate()))},
				{"Procedimento", orDash(p.Name)},
				{"Dente/Face", orDash(p.ToothFace)},
				{"Valor", moneyOrDash(p.Value)},
				{"Forma de Pagamento", orDash(string(p.Payment))},
				{"Profissional", orDash(p.Professional)},
			},
		})
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// moneyOrDash formats through the shared currency path; anything
// non-numeric renders as the placeholder, never as zero.
func moneyOrDash(v string) string {
	if v == "" {
		return placeholder
	}
	s, ok := normalize.CurrencyFromDecimal(v)
	if !ok {
		return placeholder
	}
	return s
}

func dateOrEmpty(iso string) string {
	if iso == "" {
		return ""
	}
	return normalize.DateBR(iso)
}
