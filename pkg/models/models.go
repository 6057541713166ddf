// Package models defines the patient record exchanged with the clinic's
// remote API and consumed by the report compiler.
package models

import (
	"sort"
)

// Frequency is the fixed enumeration used for smoking and drinking habits.
type Frequency string

const (
	FrequencyNever        Frequency = "Nunca"
	FrequencyOccasionally Frequency = "Ocasionalmente"
	FrequencyFrequently   Frequency = "Frequentemente"
	FrequencyDaily        Frequency = "Diariamente"
)

// PaymentMethod is the fixed enumeration of procedure payment modalities.
type PaymentMethod string

const (
	PaymentCash      PaymentMethod = "Dinheiro"
	PaymentCredit    PaymentMethod = "Cartão de Crédito"
	PaymentDebit     PaymentMethod = "Cartão de Débito"
	PaymentPix       PaymentMethod = "Pix"
	PaymentBoleto    PaymentMethod = "Boleto"
	PaymentInsurance PaymentMethod = "Convênio"
)

// Procedure is one clinical/billing event attached to a record. The
// principal procedure is created together with the record; secondary
// procedures are append-only, with no edit or delete.
type Procedure struct {
	Date         string        `json:"data,omitempty"`
	PerformedAt  string        `json:"dataProcedimento,omitempty"` // alternate date used by older payloads
	Name         string        `json:"procedimento"`
	ToothFace    string        `json:"denteFace,omitempty"`
	Value        string        `json:"valor,omitempty"` // decimal string in major units
	Payment      PaymentMethod `json:"formaPagamento,omitempty"`
	Professional string        `json:"profissional,omitempty"`
	Principal    bool          `json:"principal"`
}

// DisplayDate prefers the primary date field and falls back to the
// alternate one.
func (p Procedure) DisplayDate() string {
	if p.Date != "" {
		return p.Date
	}
	return p.PerformedAt
}

// PersonalData groups the identification fields of a record.
type PersonalData struct {
	Name      string `json:"nome"`
	Email     string `json:"email,omitempty"`
	CPF       string `json:"cpf"` // stored stripped of punctuation
	Phone     string `json:"telefone,omitempty"`
	Address   string `json:"endereco,omitempty"`
	BirthDate string `json:"dataNascimento,omitempty"` // ISO date
}

// HealthHistory groups the free-text anamnesis fields plus weight.
type HealthHistory struct {
	Diseases          string `json:"doencas,omitempty"`
	AllergyMedication string `json:"alergiaMedicamentos,omitempty"`
	MedicationInUse   string `json:"medicamentosUso,omitempty"`
	Surgeries         string `json:"cirurgias,omitempty"`
	Breathing         string `json:"respiracao,omitempty"`
	Weight            string `json:"peso,omitempty"` // kilograms
}

// Habits groups the enumerated lifestyle fields.
type Habits struct {
	Smoking  Frequency `json:"fuma,omitempty"`
	Drinking Frequency `json:"bebe,omitempty"`
}

// ExamData groups the clinical exam notes.
type ExamData struct {
	BloodExam    string `json:"exameSangue,omitempty"`
	Coagulation  string `json:"coagulacao,omitempty"`
	Healing      string `json:"cicatrizacao,omitempty"`
	PostBleeding string `json:"sangramentoPos,omitempty"`
}

// PatientRecord is the canonical entity. The ID is assigned server-side
// on registration and never generated here; the authoritative copy lives
// in the remote API.
type PatientRecord struct {
	ID            string `json:"id,omitempty"`
	PersonalData
	HealthHistory
	Habits
	ExamData
	Procedures []Procedure `json:"procedimentos,omitempty"`
}

// PrincipalProcedure returns the record's principal procedure, if any.
func (r *PatientRecord) PrincipalProcedure() (Procedure, bool) {
	for _, p := range r.Procedures {
		if p.Principal {
			return p, true
		}
	}
	return Procedure{}, false
}

// SortedByDate returns a display copy of the procedures: principal first,
// then secondaries by descending date. Stored order is never mutated;
// this ordering exists only for the listing view, the compiled document
// always follows stored order.
func (r *PatientRecord) SortedByDate() []Procedure {
	out := make([]Procedure, 0, len(r.Procedures))
	var rest []Procedure
	for _, p := range r.Procedures {
		if p.Principal && len(out) == 0 {
			out = append(out, p)
			continue
		}
		rest = append(rest, p)
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].DisplayDate() > rest[j].DisplayDate()
	})
	return append(out, rest...)
}
