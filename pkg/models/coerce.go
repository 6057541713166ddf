package models

import (
	"encoding/json"
	"strconv"
)

// Coerce turns the loosely-typed record payload returned by the remote
// API into a PatientRecord, applying fallbacks once at the boundary so
// downstream consumers never chase optional fields. Numbers arriving
// where strings are expected are stringified; anything unusable is left
// empty (the compiler substitutes its own placeholder). Coerce never
// fails: a malformed payload yields an empty record.
func Coerce(raw json.RawMessage) PatientRecord {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return PatientRecord{}
	}
	return coerceMap(m)
}

func coerceMap(m map[string]any) PatientRecord {
	r := PatientRecord{
		ID: str(m, "id"),
		PersonalData: PersonalData{
			Name:      str(m, "nome"),
			Email:     str(m, "email"),
			CPF:       str(m, "cpf"),
			Phone:     str(m, "telefone"),
			Address:   str(m, "endereco"),
			BirthDate: str(m, "dataNascimento"),
		},
		HealthHistory: HealthHistory{
			Diseases:          str(m, "doencas"),
			AllergyMedication: str(m, "alergiaMedicamentos"),
			MedicationInUse:   str(m, "medicamentosUso"),
			Surgeries:         str(m, "cirurgias"),
			Breathing:         str(m, "respiracao"),
			Weight:            str(m, "peso"),
		},
		Habits: Habits{
			Smoking:  Frequency(str(m, "fuma")),
			Drinking: Frequency(str(m, "bebe")),
		},
		ExamData: ExamData{
			BloodExam:    str(m, "exameSangue"),
			Coagulation:  str(m, "coagulacao"),
			Healing:      str(m, "cicatrizacao"),
			PostBleeding: str(m, "sangramentoPos"),
		},
	}

	list, ok := m["procedimentos"].([]any)
	if !ok {
		return r
	}
	for _, item := range list {
		pm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		r.Procedures = append(r.Procedures, Procedure{
			Date:         str(pm, "data"),
			PerformedAt:  str(pm, "dataProcedimento"),
			Name:         str(pm, "procedimento"),
			ToothFace:    str(pm, "denteFace"),
			Value:        str(pm, "valor"),
			Payment:      PaymentMethod(str(pm, "formaPagamento")),
			Professional: str(pm, "profissional"),
			Principal:    boolean(pm, "principal"),
		})
	}
	return r
}

// str reads m[key] as a string, stringifying JSON numbers. Integral
// floats drop the trailing ".0" the decoder would otherwise give them.
func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func boolean(m map[string]any, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}
