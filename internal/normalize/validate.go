package normalize

import (
	"regexp"
	"strings"
	"time"
)

var (
	cpfMaskRe = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	weightRe  = regexp.MustCompile(`^\d*\.?\d*$`)
)

// ValidCPF reports whether value carries exactly 11 digits and, when it
// carries punctuation at all, matches the full DDD.DDD.DDD-DD mask.
func ValidCPF(value string) bool {
	if len(Digits(value)) != 11 {
		return false
	}
	if value != Digits(value) {
		return cpfMaskRe.MatchString(value)
	}
	return true
}

// ValidEmail applies the intentionally permissive rule used across the
// forms: a single @, non-empty local and domain parts, and at least one
// dot in the domain. Full RFC compliance is not a goal.
func ValidEmail(value string) bool {
	at := strings.Count(value, "@")
	if at != 1 {
		return false
	}
	i := strings.IndexByte(value, '@')
	local, domain := value[:i], value[i+1:]
	if local == "" || domain == "" {
		return false
	}
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}

// ValidBirthDate accepts only ISO dates strictly earlier than today.
func ValidBirthDate(value string) bool {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return false
	}
	y, m, d := time.Now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return t.Before(today)
}

// ValidWeight accepts the empty string or an unsigned decimal with at
// most one point. Empty stays valid: the field is optional and input is
// validated mid-typing.
func ValidWeight(value string) bool {
	if value == "" {
		return true
	}
	return weightRe.MatchString(value)
}

// RequiredMessage is the inline message attached to every missing
// required field.
const RequiredMessage = "Campo obrigatório"

// Required flags every field in fields whose value is empty (after
// trimming). The same check backs the patient form and the procedure
// sub-form; an empty result means submission may proceed.
func Required(fields []string, values map[string]string) map[string]string {
	errs := make(map[string]string)
	for _, f := range fields {
		if strings.TrimSpace(values[f]) == "" {
			errs[f] = RequiredMessage
		}
	}
	return errs
}
