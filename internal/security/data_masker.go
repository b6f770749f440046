package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lrsystem/lrsystem/internal/store"
)

var (
	emailRe      = regexp.MustCompile(`(?i)email|correo`)
	phoneRe      = regexp.MustCompile(`(?i)celular|telefono|teléfono|phone`)
	dniRe        = regexp.MustCompile(`(?i)^dni$|documento`)
	credentialRe = regexp.MustCompile(`(?i)^pass$|newpass|password|contrase|secret|token|api_key`)
)

// DataMasker hides sensitive column values in rows returned to callers.
// Credential columns are always masked; contact columns only when listed.
type DataMasker struct {
	sensitiveColumns []string
}

func NewDataMasker(sensitiveColumns []string) *DataMasker {
	lower := make([]string, len(sensitiveColumns))
	for i, c := range sensitiveColumns {
		lower[i] = strings.ToLower(c)
	}
	return &DataMasker{sensitiveColumns: lower}
}

// MaskRows returns masked copies; the input rows are left untouched.
func (m *DataMasker) MaskRows(rows []store.Row) []store.Row {
	masked := make([]store.Row, len(rows))
	for i, row := range rows {
		masked[i] = m.MaskRow(row)
	}
	return masked
}

func (m *DataMasker) MaskRow(row store.Row) store.Row {
	if row == nil {
		return nil
	}
	result := make(store.Row, len(row))
	for col, val := range row {
		if val != nil && m.isSensitive(col) {
			result[col] = maskValue(col, fmt.Sprintf("%v", val))
		} else {
			result[col] = val
		}
	}
	return result
}

func (m *DataMasker) isSensitive(col string) bool {
	if credentialRe.MatchString(col) {
		return true
	}
	lower := strings.ToLower(col)
	for _, s := range m.sensitiveColumns {
		if lower == s {
			return true
		}
	}
	return false
}

func maskValue(col, val string) string {
	switch {
	case credentialRe.MatchString(col):
		return "***"
	case emailRe.MatchString(col):
		return maskEmail(val)
	case phoneRe.MatchString(col):
		return maskPhone(val)
	case dniRe.MatchString(col):
		return maskTrailing(val, 3)
	default:
		return "***"
	}
}

// maskEmail: "rosa.quispe@acme.pe" → "ro***@***.pe"
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "***"
	}
	visible := min(2, len(local))
	ext := domain
	if i := strings.LastIndexByte(domain, '.'); i != -1 {
		ext = domain[i+1:]
	}
	return fmt.Sprintf("%s***@***.%s", local[:visible], ext)
}

// maskPhone keeps the last 3 digits: "987 654 321" → "***-***-321"
func maskPhone(phone string) string {
	digits := onlyDigits(phone)
	if len(digits) < 3 {
		return "***-***-***"
	}
	return "***-***-" + digits[len(digits)-3:]
}

func maskTrailing(val string, keep int) string {
	digits := onlyDigits(val)
	if len(digits) <= keep {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-keep) + digits[len(digits)-keep:]
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
