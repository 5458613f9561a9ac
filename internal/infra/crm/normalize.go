package crm

import (
	"strings"
	"unicode"
)

// NormalizeCityName trims and title-cases a city name so cache keys and CRM
// queries agree on one spelling ("  são paulo " -> "São Paulo").
func NormalizeCityName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name))
	startOfWord := true
	for _, r := range strings.ToLower(name) {
		if startOfWord {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		startOfWord = r == ' ' || r == '-' || r == '\''
	}
	return b.String()
}

// NormalizeUF trims, uppercases and truncates a state code to two characters.
func NormalizeUF(uf string) string {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	if len(uf) > 2 {
		uf = uf[:2]
	}
	return uf
}

// DigitsOnly strips every non-digit rune. Used for CNPJ and phone numbers.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeTaxID returns the digits-only CNPJ and whether it has the required
// 14 digits.
func NormalizeTaxID(taxID string) (string, bool) {
	digits := DigitsOnly(taxID)
	return digits, len(digits) == 14
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
