package email

import (
	"strings"
	"unicode"
)

// DeriveNameFromEmail guesses a greeting-worthy first/last name from the
// local part of an address. Used by decision email templates when the
// member record carries no contact name.
func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

// Redact masks the local part of an address for audit detail payloads,
// keeping the first rune and the domain so operators can still correlate
// delivery problems without the trail storing full addresses.
func Redact(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	local := email[:at]
	runes := []rune(local)
	return string(runes[0]) + strings.Repeat("*", len(runes)-1) + email[at:]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
