package resend

import (
	"strings"
	"unicode"
)

// greetingName picks the name used in "Hi <name>,". It prefers the first word
// of the full name and falls back to the email's local part.
func greetingName(fullName, email string) string {
	if fields := strings.Fields(fullName); len(fields) > 0 {
		return fields[0]
	}

	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}
	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+' || unicode.IsDigit(r)
	})
	if len(parts) == 0 || strings.Contains(localPart, "@") {
		return "there"
	}
	return capitalize(parts[0])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
