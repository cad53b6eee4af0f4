package utils

import "strings"

// MinPhoneDigits is the shortest digit string the duplicate detector
// will treat as a plausible phone number.
const MinPhoneDigits = 7

// NormalizePhone strips everything but digits. Returns "" when the
// result is too short to be a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < MinPhoneDigits {
		return ""
	}
	return digits
}

// NormalizeNationalID strips non-alphanumerics and upper-cases, the
// form national ids are compared and derived from.
func NormalizeNationalID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 32)
		}
	}
	return b.String()
}
