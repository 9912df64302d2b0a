package shared

import (
	"fmt"
	"strings"
	"unicode"
)

// Sanitize makes user-supplied text safe to print in a terminal.
//
// Escape sequences and other control characters are dropped; tabs and newlines become spaces.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r == unicode.ReplacementChar:
			continue
		case unicode.IsControl(r):
			continue
		case unicode.Is(unicode.Cf, r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanCode keeps only the digits of a scanned or typed product code.
func CleanCode(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsNumericCode reports whether s is a product code: digits with optional space or dash separators.
func IsNumericCode(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '-':
		default:
			return false
		}
	}
	return digits > 0
}

// ValidGTIN checks the trailing check digit of an EAN-8, UPC-A, EAN-13 or GTIN-14 code.
func ValidGTIN(code string) bool {
	switch len(code) {
	case 8, 12, 13, 14:
	default:
		return false
	}

	sum := 0
	// weights alternate 3,1 from the digit left of the check digit
	for i := len(code) - 2; i >= 0; i-- {
		c := code[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if (len(code)-2-i)%2 == 0 {
			d *= 3
		}
		sum += d
	}

	last := code[len(code)-1]
	if last < '0' || last > '9' {
		return false
	}
	return (10-sum%10)%10 == int(last-'0')
}

// NormalizeToken upper-cases and trims an access token (WORD-WORD-NNNN).
func NormalizeToken(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// FormatRuntime renders a runtime in minutes, or an empty string when unknown.
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	return fmt.Sprintf("%d min", minutes)
}

// Pluralize returns "1 item" / "N items".
func Pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
