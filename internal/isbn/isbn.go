// Package isbn normalizes and checksum-validates ISBN-10 and ISBN-13 identifiers.
package isbn

import "strings"

// Normalize uppercases raw and keeps only the characters 0-9 and X.
// Hyphens, spaces and every other letter are dropped. Length is not checked.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToUpper(raw) {
		if (r >= '0' && r <= '9') || r == 'X' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether an already normalized identifier is a checksum-valid
// ISBN-10 or ISBN-13. Any other length is invalid.
func Valid(normalized string) bool {
	switch len(normalized) {
	case 10:
		return ValidISBN10(normalized)
	case 13:
		return ValidISBN13(normalized)
	default:
		return false
	}
}

// ValidISBN10 checks the mod-11 checksum. The check character may be X.
func ValidISBN10(s string) bool {
	if len(s) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 9; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += int(c-'0') * (10 - i)
	}
	return s[9] == isbn10Check(sum)
}

// ValidISBN13 checks the alternating 1/3 weighted mod-10 checksum.
func ValidISBN13(s string) bool {
	if len(s) != 13 {
		return false
	}
	sum, ok := isbn13Sum(s[:12])
	if !ok {
		return false
	}
	return s[12] == byte('0'+(10-sum%10)%10)
}

// ToISBN13 converts a valid ISBN-10 into its 978-prefixed ISBN-13 form.
func ToISBN13(isbn10 string) (string, bool) {
	if !ValidISBN10(isbn10) {
		return "", false
	}
	body := "978" + isbn10[:9]
	sum, _ := isbn13Sum(body)
	return body + string(rune('0'+(10-sum%10)%10)), true
}

// ToISBN10 converts a valid 978-prefixed ISBN-13 into ISBN-10.
// 979 identifiers have no ISBN-10 equivalent.
func ToISBN10(isbn13 string) (string, bool) {
	if !ValidISBN13(isbn13) || !strings.HasPrefix(isbn13, "978") {
		return "", false
	}
	body := isbn13[3:12]
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(body[i]-'0') * (10 - i)
	}
	return body + string(isbn10Check(sum)), true
}

func isbn10Check(sum int) byte {
	switch r := sum % 11; r {
	case 0:
		return '0'
	case 1:
		return 'X'
	default:
		return byte('0' + (11 - r))
	}
}

func isbn13Sum(digits string) (int, bool) {
	sum := 0
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := int(c - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum, true
}
