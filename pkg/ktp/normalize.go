package ktp

import (
	"strings"
	"unicode/utf8"
)

// LifetimeMarker is printed in the Berlaku Hingga field of cards that never
// expire.
const LifetimeMarker = "SEUMUR HIDUP"

// Substitution replaces a character sequence OCR is known to confuse with the
// sequence the card actually carries.
type Substitution struct {
	From string
	To   string
}

// Substitutions holds the known OCR confusions per field. They are applied in
// a single pass; when two entries match at the same position the earlier one
// wins. Tesseract reads the 7 of the KTP font as '?' often enough to matter.
var Substitutions = map[Field][]Substitution{
	NIK: {
		{From: "?", To: "7"},
	},
}

// Normalize cleans a raw captured value of field f into its stored form.
// It is idempotent: a value that is already clean is returned unchanged.
func Normalize(f Field, raw string) string {
	value := substitute(f, raw)
	value = strings.TrimSpace(value)

	switch f {
	case RTRW:
		return normalizeRTRW(value)
	case BerlakuHingga:
		return normalizeValidity(value)
	default:
		return value
	}
}

func substitute(f Field, s string) string {
	subs := Substitutions[f]
	if len(subs) == 0 {
		return s
	}
	pairs := make([]string, 0, 2*len(subs))
	for _, sub := range subs {
		pairs = append(pairs, sub.From, sub.To)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// normalizeRTRW restores the slash OCR tends to drop between the two
// three-digit unit numbers.
func normalizeRTRW(s string) string {
	if utf8.RuneCountInString(s) != 6 {
		return s
	}
	r := []rune(s)
	return string(r[:3]) + "/" + string(r[3:])
}

func normalizeValidity(s string) string {
	if strings.Contains(s, LifetimeMarker) {
		return LifetimeMarker
	}
	return s
}
