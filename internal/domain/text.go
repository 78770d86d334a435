package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s and strips diacritics, so "Açúcar" becomes "acucar".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Title upper-cases the first letter of each word using Portuguese rules.
func Title(s string) string {
	return cases.Title(language.BrazilianPortuguese).String(strings.TrimSpace(s))
}

var paymentAliases = map[string]string{
	"pix":     "Pix",
	"credito": "Crédito",
	"debito":  "Débito",
	"caju":    "Caju",
}

// CanonicalPaymentMethod maps common spellings to the stored label and
// title-cases anything else.
func CanonicalPaymentMethod(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if canon, ok := paymentAliases[Normalize(s)]; ok {
		return canon
	}
	return Title(s)
}
