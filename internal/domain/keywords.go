package domain

import (
	"strings"
	"unicode"
)

// DefaultMinKeywordLen es la longitud mínima de token por defecto.
const DefaultMinKeywordLen = 2

// stopwords es el conjunto mínimo de palabras vacías que se descartan.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"is": {}, "it": {}, "be": {}, "by": {}, "as": {},
}

// ExtractKeywords normaliza texto libre en tokens en minúscula, sin stopwords,
// sin duplicados y en orden de primera aparición.
// Letras, dígitos y '_' son caracteres de palabra; el resto separa tokens.
// Tokens con menos de minLen runas se descartan.
func ExtractKeywords(text string, minLen int) []string {
	if text == "" {
		return []string{}
	}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < minLen {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
