package matcher

import (
	"sort"
	"strings"
)

// SourceTable es la tabla inmutable keyword → fuentes (subreddits sin "r/").
// Se construye una vez y se inyecta en el Matcher; no hay estado global.
type SourceTable struct {
	entries map[string][]string
}

// NewSourceTable copia el mapa dado normalizando claves y fuentes a minúscula.
// Las fuentes de cada keyword quedan ordenadas y sin duplicados.
func NewSourceTable(m map[string][]string) SourceTable {
	entries := make(map[string][]string, len(m))
	for kw, sources := range m {
		key := strings.ToLower(strings.TrimSpace(kw))
		if key == "" {
			continue
		}
		merged := append(entries[key], sources...)
		entries[key] = normalizeSources(merged)
	}
	return SourceTable{entries: entries}
}

// DefaultSourceTable devuelve la tabla por defecto: economía, Fed y política.
func DefaultSourceTable() SourceTable {
	fed := []string{"fedwatch", "economics", "investing"}
	politics := []string{"politics", "neutralpolitics", "politicaldiscussion"}
	macro := []string{"economics", "investing"}

	return NewSourceTable(map[string][]string{
		"fed":         {"fedwatch", "economics", "investing", "wallstreetbets"},
		"rate":        fed,
		"interest":    fed,
		"cpi":         {"economics", "investing", "inflation"},
		"inflation":   {"economics", "investing", "inflation"},
		"senate":      politics,
		"congress":    politics,
		"vote":        politics,
		"legislative": politics,
		"economy":     {"economics", "investing", "fedwatch"},
		"gdp":         macro,
		"jobs":        macro,
		"employment":  macro,
		"recession":   {"economics", "investing", "stockmarket"},
		"election":    politics,
		"trump":       politics,
		"biden":       politics,
		"fomc":        fed,
		"powell":      fed,
	})
}

// Lookup devuelve las fuentes de una keyword (case-insensitive). La slice
// devuelta es una copia.
func (t SourceTable) Lookup(keyword string) []string {
	src := t.entries[strings.ToLower(keyword)]
	if len(src) == 0 {
		return nil
	}
	return append([]string(nil), src...)
}

// Len devuelve el número de keywords de la tabla.
func (t SourceTable) Len() int {
	return len(t.entries)
}

// Keywords devuelve las keywords de la tabla, ordenadas.
func (t SourceTable) Keywords() []string {
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// normalizeSources quita "r/", pasa a minúscula, ordena y deduplica.
func normalizeSources(sources []string) []string {
	set := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		s = strings.ToLower(strings.TrimSpace(s))
		s = strings.TrimPrefix(s, "r/")
		if s != "" {
			set[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
