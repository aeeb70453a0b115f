// Package signal agrupa mercados que necesitan exactamente el mismo contenido,
// para que un solo scrape sirva a todos ellos.
package signal

import (
	"sort"
	"strings"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Group es un conjunto de tickers que comparten (fuentes, keywords).
type Group struct {
	Sources  []string // ordenadas
	Keywords []string // ordenadas
	Tickers  []string // orden de entrada, sin duplicados
}

// Key devuelve la clave canónica del grupo.
func (g Group) Key() string {
	return groupKey(g.Sources, g.Keywords)
}

// Aggregate agrupa los matches por (fuentes ordenadas, keywords ordenadas).
// Los matches sin fuentes o sin keywords se excluyen; el resto aparece en
// exactamente un grupo. La salida se ordena por clave.
func Aggregate(matches []domain.MatchResult) []Group {
	byKey := make(map[string]*Group)
	seen := make(map[string]map[string]struct{})

	for _, m := range matches {
		if !m.Scrapeable() {
			continue
		}
		sources := sortedUnique(m.Sources)
		keywords := sortedUnique(m.Keywords)
		key := groupKey(sources, keywords)

		g, ok := byKey[key]
		if !ok {
			g = &Group{Sources: sources, Keywords: keywords}
			byKey[key] = g
			seen[key] = make(map[string]struct{})
		}
		if _, dup := seen[key][m.Ticker]; dup {
			continue
		}
		seen[key][m.Ticker] = struct{}{}
		g.Tickers = append(g.Tickers, m.Ticker)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Group, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	return out
}

func groupKey(sources, keywords []string) string {
	return strings.Join(sources, ",") + "|" + strings.Join(keywords, ",")
}

func sortedUnique(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	n := 0
	for i, s := range out {
		if i > 0 && s == out[n-1] {
			continue
		}
		out[n] = s
		n++
	}
	return out[:n]
}
