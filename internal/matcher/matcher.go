// Package matcher asigna a cada mercado las fuentes de contenido (subreddits)
// que hablan de su tema, a partir de las keywords del propio mercado.
package matcher

import (
	"sort"
	"strings"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Matcher resuelve Market → MatchResult con una SourceTable fija.
type Matcher struct {
	table  SourceTable
	minLen int
}

// New crea un Matcher sobre la tabla dada. minLen es la longitud mínima de
// token al extraer keywords; <= 0 usa domain.DefaultMinKeywordLen.
func New(table SourceTable, minLen int) *Matcher {
	if minLen <= 0 {
		minLen = domain.DefaultMinKeywordLen
	}
	return &Matcher{table: table, minLen: minLen}
}

// Match extrae keywords de título + subtítulo + descripción y une las fuentes
// de todas las que aparecen en la tabla. Si ninguna casa, reintenta solo con
// el título (o el event ticker si no hay título). Nunca descarta el mercado:
// sin coincidencias devuelve Sources vacío.
func (m *Matcher) Match(mkt domain.Market) domain.MatchResult {
	title := mkt.Title
	if title == "" {
		title = mkt.EventTicker
	}

	keywords := domain.ExtractKeywords(joinNonEmpty(mkt.Title, mkt.Subtitle, mkt.Description), m.minLen)
	sources := m.sourcesFor(keywords)

	if len(sources) == 0 {
		titleKeywords := domain.ExtractKeywords(title, m.minLen)
		titleSources := m.sourcesFor(titleKeywords)
		if len(titleSources) > 0 || len(keywords) == 0 {
			keywords, sources = titleKeywords, titleSources
		}
	}

	return domain.MatchResult{
		Ticker:   mkt.Ticker,
		Title:    title,
		Keywords: keywords,
		Sources:  sources,
	}
}

// MatchAll aplica Match a cada mercado, en el mismo orden.
func (m *Matcher) MatchAll(markets []domain.Market) []domain.MatchResult {
	out := make([]domain.MatchResult, 0, len(markets))
	for _, mkt := range markets {
		out = append(out, m.Match(mkt))
	}
	return out
}

// sourcesFor une las fuentes de todas las keywords, ordenadas y sin duplicados.
func (m *Matcher) sourcesFor(keywords []string) []string {
	set := make(map[string]struct{})
	for _, kw := range keywords {
		for _, s := range m.table.Lookup(kw) {
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

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
