package domain

// maxDescriptionChars limita el texto de mercado que se envía al estimador.
const maxDescriptionChars = 3000

// DefaultYesPriceCents es el precio asumido cuando el orderbook no tiene bids YES.
const DefaultYesPriceCents = 50

// Market es un snapshot de un contrato binario de Kalshi.
// Se obtiene en cada pasada; el venue es la fuente de verdad, no se persiste.
type Market struct {
	Ticker      string
	EventTicker string
	Title       string
	Subtitle    string
	Description string // reglas de resolución (rules_primary + rules_secondary)
	YesBid      int    // mejor bid YES en centavos (0 = desconocido)
	Status      string
}

// Describe devuelve título + reglas, truncado para el prompt del estimador.
func (m Market) Describe() string {
	title := m.Title
	if title == "" {
		title = m.EventTicker
	}
	rules := m.Description
	if rules == "" {
		rules = m.Subtitle
	}
	return Truncate(title+"\n"+rules, maxDescriptionChars)
}

// MatchResult es el resultado de mapear un mercado a sus fuentes de contenido.
// Derivado; se recalcula en cada pasada.
type MatchResult struct {
	Ticker   string
	Title    string
	Keywords []string
	Sources  []string
}

// Scrapeable devuelve true si hay fuentes y keywords con las que buscar contenido.
func (r MatchResult) Scrapeable() bool {
	return len(r.Sources) > 0 && len(r.Keywords) > 0
}

// PriceFraction convierte centavos a fracción 0–1.
func PriceFraction(cents int) float64 {
	return float64(cents) / 100.0
}

// Truncate corta s a n runas como máximo.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
