package kalshi

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// toDomainMarket traduce un apiMarket al modelo de dominio.
// Las reglas (primarias + secundarias) forman la descripción.
func toDomainMarket(m apiMarket) domain.Market {
	subtitle := m.Subtitle
	if subtitle == "" {
		subtitle = m.YesSubTitle
	}

	rules := strings.TrimSpace(strings.Join(nonEmpty(m.RulesPrimary, m.RulesSecondary), "\n"))

	yesBid := m.YesBid
	if cents, ok := dollarsToCents(m.YesBidDollars); ok {
		yesBid = cents
	}

	return domain.Market{
		Ticker:      m.Ticker,
		EventTicker: m.EventTicker,
		Title:       m.Title,
		Subtitle:    subtitle,
		Description: rules,
		YesBid:      yesBid,
		Status:      m.Status,
	}
}

// dollarsToCents convierte "0.4200" → 42. Redondea al centavo más cercano;
// devuelve false si el string está vacío o no es un número.
func dollarsToCents(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return int(d.Mul(hundred).Round(0).IntPart()), true
}

// bestYesBid devuelve el precio del último nivel YES, en centavos.
// Prefiere los niveles en dólares cuando vienen.
func bestYesBid(ob apiOrderbook) (int, bool) {
	if n := len(ob.YesDollars); n > 0 && len(ob.YesDollars[n-1]) > 0 {
		if cents, ok := dollarsToCents(ob.YesDollars[n-1][0]); ok {
			return cents, true
		}
	}
	if n := len(ob.Yes); n > 0 && len(ob.Yes[n-1]) > 0 {
		return ob.Yes[n-1][0], true
	}
	return 0, false
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
