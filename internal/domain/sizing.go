package domain

import "math"

// Size devuelve cuántos contratos comprar: floor(balance × fracción / precio),
// acotado a [0, maxContracts]. Todo en centavos.
//
// Devuelve 0 si el precio o el balance no son positivos; nunca divide por cero
// ni devuelve negativos.
func Size(balanceCents int64, unitPriceCents int, maxFraction float64, maxContracts int) int {
	if unitPriceCents <= 0 || balanceCents <= 0 || maxContracts <= 0 {
		return 0
	}
	if math.IsNaN(maxFraction) || maxFraction <= 0 {
		return 0
	}
	// El presupuesto se redondea a centavos enteros antes de dividir.
	budget := int64(math.Floor(float64(balanceCents) * maxFraction))
	count := budget / int64(unitPriceCents)
	if count <= 0 {
		return 0
	}
	if count > int64(maxContracts) {
		return maxContracts
	}
	return int(count)
}

// SizeFor aplica Size con los umbrales dados.
func (t Thresholds) SizeFor(balanceCents int64, unitPriceCents int) int {
	return Size(balanceCents, unitPriceCents, t.MaxBalanceFraction, t.MaxContracts)
}
