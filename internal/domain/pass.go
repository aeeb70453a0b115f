package domain

import "time"

// ExecutionResult es lo que produce el Execution Ledger para una señal.
type ExecutionResult struct {
	Ticker  string
	Outcome Outcome
	Count   int
	Record  *TradeRecord // nil si no se escribió nada
	Reason  string       // por qué se saltó o falló
}

// PassSummary resume una pasada completa del orquestador.
type PassSummary struct {
	StartedAt    time.Time
	Duration     time.Duration
	Markets      int // mercados abiertos listados
	Matched      int // mercados con al menos una fuente
	Groups       int // grupos de scrape
	ItemsScraped int
	Estimates    int
	Results      []ExecutionResult
	Errors       []string
}

// Count devuelve cuántos resultados terminaron en el outcome dado.
func (s PassSummary) Count(o Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}
