package domain

import (
	"encoding/json"
	"time"
)

// Lado y acción de las órdenes que emite el pipeline (solo compra de YES).
const (
	SideYes   = "yes"
	ActionBuy = "buy"

	TimeInForceGTC = "good_till_canceled"
)

// Outcome es el estado final observable de Execute.
type Outcome string

const (
	OutcomeSkipped Outcome = "SKIPPED" // decisión negativa o tamaño 0, nada escrito
	OutcomeLogged  Outcome = "LOGGED"  // dry run, registro escrito
	OutcomePlaced  Outcome = "PLACED"  // orden real aceptada, registro escrito
	OutcomeFailed  Outcome = "FAILED"  // balance u orden fallaron
)

// TradeRecord es una fila append-only del ledger de ejecución.
// Un registro por decisión aprobada y dimensionada, no por ticker.
type TradeRecord struct {
	ID                 int64 // autoincremental, asignado por el ledger
	Ticker             string
	Side               string
	Action             string
	Count              int
	PriceCents         int
	ImpliedProbability float64
	Confidence         float64
	DryRun             bool
	CreatedAt          time.Time
	RawEstimate        string // EstimatorResult serializado (+ nota de fallo)
	BalanceCents       int64  // snapshot del balance al decidir
	ClientOrderID      string // UUID enviado al venue
}

// CostCents devuelve el coste nominal del trade.
func (t TradeRecord) CostCents() int64 {
	return int64(t.Count) * int64(t.PriceCents)
}

// EncodeEstimate serializa el resultado del estimador para auditoría.
func EncodeEstimate(r EstimatorResult) string {
	b, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// OrderRequest es una orden límite enviada al venue.
type OrderRequest struct {
	Ticker        string
	Side          string
	Action        string
	Count         int
	PriceCents    int
	TimeInForce   string
	ClientOrderID string
}

// OrderAck es la respuesta del venue a una orden aceptada.
type OrderAck struct {
	OrderID string
	Status  string
}
