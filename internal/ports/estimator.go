package ports

import (
	"context"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// EstimateRequest es la entrada del estimador de probabilidad.
type EstimateRequest struct {
	Description string               // título + reglas del mercado
	Price       float64              // precio YES actual como fracción 0–1
	Items       []domain.ContentItem // contenido nuevo, en orden
}

// Estimator convierte contexto de mercado + contenido en un EstimatorResult.
// Se llama como mucho una vez por (mercado, pasada).
type Estimator interface {
	Estimate(ctx context.Context, req EstimateRequest) (domain.EstimatorResult, error)
}
