package ports

import (
	"context"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Scraper busca contenido nuevo en un conjunto de fuentes.
type Scraper interface {
	// Scrape devuelve solo items no vistos antes y los marca como vistos en
	// el DedupStore antes de devolverlos. Con error puede devolver igualmente
	// los items ya recogidos (p. ej. si venció el deadline a mitad).
	Scrape(ctx context.Context, sources, keywords []string) ([]domain.ContentItem, error)
}
