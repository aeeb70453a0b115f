package notify

import (
	"fmt"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// PrintHistory imprime el ledger de trades como tabla, más antiguos primero,
// seguido de los totales por modo.
func (c *Console) PrintHistory(records []domain.TradeRecord) {
	if len(records) == 0 {
		fmt.Fprintln(c.out, "no trades recorded")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Time (UTC)", "Ticker", "Side", "Count", "Price", "Cost", "Implied", "Conf", "Mode", "Client order")

	var liveCost, dryCost int64
	live := 0
	for _, r := range records {
		mode := "DRY"
		if !r.DryRun {
			mode = "LIVE"
			live++
			liveCost += r.CostCents()
		} else {
			dryCost += r.CostCents()
		}

		table.Append(
			fmt.Sprintf("%d", r.ID),
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			r.Ticker,
			r.Side,
			fmt.Sprintf("%d", r.Count),
			fmt.Sprintf("%d¢", r.PriceCents),
			formatCents(r.CostCents()),
			fmt.Sprintf("%.2f", r.ImpliedProbability),
			fmt.Sprintf("%.2f", r.Confidence),
			mode,
			shortID(r.ClientOrderID),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "\n  %d trades | live: %d (%s) | dry run: %d (%s)\n",
		len(records), live, formatCents(liveCost), len(records)-live, formatCents(dryCost))
}

func shortID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// DedupCount es el tamaño de un namespace del ledger de idempotencia.
type DedupCount struct {
	Namespace string
	Count     int
}

// PrintDedup imprime cuántos ids hay registrados por namespace.
func (c *Console) PrintDedup(counts []DedupCount) {
	fmt.Fprintln(c.out, "\n── DEDUP ──")
	for _, dc := range counts {
		fmt.Fprintf(c.out, "  %-6s %d seen\n", dc.Namespace, dc.Count)
	}
}

// PrintSeen imprime dónde y cuándo se vio un id por primera vez.
func (c *Console) PrintSeen(id string, records []domain.DedupRecord) {
	if len(records) == 0 {
		fmt.Fprintf(c.out, "  %s: never seen\n", id)
		return
	}
	for _, r := range records {
		fmt.Fprintf(c.out, "  %s: first seen %s in %s\n",
			id, r.FirstSeen.UTC().Format("2006-01-02 15:04:05"), r.Namespace)
	}
}
