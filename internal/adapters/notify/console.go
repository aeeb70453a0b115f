package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Console implementa ports.Notifier escribiendo a un io.Writer.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
// Con table=true imprime además la tabla de resultados de cada pasada.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyPass imprime el resumen de una pasada en una línea y, si hay trades
// registrados o el modo tabla está activo, la tabla de resultados.
func (c *Console) NotifyPass(_ context.Context, s domain.PassSummary) error {
	c.printCompact(s)

	if len(s.Results) == 0 {
		return nil
	}
	if c.table || s.Count(domain.OutcomeLogged)+s.Count(domain.OutcomePlaced)+s.Count(domain.OutcomeFailed) > 0 {
		c.printResults(s.Results)
	}
	if c.table && len(s.Errors) > 0 {
		fmt.Fprintf(c.out, "\n── ERRORS (%d) ──\n", len(s.Errors))
		for _, e := range s.Errors {
			fmt.Fprintf(c.out, "  %s\n", e)
		}
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(s domain.PassSummary) {
	now := s.StartedAt
	if now.IsZero() {
		now = time.Now()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d mkts → matched:%d groups:%d items:%d est:%d",
		now.Format("15:04:05"), s.Markets, s.Matched, s.Groups, s.ItemsScraped, s.Estimates)
	fmt.Fprintf(&sb, " | logged:%d placed:%d failed:%d skipped:%d",
		s.Count(domain.OutcomeLogged), s.Count(domain.OutcomePlaced),
		s.Count(domain.OutcomeFailed), s.Count(domain.OutcomeSkipped))
	if len(s.Errors) > 0 {
		fmt.Fprintf(&sb, " | errs:%d", len(s.Errors))
	}
	fmt.Fprintf(&sb, " (%s)", s.Duration.Round(time.Millisecond))

	fmt.Fprintln(c.out, sb.String())
}

// printResults imprime una fila por señal evaluada.
func (c *Console) printResults(results []domain.ExecutionResult) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Ticker", "Outcome", "Count", "Price", "Cost", "Implied", "Conf", "Note")

	for _, r := range results {
		price, cost, implied, conf := "-", "-", "-", "-"
		if r.Record != nil {
			price = fmt.Sprintf("%d¢", r.Record.PriceCents)
			cost = formatCents(r.Record.CostCents())
			implied = fmt.Sprintf("%.2f", r.Record.ImpliedProbability)
			conf = fmt.Sprintf("%.2f", r.Record.Confidence)
		}
		table.Append(
			r.Ticker,
			string(r.Outcome),
			fmt.Sprintf("%d", r.Count),
			price,
			cost,
			implied,
			conf,
			truncate(r.Reason, 40),
		)
	}
	table.Render()
}

// formatCents formatea centavos como dólares: 12345 → "$123.45".
func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
