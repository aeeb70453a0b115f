package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Límites del prompt en caracteres. Unos 8000 tokens de entrada a 3 chars por token.
const (
	maxContentChars     = 24000
	maxDescriptionChars = 2000
	maxCommentsPerItem  = 20
	maxCommentChars     = 500
	truncationReserve   = 100

	noContent     = "(No content)"
	truncatedMark = "\n[... truncated]"
	itemSeparator = "\n---\n"
)

const systemPromptTemplate = `You are a Lead Quantitative Researcher at a prediction market hedge fund. Your task is to analyze scraped text from niche internet forums and determine the probability of a specific event occurring on Kalshi.

Input Data:
- Market Description: %s
- Current Kalshi Price: %s
- Scraped Content: %s

Analysis Guidelines:
- Source Reliability: Penalize "hype" or "doomerism." Weight information higher if the user cites specific data, legislative trackers, or historical precedents.
- Information Asymmetry: Look for "niche" insights that the general public might be missing (e.g., a specific court filing mentioned in a legal subreddit that hasn't hit mainstream news).
- Counter-Signaling: Note if the consensus in the thread is overwhelmingly emotional without evidence; this often suggests a "crowded trade" that might be wrong.

Respond with the required JSON only: implied_probability (0-1), confidence_score (0-1), key_signals (list of strings), contrarian_risks (list of strings), recommendation (one of BUY_YES, BUY_NO, HOLD).`

const userPrompt = "Analyze the above and respond with the required JSON only."

// SystemPrompt genera el prompt de analista para un mercado.
func SystemPrompt(description string, price float64, items []domain.ContentItem) string {
	return fmt.Sprintf(systemPromptTemplate,
		domain.Truncate(description, maxDescriptionChars),
		formatPrice(price),
		FormatItems(items),
	)
}

// FormatItems convierte los items en texto de prompt. Cada item conserva como
// mucho 20 comentarios de hasta 500 chars; el total se corta en 24000 chars y
// se marca con "[... truncated]".
func FormatItems(items []domain.ContentItem) string {
	var parts []string
	total := 0

	for _, it := range items {
		var b strings.Builder
		fmt.Fprintf(&b, "[Thread: %s]\nBody: %s\n", it.Title, it.Body)
		comments := it.Comments
		if len(comments) > maxCommentsPerItem {
			comments = comments[:maxCommentsPerItem]
		}
		for _, c := range comments {
			fmt.Fprintf(&b, "  - %s: %s\n", c.Author, domain.Truncate(c.Body, maxCommentChars))
		}

		block := b.String()
		n := utf8.RuneCountInString(block)
		if total+n > maxContentChars {
			keep := max(0, maxContentChars-total-truncationReserve)
			parts = append(parts, domain.Truncate(block, keep)+truncatedMark)
			break
		}
		parts = append(parts, block)
		total += n
	}

	if len(parts) == 0 {
		return noContent
	}
	return strings.Join(parts, itemSeparator)
}

func formatPrice(p float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", p), "0"), ".")
}
