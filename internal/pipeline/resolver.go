package pipeline

import (
	"regexp"
	"strconv"

	"github.com/dvloznov/statement-insights/internal/domain"
)

var documentRefPattern = regexp.MustCompile(`(?i)Document (\d+)`)

// ResolveSources maps each raw transaction's "Document N" reference onto the
// name of the N-th uploaded document (1-indexed). References that do not
// match, do not parse, or are out of range resolve to domain.UnknownSource.
// It never fails and always returns a new slice.
func ResolveSources(raw []RawTransaction, docs []domain.Document) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(raw))
	for _, r := range raw {
		out = append(out, domain.Transaction{
			Date:            r.Date,
			Description:     r.Description,
			Amount:          r.Amount,
			Category:        r.Category,
			Notes:           r.Notes,
			StatementSource: resolveSource(r.StatementSource, docs),
		})
	}
	return out
}

func resolveSource(ref string, docs []domain.Document) string {
	m := documentRefPattern.FindStringSubmatch(ref)
	if m == nil {
		return domain.UnknownSource
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > len(docs) {
		return domain.UnknownSource
	}
	return docs[n-1].Name
}
