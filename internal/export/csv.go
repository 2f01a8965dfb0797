// Package export renders transactions for copying out of the application.
package export

import (
	"strings"

	"github.com/dvloznov/statement-insights/internal/domain"
)

// Header is the first row of every CSV export.
var Header = []string{"Date", "Description", "Amount", "Category", "Notes", "Statement Source"}

// CSV renders txs with a header row. Every field is double-quoted with
// inner quotes doubled, and rows are joined with "\n" without a trailing
// newline. Field contents are written as is, so a "\r\n" inside a field
// survives in the output, though readers such as encoding/csv normalize it
// to "\n".
func CSV(txs []domain.Transaction) string {
	rows := make([]string, 0, len(txs)+1)
	rows = append(rows, joinQuoted(Header))
	for _, t := range txs {
		rows = append(rows, joinQuoted([]string{
			t.Date,
			t.Description,
			t.Amount.String(),
			t.Category,
			t.Notes,
			t.StatementSource,
		}))
	}
	return strings.Join(rows, "\n")
}

func joinQuoted(fields []string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	return b.String()
}
