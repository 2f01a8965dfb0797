package pipeline

import (
	"context"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-insights/internal/domain"
)

// SortTransactionsStep orders resolved transactions chronologically.
type SortTransactionsStep struct{}

func (s *SortTransactionsStep) Execute(ctx context.Context, state *PipelineState) error {
	SortByDate(state.Transactions)
	return nil
}

// SortByDate stable-sorts txs ascending by date. Transactions whose date
// does not parse as YYYY-MM-DD go after all others, keeping their order.
func SortByDate(txs []domain.Transaction) {
	type keyed struct {
		date civil.Date
		ok   bool
	}
	keys := make([]keyed, len(txs))
	for i, t := range txs {
		d, err := civil.ParseDate(t.Date)
		keys[i] = keyed{date: d, ok: err == nil}
	}

	idx := make([]int, len(txs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.ok != kb.ok {
			return ka.ok
		}
		return ka.ok && ka.date.Before(kb.date)
	})

	sorted := make([]domain.Transaction, len(txs))
	for i, j := range idx {
		sorted[i] = txs[j]
	}
	copy(txs, sorted)
}
