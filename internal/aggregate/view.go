package aggregate

import "github.com/dvloznov/statement-insights/internal/domain"

// Snapshot is an immutable copy of a session's store and filter state.
// Deriving a View from one Snapshot guarantees every derivation sees the
// same store version.
type Snapshot struct {
	Transactions []domain.Transaction
	Insights     []string
	Filter       domain.FilterState
}

// View is everything the UI renders for a snapshot.
type View struct {
	Filter               domain.FilterState       `json:"filter"`
	Categories           []string                 `json:"categories"`
	FilteredTransactions []domain.Transaction     `json:"filteredTransactions"`
	TotalStored          int                      `json:"totalStored"`
	Summary              *domain.FinancialSummary `json:"summary"`   // nil until an analysis stored transactions
	Breakdown            *Breakdown               `json:"breakdown"` // nil until an analysis stored transactions
	Insights             []string                 `json:"insights"`
}

// HasData reports whether an analysis has populated the store.
func (v View) HasData() bool {
	return v.TotalStored > 0
}

// Derive computes the full view. It never fails.
func Derive(s Snapshot) View {
	f := s.Filter.Normalize()
	filtered := Filter(s.Transactions, f)

	v := View{
		Filter:               f,
		Categories:           Categories(s.Transactions),
		FilteredTransactions: filtered,
		TotalStored:          len(s.Transactions),
		Insights:             s.Insights,
	}
	if v.Insights == nil {
		v.Insights = []string{}
	}
	if len(s.Transactions) == 0 {
		return v
	}

	active := ActiveSet(s.Transactions, filtered, f)
	summary := Summarize(active)
	breakdown := TopCategories(active, TopN)
	v.Summary = &summary
	v.Breakdown = &breakdown
	return v
}
