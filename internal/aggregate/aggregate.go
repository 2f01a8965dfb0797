// Package aggregate derives every display value from a transaction store
// and a filter state. All functions are pure and total; callers recompute
// on each read instead of caching results.
package aggregate

import (
	"sort"

	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/shopspring/decimal"
)

// TopN is the number of categories shown per breakdown.
const TopN = 3

// excludedFromBreakdown lists categories that move money between accounts
// rather than earn or spend it.
var excludedFromBreakdown = map[string]bool{
	"Transfer": true,
	"Payment":  true,
}

// Categories returns the distinct categories across all transactions,
// sorted lexicographically. It ignores any filter.
func Categories(txs []domain.Transaction) []string {
	seen := make(map[string]bool, len(txs))
	out := make([]string, 0)
	for _, t := range txs {
		if seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		out = append(out, t.Category)
	}
	sort.Strings(out)
	return out
}

// Matches reports whether a single transaction passes the filter.
// Dates compare as YYYY-MM-DD strings.
func Matches(t domain.Transaction, f domain.FilterState) bool {
	if f.SelectedCategory != domain.AllCategories && t.Category != f.SelectedCategory {
		return false
	}
	if f.DateRange.Start != "" && t.Date < f.DateRange.Start {
		return false
	}
	if f.DateRange.End != "" && t.Date > f.DateRange.End {
		return false
	}
	return true
}

// Filter returns the transactions matching f, preserving store order.
func Filter(txs []domain.Transaction, f domain.FilterState) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, t := range txs {
		if Matches(t, f) {
			out = append(out, t)
		}
	}
	return out
}

// ActiveSet chooses the set that summaries and breakdowns are computed over.
// Once any filter is engaged the filtered set is authoritative even when
// empty; otherwise a non-empty filtered set wins and the full store is the
// fallback.
func ActiveSet(all, filtered []domain.Transaction, f domain.FilterState) []domain.Transaction {
	if len(filtered) > 0 || f.Engaged() {
		return filtered
	}
	return all
}

// Summarize totals the active set. Zero amounts count toward
// TotalTransactions only.
func Summarize(active []domain.Transaction) domain.FinancialSummary {
	income := decimal.Zero
	spending := decimal.Zero
	for _, t := range active {
		switch {
		case t.IsIncome():
			income = income.Add(t.Amount)
		case t.IsSpending():
			spending = spending.Add(t.Amount)
		}
	}
	return domain.FinancialSummary{
		TotalTransactions: len(active),
		TotalIncome:       income,
		TotalSpending:     spending.Abs(),
	}
}

// Breakdown holds the top spending and income categories. Both lists are
// always non-nil.
type Breakdown struct {
	TopSpending []domain.CategorySummary `json:"topSpendingCategories"`
	TopIncome   []domain.CategorySummary `json:"topIncomeCategories"`
}

// TopCategories groups the active set by polarity, skipping transfer-like
// categories and zero amounts, and keeps the n largest totals per group.
// Equal totals keep the order in which their category was first seen.
func TopCategories(active []domain.Transaction, n int) Breakdown {
	spending := newGrouping()
	income := newGrouping()
	for _, t := range active {
		if excludedFromBreakdown[t.Category] {
			continue
		}
		switch {
		case t.IsSpending():
			spending.add(t.Category, t.Amount.Abs())
		case t.IsIncome():
			income.add(t.Category, t.Amount)
		}
	}
	return Breakdown{
		TopSpending: spending.top(n),
		TopIncome:   income.top(n),
	}
}

type grouping struct {
	order  []string
	totals map[string]decimal.Decimal
}

func newGrouping() *grouping {
	return &grouping{totals: make(map[string]decimal.Decimal)}
}

func (g *grouping) add(category string, amount decimal.Decimal) {
	total, ok := g.totals[category]
	if !ok {
		g.order = append(g.order, category)
		total = decimal.Zero
	}
	g.totals[category] = total.Add(amount)
}

func (g *grouping) top(n int) []domain.CategorySummary {
	out := make([]domain.CategorySummary, 0, len(g.order))
	for _, c := range g.order {
		out = append(out, domain.CategorySummary{Category: c, Total: g.totals[c]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
