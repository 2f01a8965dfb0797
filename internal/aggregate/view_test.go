package aggregate

import (
	"testing"

	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_EmptyStore(t *testing.T) {
	v := Derive(Snapshot{Filter: domain.DefaultFilter()})

	assert.False(t, v.HasData())
	assert.Nil(t, v.Summary)
	assert.Nil(t, v.Breakdown)
	assert.NotNil(t, v.Categories)
	assert.NotNil(t, v.FilteredTransactions)
	assert.NotNil(t, v.Insights)
}

func TestDerive_NoFilter(t *testing.T) {
	v := Derive(Snapshot{
		Transactions: sampleStore(),
		Insights:     []string{"Salary arrives on the 1st."},
		Filter:       domain.DefaultFilter(),
	})

	require.Len(t, v.FilteredTransactions, 2)
	assert.Equal(t, "2024-01-01", v.FilteredTransactions[0].Date)
	assert.Equal(t, "2024-01-05", v.FilteredTransactions[1].Date)

	require.NotNil(t, v.Summary)
	assert.Equal(t, 2, v.Summary.TotalTransactions)
	assertDecimal(t, "2000", v.Summary.TotalIncome)
	assertDecimal(t, "50", v.Summary.TotalSpending)
	assert.Equal(t, []string{"Groceries", "Salary"}, v.Categories)
	assert.Equal(t, []string{"Salary arrives on the 1st."}, v.Insights)
}

func TestDerive_CategoryFilter(t *testing.T) {
	v := Derive(Snapshot{
		Transactions: sampleStore(),
		Filter:       domain.FilterState{SelectedCategory: "Groceries"},
	})

	require.Len(t, v.FilteredTransactions, 1)
	require.NotNil(t, v.Summary)
	assert.Equal(t, 1, v.Summary.TotalTransactions)
	assertDecimal(t, "0", v.Summary.TotalIncome)
	assertDecimal(t, "50", v.Summary.TotalSpending)

	require.NotNil(t, v.Breakdown)
	require.Len(t, v.Breakdown.TopSpending, 1)
	assert.Equal(t, "Groceries", v.Breakdown.TopSpending[0].Category)
	assertDecimal(t, "50", v.Breakdown.TopSpending[0].Total)
	assert.Empty(t, v.Breakdown.TopIncome)
	assert.NotNil(t, v.Breakdown.TopIncome)

	// category choices always reflect the whole store
	assert.Equal(t, []string{"Groceries", "Salary"}, v.Categories)
}

func TestDerive_EngagedFilterWithNoMatchesIsZeroed(t *testing.T) {
	v := Derive(Snapshot{
		Transactions: sampleStore(),
		Filter:       domain.FilterState{SelectedCategory: domain.AllCategories, DateRange: domain.DateRange{Start: "2025-01-01"}},
	})

	assert.Empty(t, v.FilteredTransactions)
	require.NotNil(t, v.Summary)
	assert.Equal(t, 0, v.Summary.TotalTransactions)
	assertDecimal(t, "0", v.Summary.TotalIncome)
	assertDecimal(t, "0", v.Summary.TotalSpending)
	require.NotNil(t, v.Breakdown)
	assert.Empty(t, v.Breakdown.TopSpending)
}

func TestDerive_EmptyCategoryTreatedAsAll(t *testing.T) {
	v := Derive(Snapshot{Transactions: sampleStore()})
	assert.Equal(t, domain.AllCategories, v.Filter.SelectedCategory)
	assert.Len(t, v.FilteredTransactions, 2)
}
