package aggregate

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(date string, amount int64, category string) domain.Transaction {
	return domain.Transaction{
		Date:        date,
		Description: category + " " + date,
		Amount:      decimal.NewFromInt(amount),
		Category:    category,
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

// sampleStore is already in store order (chronological).
func sampleStore() []domain.Transaction {
	return []domain.Transaction{
		tx("2024-01-01", 2000, "Salary"),
		tx("2024-01-05", -50, "Groceries"),
	}
}

func TestCategories(t *testing.T) {
	txs := []domain.Transaction{
		tx("2024-01-01", -1, "Utilities"),
		tx("2024-01-02", -1, "Groceries"),
		tx("2024-01-03", 1, "Salary"),
		tx("2024-01-04", -1, "Groceries"),
	}
	assert.Equal(t, []string{"Groceries", "Salary", "Utilities"}, Categories(txs))

	empty := Categories(nil)
	require.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestFilter(t *testing.T) {
	store := sampleStore()

	tests := []struct {
		name      string
		filter    domain.FilterState
		wantDates []string
	}{
		{
			name:      "no filter keeps store order",
			filter:    domain.DefaultFilter(),
			wantDates: []string{"2024-01-01", "2024-01-05"},
		},
		{
			name:      "category",
			filter:    domain.FilterState{SelectedCategory: "Groceries"},
			wantDates: []string{"2024-01-05"},
		},
		{
			name:      "start bound excludes earlier",
			filter:    domain.FilterState{SelectedCategory: domain.AllCategories, DateRange: domain.DateRange{Start: "2024-01-02"}},
			wantDates: []string{"2024-01-05"},
		},
		{
			name:      "bounds are inclusive",
			filter:    domain.FilterState{SelectedCategory: domain.AllCategories, DateRange: domain.DateRange{Start: "2024-01-01", End: "2024-01-05"}},
			wantDates: []string{"2024-01-01", "2024-01-05"},
		},
		{
			name:      "end bound excludes later",
			filter:    domain.FilterState{SelectedCategory: domain.AllCategories, DateRange: domain.DateRange{End: "2024-01-04"}},
			wantDates: []string{"2024-01-01"},
		},
		{
			name:      "unknown category",
			filter:    domain.FilterState{SelectedCategory: "Travel"},
			wantDates: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(store, tt.filter)
			dates := make([]string, 0, len(got))
			for _, g := range got {
				dates = append(dates, g.Date)
			}
			assert.Equal(t, tt.wantDates, dates)
		})
	}
}

func TestActiveSet(t *testing.T) {
	all := sampleStore()

	t.Run("unfiltered uses filtered set", func(t *testing.T) {
		f := domain.DefaultFilter()
		assert.Len(t, ActiveSet(all, Filter(all, f), f), 2)
	})

	t.Run("engaged filter with no matches stays empty", func(t *testing.T) {
		f := domain.FilterState{SelectedCategory: "Travel"}
		assert.Empty(t, ActiveSet(all, Filter(all, f), f))
	})

	t.Run("empty filtered and nothing engaged falls back to all", func(t *testing.T) {
		assert.Len(t, ActiveSet(all, nil, domain.DefaultFilter()), 2)
	})
}

func TestSummarize(t *testing.T) {
	txs := append(sampleStore(), tx("2024-01-06", 0, "Adjustment"))
	got := Summarize(txs)

	assert.Equal(t, 3, got.TotalTransactions)
	assertDecimal(t, "2000", got.TotalIncome)
	assertDecimal(t, "50", got.TotalSpending)
}

func TestSummarize_NetEqualsSum(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		txs := randomTransactions(r, 1+r.Intn(40))
		got := Summarize(txs)

		sum := decimal.Zero
		for _, tr := range txs {
			sum = sum.Add(tr.Amount)
		}
		assert.True(t, got.TotalIncome.Sub(got.TotalSpending).Equal(sum), "iteration %d", i)
	}
}

func TestFilter_NarrowingDateRangeIsMonotonic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	txs := randomTransactions(r, 200)

	wide := domain.FilterState{SelectedCategory: domain.AllCategories, DateRange: domain.DateRange{Start: "2024-01-05", End: "2024-01-25"}}
	narrowings := []domain.DateRange{
		{Start: "2024-01-06", End: "2024-01-25"},
		{Start: "2024-01-05", End: "2024-01-20"},
		{Start: "2024-01-10", End: "2024-01-12"},
		{Start: "2024-01-15", End: "2024-01-15"},
	}

	wideCount := len(Filter(txs, wide))
	for _, dr := range narrowings {
		narrow := wide
		narrow.DateRange = dr
		assert.LessOrEqual(t, len(Filter(txs, narrow)), wideCount, "range %+v", dr)
	}

	open := domain.DefaultFilter()
	assert.GreaterOrEqual(t, len(Filter(txs, open)), wideCount)
}

func TestTopCategories(t *testing.T) {
	txs := []domain.Transaction{
		tx("2024-01-01", -100, "Rent"),
		tx("2024-01-02", -30, "Groceries"),
		tx("2024-01-03", -30, "Groceries"),
		tx("2024-01-04", -500, "Transfer"),
		tx("2024-01-05", -10, "Coffee"),
		tx("2024-01-06", -5, "Books"),
		tx("2024-01-07", 900, "Payment"),
		tx("2024-01-08", 2000, "Salary"),
		tx("2024-01-09", 0, "Groceries"),
		tx("2024-01-10", 40, "Refund"),
	}

	got := TopCategories(txs, TopN)

	require.Len(t, got.TopSpending, 3)
	assert.Equal(t, "Rent", got.TopSpending[0].Category)
	assertDecimal(t, "100", got.TopSpending[0].Total)
	assert.Equal(t, "Groceries", got.TopSpending[1].Category)
	assertDecimal(t, "60", got.TopSpending[1].Total)
	assert.Equal(t, "Coffee", got.TopSpending[2].Category)

	require.Len(t, got.TopIncome, 2)
	assert.Equal(t, "Salary", got.TopIncome[0].Category)
	assert.Equal(t, "Refund", got.TopIncome[1].Category)
}

func TestTopCategories_TiesKeepFirstSeenOrder(t *testing.T) {
	txs := []domain.Transaction{
		tx("2024-01-01", -10, "B"),
		tx("2024-01-02", -10, "A"),
		tx("2024-01-03", -10, "C"),
		tx("2024-01-04", -10, "D"),
	}
	got := TopCategories(txs, TopN)

	names := []string{}
	for _, c := range got.TopSpending {
		names = append(names, c.Category)
	}
	assert.Equal(t, []string{"B", "A", "C"}, names)
}

func TestTopCategories_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	for i := 0; i < 50; i++ {
		got := TopCategories(randomTransactions(r, r.Intn(60)), TopN)
		for _, list := range [][]domain.CategorySummary{got.TopSpending, got.TopIncome} {
			require.NotNil(t, list)
			assert.LessOrEqual(t, len(list), TopN)
			for j, c := range list {
				assert.NotEqual(t, "Transfer", c.Category)
				assert.NotEqual(t, "Payment", c.Category)
				if j > 0 {
					assert.False(t, c.Total.GreaterThan(list[j-1].Total), "not sorted descending")
				}
			}
		}
	}
}

func TestTopCategories_EmptyGroupsAreEmptyLists(t *testing.T) {
	got := TopCategories(nil, TopN)
	require.NotNil(t, got.TopSpending)
	require.NotNil(t, got.TopIncome)
	assert.Empty(t, got.TopSpending)
	assert.Empty(t, got.TopIncome)
}

func randomTransactions(r *rand.Rand, n int) []domain.Transaction {
	categories := []string{"Groceries", "Salary", "Transfer", "Payment", "Rent", "Dining", "Refund"}
	out := make([]domain.Transaction, 0, n)
	for i := 0; i < n; i++ {
		cents := int64(r.Intn(200001) - 100000)
		out = append(out, domain.Transaction{
			Date:     fmt.Sprintf("2024-01-%02d", 1+r.Intn(28)),
			Amount:   decimal.New(cents, -2),
			Category: categories[r.Intn(len(categories))],
		})
	}
	return out
}
