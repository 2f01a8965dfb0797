package domain

// AllCategories is the category filter sentinel that matches every category.
const AllCategories = "all"

// DateRange bounds are inclusive ISO dates; an empty bound is open.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FilterState holds the user's current category and date selections.
type FilterState struct {
	SelectedCategory string    `json:"selectedCategory"`
	DateRange        DateRange `json:"dateRange"`
}

// DefaultFilter returns the filter state with nothing engaged.
func DefaultFilter() FilterState {
	return FilterState{SelectedCategory: AllCategories}
}

// Engaged reports whether any filter differs from its default.
func (f FilterState) Engaged() bool {
	return f.SelectedCategory != AllCategories || f.DateRange.Start != "" || f.DateRange.End != ""
}

// Normalize maps an empty category to the sentinel.
func (f FilterState) Normalize() FilterState {
	if f.SelectedCategory == "" {
		f.SelectedCategory = AllCategories
	}
	return f
}
