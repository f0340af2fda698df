// Package core holds the expense record and the values exchanged between the
// store, the service and the transports.
package core

type (
	// Expense is one row of the expenses table.
	Expense struct {
		ID          int64   `json:"id"`
		Date        string  `json:"date"`
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Subcategory string  `json:"subcategory"`
		Note        string  `json:"note"`
	}

	// Filter restricts a lookup by category and subcategory. Empty fields
	// impose no constraint.
	Filter struct {
		Category    string
		Subcategory string
	}

	// CategoryTotal is one row of a summary: the sum of amounts for a category.
	CategoryTotal struct {
		Category    string  `json:"category"`
		TotalAmount float64 `json:"total_amount"`
	}
)

// IsEmpty reports whether the filter matches every record.
func (f Filter) IsEmpty() bool {
	return f.Category == "" && f.Subcategory == ""
}
