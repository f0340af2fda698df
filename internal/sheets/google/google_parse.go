package google

import (
	"fmt"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

// Mirror sheet layout, one expense per row:
// A id | B date | C amount | D category | E subcategory | F note
const (
	firstColumn = "A"
	lastColumn  = "F"
)

var header = []any{"ID", "Date", "Amount", "Category", "Subcategory", "Note"}

// a1 builds an A1 range on sheet, quoting the sheet name.
func a1(sheet, rng string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), rng)
}

// rowRange returns the A1 range covering row n.
func rowRange(sheet string, n int) string {
	return a1(sheet, fmt.Sprintf("%s%d:%s%d", firstColumn, n, lastColumn, n))
}

func expenseRow(e core.Expense) []any {
	return []any{e.ID, e.Date, e.Amount, e.Category, e.Subcategory, e.Note}
}

// parseIDCell reads an id from column A. Header and blank cells are not ids.
func parseIDCell(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n > 0 && n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	default:
		id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(v)), 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	}
}

// findRow returns the 1-based row holding id in a column A read, or 0.
func findRow(values [][]any, id int64) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if got, ok := parseIDCell(row[0]); ok && got == id {
			return i + 1
		}
	}
	return 0
}

// collectIDs returns every id in a column A read, in sheet order.
func collectIDs(values [][]any) []int64 {
	ids := make([]int64, 0, len(values))
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		if id, ok := parseIDCell(row[0]); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
