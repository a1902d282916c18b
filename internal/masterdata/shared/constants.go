package shared

import "strings"

const (
	// Default pagination
	DefaultPage  = 1
	DefaultLimit = 20

	// Sort directions
	SortAsc  = "asc"
	SortDesc = "desc"
)

// OrderBy builds a store order clause from a requested column and direction.
// Columns outside allowed fall back to fallback.
func OrderBy(sortBy, sortDir string, allowed []string, fallback string) []string {
	col := fallback
	for _, a := range allowed {
		if a == sortBy {
			col = a
			break
		}
	}
	dir := "ASC"
	if strings.EqualFold(sortDir, SortDesc) {
		dir = "DESC"
	}
	if col == "id" {
		return []string{"id " + dir}
	}
	return []string{col + " " + dir, "id ASC"}
}
