package travel

import "strings"

// Column is a required tracker column, identified by its normalized header label
type Column string

const (
	ColName          Column = "name"
	ColArrival       Column = "arrival"
	ColDeparture     Column = "departure"
	ColAccommodation Column = "accommodation"
	ColNightsStayed  Column = "night stayed"
	ColItineraryType Column = "itinerary type"
)

// RequiredColumns lists every column a sheet must carry to be loaded, in output order.
var RequiredColumns = []Column{
	ColName,
	ColArrival,
	ColDeparture,
	ColAccommodation,
	ColNightsStayed,
	ColItineraryType,
}

// NormalizeHeader trims and lowercases a header cell
func NormalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// columnIndex maps each required column to its position in a sheet's header row
type columnIndex map[Column]int

// indexHeader locates the required columns in a header row. The first occurrence
// of a duplicated label wins. Missing columns are returned in RequiredColumns order.
func indexHeader(header []string) (columnIndex, []string) {
	seen := make(map[string]int, len(header))
	for i, cell := range header {
		key := NormalizeHeader(cell)
		if _, dup := seen[key]; !dup {
			seen[key] = i
		}
	}

	idx := make(columnIndex, len(RequiredColumns))
	var missing []string
	for _, col := range RequiredColumns {
		pos, ok := seen[string(col)]
		if !ok {
			missing = append(missing, string(col))
			continue
		}
		idx[col] = pos
	}
	return idx, missing
}

// cell returns the raw value of col in row, or "" for ragged rows
func (idx columnIndex) cell(row []string, col Column) string {
	pos, ok := idx[col]
	if !ok || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// isHeaderRow reports whether any required cell repeats its own column label,
// which is how stray header lines from pasted sheets show up in the data.
func (idx columnIndex) isHeaderRow(row []string) bool {
	for _, col := range RequiredColumns {
		if NormalizeHeader(idx.cell(row, col)) == string(col) {
			return true
		}
	}
	return false
}

// isBlank reports whether every required cell is empty
func (idx columnIndex) isBlank(row []string) bool {
	for _, col := range RequiredColumns {
		if strings.TrimSpace(idx.cell(row, col)) != "" {
			return false
		}
	}
	return true
}
