package spreadsheet

import "github.com/erp/backoffice/internal/domain/marketplace"

// Row is one data row keyed by header text
type Row struct {
	// LineNumber is the 1-based line of the row in the sheet
	LineNumber int
	Cells      map[string]marketplace.Cell
}

// Cell returns the cell under header, or a blank cell
func (r *Row) Cell(header string) marketplace.Cell {
	return r.Cells[header]
}

// Get returns the text of the cell under header
func (r *Row) Get(header string) string {
	return r.Cells[header].Value
}

// IsEmpty returns true if the row has no non-blank values
func (r *Row) IsEmpty() bool {
	for _, c := range r.Cells {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// Sheet is the content of the first worksheet
type Sheet struct {
	Headers []string
	Rows    []*Row
}

// records exposes rows through the marketplace.Row interface
func (s *Sheet) records() []marketplace.Row {
	out := make([]marketplace.Row, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r
	}
	return out
}
