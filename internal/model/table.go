package model

// Table is a response table: ordered column names plus one row of cells per
// respondent. An empty cell is an absent value.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of the first column with the given name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether a column with the given name exists.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Cell returns the value at row/col, or "" when either is out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// Value returns the cell of the named column in the given row.
// ok is false when the column does not exist.
func (t *Table) Value(row int, name string) (string, bool) {
	col := t.Index(name)
	if col < 0 {
		return "", false
	}
	return t.Cell(row, col), true
}

// NumRows returns the number of respondents.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// Select returns a new table holding only the given columns, in that order.
func (t *Table) Select(cols []int) *Table {
	out := &Table{Columns: make([]string, len(cols)), Rows: make([][]string, len(t.Rows))}
	for i, c := range cols {
		out.Columns[i] = t.Columns[c]
	}
	for r := range t.Rows {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = t.Cell(r, c)
		}
		out.Rows[r] = row
	}
	return out
}
