// Package report turns pivot results into the flat, presentation-ready tables both writers consume.
package report

// TotalLabel is the label of the synthetic total row.
const TotalLabel = "TOTAL"

// ColumnKind drives number formatting in the writers.
type ColumnKind int

const (
	KindLabel ColumnKind = iota
	KindInteger
	KindFloat
)

// Column is one named column. The first column of a Table is always KindLabel.
type Column struct {
	Name string
	Kind ColumnKind
}

// Row holds the label and one value per non-label column.
type Row struct {
	Label  string
	Values []float64
	// Total marks the appended total row; it is always last.
	Total bool
}

// Table is a single-header report table. Tables in a Bundle are never modified after Build.
type Table struct {
	ID      string
	Title   string
	Columns []Column
	Rows    []Row
}

// NumericColumns returns every column after the label.
func (t *Table) NumericColumns() []Column {
	if len(t.Columns) == 0 {
		return nil
	}
	return t.Columns[1:]
}

// ColumnNames returns the display names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// TotalRow returns the total row, or nil.
func (t *Table) TotalRow() *Row {
	if n := len(t.Rows); n > 0 && t.Rows[n-1].Total {
		return &t.Rows[n-1]
	}
	return nil
}

// DataRows returns the rows without the total row.
func (t *Table) DataRows() []Row {
	if t.TotalRow() != nil {
		return t.Rows[:len(t.Rows)-1]
	}
	return t.Rows
}

// Value returns the cell of the named column in row i, or 0.
func (t *Table) Value(i int, column string) float64 {
	for c, col := range t.NumericColumns() {
		if col.Name == column {
			return t.Rows[i].Values[c]
		}
	}
	return 0
}

// Find returns the index of the row with label, or -1.
func (t *Table) Find(label string) int {
	for i, r := range t.Rows {
		if r.Label == label {
			return i
		}
	}
	return -1
}

// AppendTotal sums every numeric column over the data rows and appends a TOTAL row.
// It is a no-op if the table already has one.
func (t *Table) AppendTotal() {
	if t.TotalRow() != nil {
		return
	}
	sums := make([]float64, len(t.NumericColumns()))
	for _, r := range t.Rows {
		for i, v := range r.Values {
			sums[i] += v
		}
	}
	t.Rows = append(t.Rows, Row{Label: TotalLabel, Values: sums, Total: true})
}
