package report

import (
	"dapodiksync/internal/pivot"
)

// Reshape flattens res into the definition's columns and appends the TOTAL row.
// Source names the result does not carry are 0. Rows keep the result's key order.
func Reshape(def Definition, res *pivot.Result) *Table {
	t := &Table{
		ID:      def.ID,
		Title:   def.Title,
		Columns: make([]Column, 0, len(def.Columns)+1),
		Rows:    make([]Row, 0, res.Len()+1),
	}
	t.Columns = append(t.Columns, Column{Name: def.Label, Kind: KindLabel})
	for _, c := range def.Columns {
		t.Columns = append(t.Columns, Column{Name: c.Display, Kind: KindInteger})
	}

	index := flatIndex(res)
	for _, key := range res.Keys {
		values := make([]float64, len(def.Columns))
		for i, c := range def.Columns {
			if cell, ok := index[c.Source]; ok {
				values[i] = float64(res.Value(key, cell.Measure, cell.Split))
			}
		}
		t.Rows = append(t.Rows, Row{Label: key, Values: values})
	}

	t.AppendTotal()
	return t
}

// flatIndex maps every flattened column name of res back to its measure and split.
func flatIndex(res *pivot.Result) map[string]pivot.CellKey {
	index := make(map[string]pivot.CellKey, len(pivot.Measures)*3)
	for _, s := range res.Splits() {
		for _, m := range pivot.Measures {
			index[pivot.FlatName(m, s)] = pivot.CellKey{Measure: m, Split: s}
		}
	}
	return index
}
