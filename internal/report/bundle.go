package report

import (
	"dapodiksync/internal/dataprocessing"
	"dapodiksync/internal/pivot"
)

// Section is one sheet of the workbook.
type Section struct {
	Name   string
	Tables []*Table
}

// Bundle is everything built from one upload. Both writers read it; nothing writes to it after Build.
type Bundle struct {
	Sections []Section
	Summary  Summary
}

// Tables returns every table in document order.
func (b *Bundle) Tables() []*Table {
	var out []*Table
	for _, s := range b.Sections {
		out = append(out, s.Tables...)
	}
	return out
}

// Table returns the table with id, or nil.
func (b *Bundle) Table(id string) *Table {
	for _, t := range b.Tables() {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// BuildOptions carry the configured key universe.
type BuildOptions struct {
	Regions    []string
	LevelOrder []string
}

type pivotKey struct {
	dataset   Dataset
	dimension pivot.Dimension
	split     bool
}

// Build aggregates and reshapes every definition. records is the full normalized upload and
// only widens the region universe; ds supplies the data.
func Build(ds dataprocessing.Datasets, records []dataprocessing.NormalizedRecord, opts BuildOptions) *Bundle {
	regions := pivot.KeyUniverse(pivot.DimensionRegion, opts.Regions, records, ds.AllLevels, ds.DeepDive)
	levels := pivot.KeyUniverse(pivot.DimensionLevel, opts.LevelOrder, ds.AllLevels)

	results := make(map[pivotKey]*pivot.Result)
	aggregate := func(def Definition) *pivot.Result {
		k := pivotKey{dataset: def.Dataset, dimension: def.Dimension, split: def.Split}
		if res, ok := results[k]; ok {
			return res
		}
		data := ds.AllLevels
		if def.Dataset == DatasetDeepDive {
			data = ds.DeepDive
		}
		keys := regions
		if def.Dimension == pivot.DimensionLevel {
			keys = levels
		}
		res := pivot.Aggregate(data, pivot.Options{
			Dimension:  def.Dimension,
			Split:      def.Split,
			Keys:       keys,
			LevelOrder: opts.LevelOrder,
		})
		results[k] = res
		return res
	}

	b := &Bundle{}
	for _, def := range Definitions() {
		table := Reshape(def, aggregate(def))
		b.addTable(def.Section, table)
	}

	b.Summary = Summarize(ds.AllLevels)
	return b
}

func (b *Bundle) addTable(section string, t *Table) {
	for i := range b.Sections {
		if b.Sections[i].Name == section {
			b.Sections[i].Tables = append(b.Sections[i].Tables, t)
			return
		}
	}
	b.Sections = append(b.Sections, Section{Name: section, Tables: []*Table{t}})
}
