// Package pivot groups normalized records by region or level, optionally cross-tabulated by
// ownership, with a Total margin.
//
// Results are a tagged map from (key, measure, split) to a value rather than a nested table,
// so flattening into report columns is a plain lookup.
package pivot

import (
	"sort"

	"dapodiksync/internal/dataprocessing"
)

// Dimension is the primary grouping key.
type Dimension int

const (
	DimensionRegion Dimension = iota
	DimensionLevel
)

func (d Dimension) String() string {
	if d == DimensionLevel {
		return "level"
	}
	return "region"
}

// Measure names one aggregated quantity.
type Measure string

const (
	// MeasureSP counts distinct school ids.
	MeasureSP        Measure = "SP"
	MeasureSynced    Measure = "Sudah_SYNC"
	MeasureNotSynced Measure = "Belum_SYNC"
	MeasurePD        Measure = "PD"
	MeasureRombel    Measure = "Rombel"
	MeasureGuru      Measure = "Guru"
	MeasureTendik    Measure = "Tendik"
	MeasureGTK       Measure = "GTK"
)

// Measures lists every measure in canonical order.
var Measures = []Measure{
	MeasureSP, MeasureSynced, MeasureNotSynced,
	MeasurePD, MeasureRombel, MeasureGuru, MeasureTendik, MeasureGTK,
}

// Split is the ownership sub-column of a cross-tabulated result.
type Split string

const (
	SplitNone    Split = ""
	SplitPublic  Split = Split(dataprocessing.OwnershipPublic)
	SplitPrivate Split = Split(dataprocessing.OwnershipPrivate)
	// SplitTotal is the margin over every ownership value, unknown included.
	SplitTotal Split = "Total"
)

// FlatName is the single-header column name of (m, s): "SP_Total", or "SP" when unsplit.
func FlatName(m Measure, s Split) string {
	if s == SplitNone {
		return string(m)
	}
	return string(m) + "_" + string(s)
}

// CellKey addresses one value of a Result.
type CellKey struct {
	Key     string
	Measure Measure
	Split   Split
}

type marginKey struct {
	Measure Measure
	Split   Split
}

// Result is an aggregation over one dimension. It is not modified after Aggregate returns.
type Result struct {
	Dimension Dimension
	// Keys are sorted in the dimension's order; every key has a value for every measure and split.
	Keys  []string
	Split bool
	// Dropped counts records with an empty key.
	Dropped int

	cells map[CellKey]int64
	grand map[marginKey]int64
}

// Splits returns the splits present in r.
func (r *Result) Splits() []Split {
	if r.Split {
		return []Split{SplitPublic, SplitPrivate, SplitTotal}
	}
	return []Split{SplitNone}
}

// Value returns the cell for (key, m, s), 0 when absent.
func (r *Result) Value(key string, m Measure, s Split) int64 {
	return r.cells[CellKey{Key: key, Measure: m, Split: s}]
}

// GrandTotal returns the value of m over every key. Unique counts are recomputed, not summed.
func (r *Result) GrandTotal(m Measure, s Split) int64 {
	return r.grand[marginKey{Measure: m, Split: s}]
}

// Len returns the number of keys.
func (r *Result) Len() int {
	return len(r.Keys)
}

// Options select the dimension, the ownership split and the key universe.
type Options struct {
	Dimension Dimension
	Split     bool
	// Keys are always present in the result, zero-filled when no record has them.
	Keys []string
	// LevelOrder fixes the order of level keys; levels not in it sort alphabetically after.
	LevelOrder []string
}

type accumulator struct {
	ids  map[string]struct{}
	sums map[Measure]int64
}

func newAccumulator() *accumulator {
	return &accumulator{ids: make(map[string]struct{}), sums: make(map[Measure]int64, len(Measures))}
}

func (a *accumulator) add(rec dataprocessing.NormalizedRecord) {
	if rec.SchoolID != "" {
		a.ids[rec.SchoolID] = struct{}{}
	}
	a.sums[MeasureSynced] += rec.IsSynced
	a.sums[MeasureNotSynced] += rec.IsNotSynced
	a.sums[MeasurePD] += rec.Students
	a.sums[MeasureRombel] += rec.Groups
	a.sums[MeasureGuru] += rec.Teachers
	a.sums[MeasureTendik] += rec.Support
	a.sums[MeasureGTK] += rec.StaffTotal
}

func (a *accumulator) value(m Measure) int64 {
	if a == nil {
		return 0
	}
	if m == MeasureSP {
		return int64(len(a.ids))
	}
	return a.sums[m]
}

type groupKey struct {
	key   string
	split Split
}

// Aggregate computes every measure for every key and split in one pass over records.
func Aggregate(records []dataprocessing.NormalizedRecord, opts Options) *Result {
	res := &Result{
		Dimension: opts.Dimension,
		Split:     opts.Split,
		cells:     make(map[CellKey]int64),
		grand:     make(map[marginKey]int64),
	}

	groups := make(map[groupKey]*accumulator)
	margins := make(map[Split]*accumulator)
	seen := make(map[string]bool, len(opts.Keys))
	for _, k := range opts.Keys {
		seen[k] = true
	}

	addTo := func(key string, split Split, rec dataprocessing.NormalizedRecord) {
		gk := groupKey{key: key, split: split}
		if groups[gk] == nil {
			groups[gk] = newAccumulator()
		}
		groups[gk].add(rec)
		if margins[split] == nil {
			margins[split] = newAccumulator()
		}
		margins[split].add(rec)
	}

	for _, rec := range records {
		key := keyOf(rec, opts.Dimension)
		if key == "" {
			res.Dropped++
			continue
		}
		seen[key] = true

		if !opts.Split {
			addTo(key, SplitNone, rec)
			continue
		}
		addTo(key, SplitTotal, rec)
		switch rec.Ownership {
		case dataprocessing.OwnershipPublic:
			addTo(key, SplitPublic, rec)
		case dataprocessing.OwnershipPrivate:
			addTo(key, SplitPrivate, rec)
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		if k != "" {
			keys = append(keys, k)
		}
	}
	res.Keys = SortKeys(opts.Dimension, keys, opts.LevelOrder)

	for _, key := range res.Keys {
		for _, split := range res.Splits() {
			acc := groups[groupKey{key: key, split: split}]
			for _, m := range Measures {
				res.cells[CellKey{Key: key, Measure: m, Split: split}] = acc.value(m)
			}
		}
	}
	for _, split := range res.Splits() {
		for _, m := range Measures {
			res.grand[marginKey{Measure: m, Split: split}] = margins[split].value(m)
		}
	}

	return res
}

func keyOf(rec dataprocessing.NormalizedRecord, d Dimension) string {
	if d == DimensionLevel {
		return rec.Level
	}
	return rec.Region
}

// SortKeys orders region keys alphabetically and level keys by levelOrder, unknown levels last
// in alphabetical order. keys is sorted in place and returned.
func SortKeys(d Dimension, keys []string, levelOrder []string) []string {
	if d != DimensionLevel {
		sort.Strings(keys)
		return keys
	}

	rank := make(map[string]int, len(levelOrder))
	for i, level := range levelOrder {
		rank[level] = i
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, iKnown := rank[keys[i]]
		rj, jKnown := rank[keys[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// KeyUniverse returns configured plus every key observed in any of the datasets, unsorted and deduplicated.
func KeyUniverse(d Dimension, configured []string, datasets ...[]dataprocessing.NormalizedRecord) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(k string) {
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, k := range configured {
		add(k)
	}
	for _, ds := range datasets {
		for _, rec := range ds {
			add(keyOf(rec, d))
		}
	}
	return out
}
