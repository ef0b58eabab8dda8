package report

import (
	"dapodiksync/internal/pivot"
)

// Dataset selects which normalized view a report is built from.
type Dataset int

const (
	DatasetAllLevels Dataset = iota
	DatasetDeepDive
)

// Section (sheet) names.
const (
	SectionRekap      = "Rekap_Master"
	SectionEksplorasi = "Eksplorasi_SMP"
)

// ColumnSpec maps a flattened pivot column onto its display name.
type ColumnSpec struct {
	Source  string
	Display string
}

// Definition describes one report table: which pivot to run and which columns to keep, in order.
type Definition struct {
	ID        string
	Title     string
	Section   string
	Dataset   Dataset
	Dimension pivot.Dimension
	Split     bool
	// Label is the display name of the grouping column.
	Label   string
	Columns []ColumnSpec
}

func col(m pivot.Measure, s pivot.Split, display string) ColumnSpec {
	return ColumnSpec{Source: pivot.FlatName(m, s), Display: display}
}

// negeriSwasta expands measures to "X Negeri, X Swasta, Jml X" triples.
func negeriSwasta(measures ...pivot.Measure) []ColumnSpec {
	var out []ColumnSpec
	for _, m := range measures {
		name := string(m)
		out = append(out,
			col(m, pivot.SplitPublic, name+" Negeri"),
			col(m, pivot.SplitPrivate, name+" Swasta"),
			col(m, pivot.SplitTotal, "Jml "+name),
		)
	}
	return out
}

var unsplitColumns = []ColumnSpec{
	col(pivot.MeasureSP, pivot.SplitNone, "SP"),
	col(pivot.MeasureSynced, pivot.SplitNone, "Sudah SYNC"),
	col(pivot.MeasureNotSynced, pivot.SplitNone, "Belum SYNC"),
	col(pivot.MeasurePD, pivot.SplitNone, "PD"),
	col(pivot.MeasureRombel, pivot.SplitNone, "Rombel"),
	col(pivot.MeasureGuru, pivot.SplitNone, "Guru"),
	col(pivot.MeasureTendik, pivot.SplitNone, "Tendik"),
	col(pivot.MeasureGTK, pivot.SplitNone, "GTK"),
}

var splitColumns = negeriSwasta(
	pivot.MeasureSP, pivot.MeasurePD, pivot.MeasureRombel,
	pivot.MeasureGuru, pivot.MeasureTendik, pivot.MeasureGTK,
)

// Definitions returns the reports in bundle order. The slice is fresh on every call.
func Definitions() []Definition {
	return []Definition{
		{
			ID:        "rekap_kecamatan",
			Title:     "Rekapitulasi Progres SYNC DAPODIK per Kecamatan",
			Section:   SectionRekap,
			Dataset:   DatasetAllLevels,
			Dimension: pivot.DimensionRegion,
			Label:     "Kecamatan",
			Columns:   unsplitColumns,
		},
		{
			ID:        "rekap_kecamatan_ns",
			Title:     "Rekapitulasi Progres SYNC DAPODIK Negeri/Swasta per Kecamatan",
			Section:   SectionRekap,
			Dataset:   DatasetAllLevels,
			Dimension: pivot.DimensionRegion,
			Split:     true,
			Label:     "Kecamatan",
			Columns:   splitColumns,
		},
		{
			ID:        "rekap_jenjang_ns",
			Title:     "Rekapitulasi Progres SYNC DAPODIK Negeri/Swasta per Jenjang",
			Section:   SectionRekap,
			Dataset:   DatasetAllLevels,
			Dimension: pivot.DimensionLevel,
			Split:     true,
			Label:     "BP",
			Columns:   splitColumns,
		},
		{
			ID:        "smp_kecamatan",
			Title:     "Eksplorasi Progres DAPODIK SMP per Kecamatan",
			Section:   SectionEksplorasi,
			Dataset:   DatasetDeepDive,
			Dimension: pivot.DimensionRegion,
			Label:     "Kecamatan",
			Columns:   unsplitColumns,
		},
		{
			ID:        "smp_sp_sync",
			Title:     "Eksplorasi Progres SP dan SYNC SMP per Kecamatan",
			Section:   SectionEksplorasi,
			Dataset:   DatasetDeepDive,
			Dimension: pivot.DimensionRegion,
			Split:     true,
			Label:     "Kecamatan",
			Columns: []ColumnSpec{
				col(pivot.MeasureSP, pivot.SplitTotal, "Jml SP"),
				col(pivot.MeasureSP, pivot.SplitPublic, "SP Negeri"),
				col(pivot.MeasureSP, pivot.SplitPrivate, "SP Swasta"),
				col(pivot.MeasureSynced, pivot.SplitTotal, "Sudah SYNC"),
				col(pivot.MeasureNotSynced, pivot.SplitTotal, "Belum SYNC"),
			},
		},
		{
			ID:        "smp_pd_rombel",
			Title:     "Eksplorasi Progres PD dan Rombel SMP per Kecamatan",
			Section:   SectionEksplorasi,
			Dataset:   DatasetDeepDive,
			Dimension: pivot.DimensionRegion,
			Split:     true,
			Label:     "Kecamatan",
			Columns:   negeriSwasta(pivot.MeasurePD, pivot.MeasureRombel),
		},
		{
			ID:        "smp_gtk",
			Title:     "Eksplorasi Progres GTK SMP per Kecamatan",
			Section:   SectionEksplorasi,
			Dataset:   DatasetDeepDive,
			Dimension: pivot.DimensionRegion,
			Split:     true,
			Label:     "Kecamatan",
			Columns: append(
				[]ColumnSpec{col(pivot.MeasureGTK, pivot.SplitTotal, "Jml GTK")},
				negeriSwasta(pivot.MeasureGuru, pivot.MeasureTendik)...,
			),
		},
		{
			ID:        "smp_all",
			Title:     "Eksplorasi Progres ALL DAPODIK SMP per Kecamatan",
			Section:   SectionEksplorasi,
			Dataset:   DatasetDeepDive,
			Dimension: pivot.DimensionRegion,
			Split:     true,
			Label:     "Kecamatan",
			Columns: []ColumnSpec{
				col(pivot.MeasureSP, pivot.SplitPublic, "SP Negeri"),
				col(pivot.MeasureSP, pivot.SplitPrivate, "SP Swasta"),
				col(pivot.MeasurePD, pivot.SplitPublic, "PD Negeri"),
				col(pivot.MeasurePD, pivot.SplitPrivate, "PD Swasta"),
				col(pivot.MeasureRombel, pivot.SplitPublic, "Rombel Negeri"),
				col(pivot.MeasureRombel, pivot.SplitPrivate, "Rombel Swasta"),
				col(pivot.MeasureGuru, pivot.SplitPublic, "Guru Negeri"),
				col(pivot.MeasureGuru, pivot.SplitPrivate, "Guru Swasta"),
				col(pivot.MeasureTendik, pivot.SplitPublic, "Tendik Negeri"),
				col(pivot.MeasureTendik, pivot.SplitPrivate, "Tendik Swasta"),
				col(pivot.MeasureSP, pivot.SplitTotal, "Jml SP"),
				col(pivot.MeasurePD, pivot.SplitTotal, "Jml PD"),
				col(pivot.MeasureRombel, pivot.SplitTotal, "Jml Rombel"),
				col(pivot.MeasureGuru, pivot.SplitTotal, "Jml Guru"),
				col(pivot.MeasureTendik, pivot.SplitTotal, "Jml Tendik"),
				col(pivot.MeasureGTK, pivot.SplitTotal, "Jml GTK"),
			},
		},
	}
}

// Lookup returns the definition with id.
func Lookup(id string) (Definition, bool) {
	for _, d := range Definitions() {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}
