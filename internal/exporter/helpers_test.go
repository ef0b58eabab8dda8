package exporter

import (
	"dapodiksync/internal/report"
)

func intColumns(names ...string) []report.Column {
	cols := []report.Column{{Name: "Kecamatan", Kind: report.KindLabel}}
	for _, n := range names {
		cols = append(cols, report.Column{Name: n, Kind: report.KindInteger})
	}
	return cols
}

func testTable(id, title string) *report.Table {
	t := &report.Table{
		ID:      id,
		Title:   title,
		Columns: intColumns("SP", "PD"),
		Rows: []report.Row{
			{Label: "Alpha", Values: []float64{12, 1234}},
			{Label: "Beta", Values: []float64{3, 56789}},
		},
	}
	t.AppendTotal()
	return t
}

func rankingTable() *report.Table {
	return &report.Table{
		ID:    "ranking_kecamatan",
		Title: "Peringkat",
		Columns: append(intColumns("SP", "Sudah SYNC", "Belum SYNC"),
			report.Column{Name: report.RankingColumn, Kind: report.KindFloat}),
		Rows: []report.Row{
			{Label: "Alpha", Values: []float64{3, 2, 1, 66.67}},
		},
	}
}

func testBundle() *report.Bundle {
	return &report.Bundle{
		Sections: []report.Section{
			{Name: report.SectionRekap, Tables: []*report.Table{
				testTable("rekap_kecamatan", "Rekapitulasi Progres SYNC DAPODIK per Kecamatan"),
				testTable("rekap_kecamatan_ns", "Rekapitulasi Negeri/Swasta"),
			}},
			{Name: report.SectionEksplorasi, Tables: []*report.Table{
				testTable("smp_kecamatan", "Eksplorasi Progres DAPODIK SMP per Kecamatan"),
			}},
		},
	}
}
