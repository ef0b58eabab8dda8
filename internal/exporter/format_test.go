package exporter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"dapodiksync/internal/report"
)

func TestFormatter_Number(t *testing.T) {
	f := NewFormatter()

	tests := []struct {
		name string
		kind report.ColumnKind
		v    float64
		want string
	}{
		{"small integer", report.KindInteger, 12, "12"},
		{"thousands", report.KindInteger, 1234, "1,234"},
		{"millions", report.KindInteger, 1234567, "1,234,567"},
		{"integer rounds", report.KindInteger, 1234.6, "1,235"},
		{"zero", report.KindInteger, 0, "0"},
		{"float", report.KindFloat, 1234.5, "1,234.50"},
		{"float rounding", report.KindFloat, 66.666, "66.67"},
		{"nan", report.KindInteger, math.NaN(), ""},
		{"nan float", report.KindFloat, math.NaN(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Number(tt.kind, tt.v))
		})
	}
}

func TestFormatter_Cell(t *testing.T) {
	f := NewFormatter()

	pct := report.Column{Name: report.RankingColumn, Kind: report.KindFloat}
	assert.Equal(t, "66.67%", f.Cell(pct, 66.67))
	assert.Equal(t, "1,234", f.Cell(report.Column{Name: "PD", Kind: report.KindInteger}, 1234))
	assert.Equal(t, "", f.Percent(math.NaN()))
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "1234", Plain(report.KindInteger, 1234))
	assert.Equal(t, "66.67", Plain(report.KindFloat, 66.666))
	assert.Equal(t, "", Plain(report.KindFloat, math.NaN()))
}

func TestIsPercentColumn(t *testing.T) {
	tests := map[string]bool{
		"Persentase SYNC": true,
		"% Sync":          true,
		"PERSEN":          true,
		"Jml SP":          false,
		"Kecamatan":       false,
	}
	for name, want := range tests {
		assert.Equal(t, want, IsPercentColumn(name), name)
	}
}
