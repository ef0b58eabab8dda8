package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dapodiksync/internal/report"
)

func TestWriteTableCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, testTable("rekap_kecamatan", "Rekap")))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, utf8BOM), "BOM expected")

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"Kecamatan", "SP", "PD"},
		{"Alpha", "12", "1234"},
		{"Beta", "3", "56789"},
		{report.TotalLabel, "15", "58023"},
	}, records)
}

func TestWriteTableCSV_FloatColumn(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, rankingTable()))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "3", "2", "1", "66.67"}, records[1])
}

func TestWriteTableCSV_NoColumns(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTableCSV(&buf, &report.Table{ID: "broken"})
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestCSVWriter_WriteTable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "csv")
	w := NewCSVWriter(dir, nil)

	path, err := w.WriteTable(testTable("smp_gtk", "GTK"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "smp_gtk.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Alpha,12,1234")
}
