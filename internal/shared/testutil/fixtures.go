package testutil

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// MasterHeader is the default master sheet header.
var MasterHeader = []string{"NPSN", "Kecamatan", "BP", "Status", "PD", "Rombel", "Guru", "Tendik", "Last Sync"}

// School is one master row. Counts are written as numbers.
type School struct {
	NPSN      string
	Kecamatan string
	BP        string
	Status    string
	PD        int
	Rombel    int
	Guru      int
	Tendik    int
	LastSync  string
}

// Cells returns the row in MasterHeader order.
func (s School) Cells() []any {
	return []any{s.NPSN, s.Kecamatan, s.BP, s.Status, s.PD, s.Rombel, s.Guru, s.Tendik, s.LastSync}
}

// Strings returns the row as text, for CSV fixtures and Table literals.
func (s School) Strings() []string {
	return []string{
		s.NPSN, s.Kecamatan, s.BP, s.Status,
		strconv.Itoa(s.PD), strconv.Itoa(s.Rombel), strconv.Itoa(s.Guru), strconv.Itoa(s.Tendik),
		s.LastSync,
	}
}

// MasterWorkbook builds an xlsx with schools on a sheet named sheet under MasterHeader.
func MasterWorkbook(t testing.TB, sheet string, schools ...School) []byte {
	t.Helper()
	rows := make([][]any, 0, len(schools))
	for _, s := range schools {
		rows = append(rows, s.Cells())
	}
	header := make([]any, len(MasterHeader))
	for i, h := range MasterHeader {
		header[i] = h
	}
	return Workbook(t, sheet, header, rows...)
}

// Workbook builds an xlsx whose only sheet holds header followed by rows.
func Workbook(t testing.TB, sheet string, header []any, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
