package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dapodiksync/internal/config"
	"dapodiksync/internal/shared/testutil"
)

func newTestMergeService(t *testing.T) *MergeService {
	t.Helper()
	logger, _ := testutil.NewTestLogger()
	svc, err := NewMergeService(config.Default().Report, nil, logger)
	require.NoError(t, err)
	return svc
}

func TestMergeService_Merge(t *testing.T) {
	svc := newTestMergeService(t)

	a := Upload{Name: "a.xlsx", Data: testutil.Workbook(t, "Sheet1", []any{"NPSN", "Nama"},
		[]any{"1", "SD Satu"}, []any{"2", "SD Dua"})}
	b := Upload{Name: "b.xlsx", Data: testutil.Workbook(t, "Sheet1", []any{"Nama", "Alamat"},
		[]any{"SMP Tiga", "Jl. Mawar"})}

	result, err := svc.Merge(context.Background(), []Upload{a, b})
	require.NoError(t, err)

	assert.Equal(t, MergedName, result.Name)
	assert.Equal(t, []string{"NPSN", "Nama", SourceFileColumn, "Alamat"}, result.Header)
	assert.Equal(t, 3, result.Rows)
	assert.Empty(t, result.Skipped)

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"NPSN", "Nama", SourceFileColumn, "Alamat"},
		{"1", "SD Satu", "a.xlsx"},
		{"2", "SD Dua", "a.xlsx"},
		{"", "SMP Tiga", "b.xlsx", "Jl. Mawar"},
	}, rows)
}

func TestMergeService_MergeColumnsAddedByLaterUploads(t *testing.T) {
	svc := newTestMergeService(t)

	uploads := []Upload{
		{Name: "a.xlsx", Data: testutil.Workbook(t, "Sheet1", []any{"NPSN"}, []any{"1"})},
		{Name: "b.xlsx", Data: testutil.Workbook(t, "Sheet1", []any{"Nama", "NPSN"}, []any{"SD Dua", "2"})},
		{Name: "c.xlsx", Data: testutil.Workbook(t, "Sheet1", []any{"Alamat", "Kecamatan", "NPSN"},
			[]any{"Jl. Melati", "Alpha", "3"}, []any{"Jl. Kenanga", "Beta", "4"})},
	}
	result, err := svc.Merge(context.Background(), uploads)
	require.NoError(t, err)

	assert.Equal(t, []string{"NPSN", SourceFileColumn, "Nama", "Alamat", "Kecamatan"}, result.Header)
	assert.Equal(t, 4, result.Rows)

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"NPSN", SourceFileColumn, "Nama", "Alamat", "Kecamatan"},
		{"1", "a.xlsx"},
		{"2", "b.xlsx", "SD Dua"},
		{"3", "c.xlsx", "", "Jl. Melati", "Alpha"},
		{"4", "c.xlsx", "", "Jl. Kenanga", "Beta"},
	}, rows)
}

func TestMergeService_SkipsUnreadable(t *testing.T) {
	svc := newTestMergeService(t)

	good := Upload{Name: "good.xlsx", Data: testutil.Workbook(t, "Sheet1", []any{"NPSN"}, []any{"1"})}
	result, err := svc.Merge(context.Background(), []Upload{
		{Name: "broken.xlsx", Data: []byte("not a zip")},
		good,
		{Name: "wrong.xlsx", Data: testutil.Workbook(t, "Data", []any{"NPSN"}, []any{"2"})},
	})
	require.NoError(t, err)

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "broken.xlsx", result.Skipped[0].Name)
	assert.Equal(t, "wrong.xlsx", result.Skipped[1].Name)
	assert.Equal(t, 1, result.Rows)
}

func TestMergeService_AllFail(t *testing.T) {
	svc := newTestMergeService(t)

	_, err := svc.Merge(context.Background(), []Upload{{Name: "x.xlsx", Data: []byte("nope")}})
	assert.ErrorIs(t, err, ErrNoUsableFiles)

	_, err = svc.Merge(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoUploads)
}
