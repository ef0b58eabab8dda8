package pivot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dapodiksync/internal/dataprocessing"
)

var testLevelOrder = []string{"SPS", "PKBM", "TPA", "KB", "TK", "SD", "SMP", "SKB"}

func rec(id, region, level string, own dataprocessing.Ownership, synced bool) dataprocessing.NormalizedRecord {
	r := dataprocessing.NormalizedRecord{SchoolID: id, Region: region, Level: level, Ownership: own}
	if synced {
		r.SyncStatus = dataprocessing.SyncStatusSynced
		r.IsSynced = 1
	} else {
		r.SyncStatus = dataprocessing.SyncStatusNotSynced
		r.IsNotSynced = 1
	}
	return r
}

func withCounts(r dataprocessing.NormalizedRecord, pd, rombel, guru, tendik int64) dataprocessing.NormalizedRecord {
	r.Students, r.Groups, r.Teachers, r.Support = pd, rombel, guru, tendik
	r.StaffTotal = guru + tendik
	return r
}

func TestAggregate_SyncCountsPerRegion(t *testing.T) {
	records := []dataprocessing.NormalizedRecord{
		rec("1", "A", "SD", dataprocessing.OwnershipPublic, false),
		rec("2", "A", "SD", dataprocessing.OwnershipPublic, true),
		rec("3", "B", "SD", dataprocessing.OwnershipPublic, true),
	}

	res := Aggregate(records, Options{Dimension: DimensionRegion})

	assert.Equal(t, []string{"A", "B"}, res.Keys)
	assert.EqualValues(t, 1, res.Value("A", MeasureSynced, SplitNone))
	assert.EqualValues(t, 1, res.Value("A", MeasureNotSynced, SplitNone))
	assert.EqualValues(t, 1, res.Value("B", MeasureSynced, SplitNone))
	assert.EqualValues(t, 0, res.Value("B", MeasureNotSynced, SplitNone))
	assert.EqualValues(t, 2, res.GrandTotal(MeasureSynced, SplitNone))
	assert.EqualValues(t, 1, res.GrandTotal(MeasureNotSynced, SplitNone))
}

func TestAggregate_UniqueMarginAcrossOwnership(t *testing.T) {
	records := []dataprocessing.NormalizedRecord{
		rec("42", "A", "SD", dataprocessing.OwnershipPublic, true),
		rec("42", "A", "SD", dataprocessing.OwnershipPrivate, true),
	}

	res := Aggregate(records, Options{Dimension: DimensionRegion, Split: true})

	public := res.Value("A", MeasureSP, SplitPublic)
	private := res.Value("A", MeasureSP, SplitPrivate)
	total := res.Value("A", MeasureSP, SplitTotal)
	assert.EqualValues(t, 1, public)
	assert.EqualValues(t, 1, private)
	assert.EqualValues(t, 1, total, "margin recomputes uniqueness")
	assert.LessOrEqual(t, total, public+private)

	assert.EqualValues(t, 2, res.Value("A", MeasureSynced, SplitTotal), "counts are rows, not schools")
	assert.EqualValues(t, 1, res.GrandTotal(MeasureSP, SplitTotal))
}

func TestAggregate_DuplicateIDsDedupedWithinCell(t *testing.T) {
	records := []dataprocessing.NormalizedRecord{
		withCounts(rec("7", "A", "SD", dataprocessing.OwnershipPublic, true), 10, 1, 2, 1),
		withCounts(rec("7", "A", "SD", dataprocessing.OwnershipPublic, false), 5, 1, 1, 0),
		withCounts(rec("", "A", "SD", dataprocessing.OwnershipPublic, true), 3, 0, 0, 0),
	}

	res := Aggregate(records, Options{Dimension: DimensionRegion})

	assert.EqualValues(t, 1, res.Value("A", MeasureSP, SplitNone), "empty id is never counted")
	assert.EqualValues(t, 18, res.Value("A", MeasurePD, SplitNone), "sums include every row")
	assert.EqualValues(t, 4, res.Value("A", MeasureGTK, SplitNone))
	assert.EqualValues(t, 2, res.Value("A", MeasureSynced, SplitNone))
}

func TestAggregate_FillsMissingCombinations(t *testing.T) {
	records := []dataprocessing.NormalizedRecord{
		rec("1", "A", "SD", dataprocessing.OwnershipPublic, true),
	}

	res := Aggregate(records, Options{Dimension: DimensionRegion, Split: true, Keys: []string{"C", "A"}})

	assert.Equal(t, []string{"A", "C"}, res.Keys)
	for _, split := range res.Splits() {
		for _, m := range Measures {
			assert.EqualValues(t, 0, res.Value("C", m, split), "%s/%s", m, split)
		}
	}
	assert.EqualValues(t, 0, res.Value("A", MeasureSP, SplitPrivate))
	assert.EqualValues(t, 1, res.Value("A", MeasureSP, SplitPublic))
}

func TestAggregate_UnknownOwnershipCountsTowardTotalOnly(t *testing.T) {
	records := []dataprocessing.NormalizedRecord{
		withCounts(rec("1", "A", "SD", dataprocessing.OwnershipUnknown, true), 9, 0, 0, 0),
	}

	res := Aggregate(records, Options{Dimension: DimensionRegion, Split: true})

	assert.EqualValues(t, 0, res.Value("A", MeasurePD, SplitPublic))
	assert.EqualValues(t, 0, res.Value("A", MeasurePD, SplitPrivate))
	assert.EqualValues(t, 9, res.Value("A", MeasurePD, SplitTotal))
}

func TestAggregate_LevelOrder(t *testing.T) {
	records := []dataprocessing.NormalizedRecord{
		rec("1", "A", "SMP", dataprocessing.OwnershipPublic, true),
		rec("2", "A", "ZZ", dataprocessing.OwnershipPublic, true),
		rec("3", "A", "SD", dataprocessing.OwnershipPublic, true),
		rec("4", "A", "AA", dataprocessing.OwnershipPublic, true),
		rec("5", "A", "KB", dataprocessing.OwnershipPublic, true),
	}

	res := Aggregate(records, Options{Dimension: DimensionLevel, Split: true, LevelOrder: testLevelOrder})

	assert.Equal(t, []string{"KB", "SD", "SMP", "AA", "ZZ"}, res.Keys)
}

func TestAggregate_EmptyKeyDropped(t *testing.T) {
	res := Aggregate([]dataprocessing.NormalizedRecord{
		rec("1", "", "SD", dataprocessing.OwnershipPublic, true),
	}, Options{Dimension: DimensionRegion})

	assert.Empty(t, res.Keys)
	assert.Equal(t, 1, res.Dropped)
	assert.EqualValues(t, 0, res.GrandTotal(MeasureSP, SplitNone))
}

func TestFlatName(t *testing.T) {
	assert.Equal(t, "SP", FlatName(MeasureSP, SplitNone))
	assert.Equal(t, "SP_Total", FlatName(MeasureSP, SplitTotal))
	assert.Equal(t, "Sudah_SYNC_Negeri", FlatName(MeasureSynced, SplitPublic))
}

func TestKeyUniverse(t *testing.T) {
	all := []dataprocessing.NormalizedRecord{rec("1", "B", "SD", "", true), rec("2", "A", "SMA", "", true)}
	deep := []dataprocessing.NormalizedRecord{rec("3", "C", "SMP", "", true)}

	got := KeyUniverse(DimensionRegion, []string{"A", "D"}, all, deep)
	require.Len(t, got, 4)
	assert.ElementsMatch(t, []string{"A", "B", "C", "D"}, got)

	levels := SortKeys(DimensionLevel, KeyUniverse(DimensionLevel, testLevelOrder, all), testLevelOrder)
	assert.Equal(t, append(append([]string(nil), testLevelOrder...), "SMA"), levels)
}
