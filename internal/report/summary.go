package report

import (
	"math"
	"sort"

	"dapodiksync/internal/dataprocessing"
)

// RankingColumn is the percentage column of the ranking table.
const RankingColumn = "Persentase SYNC"

// KPI are the headline numbers of the dashboard.
type KPI struct {
	TotalSchools     int64   `json:"total_schools"`
	SyncedSchools    int64   `json:"synced_schools"`
	NotSyncedSchools int64   `json:"not_synced_schools"`
	SyncPercent      float64 `json:"sync_percent"`
}

// ChartPoint is one region in the sync bar chart. Counts are distinct schools.
type ChartPoint struct {
	Region    string `json:"region"`
	Synced    int64  `json:"synced"`
	NotSynced int64  `json:"not_synced"`
}

// Summary is the dashboard view of the all-levels dataset.
type Summary struct {
	KPI     KPI          `json:"kpi"`
	Chart   []ChartPoint `json:"chart"`
	Ranking *Table       `json:"-"`
}

type regionSets struct {
	all       map[string]struct{}
	synced    map[string]struct{}
	notSynced map[string]struct{}
}

func newRegionSets() *regionSets {
	return &regionSets{
		all:       make(map[string]struct{}),
		synced:    make(map[string]struct{}),
		notSynced: make(map[string]struct{}),
	}
}

func (s *regionSets) add(rec dataprocessing.NormalizedRecord) {
	if rec.SchoolID == "" {
		return
	}
	s.all[rec.SchoolID] = struct{}{}
	if rec.IsSynced == 1 {
		s.synced[rec.SchoolID] = struct{}{}
	} else {
		s.notSynced[rec.SchoolID] = struct{}{}
	}
}

// Summarize computes KPI, chart and ranking from the all-levels dataset.
func Summarize(records []dataprocessing.NormalizedRecord) Summary {
	overall := newRegionSets()
	byRegion := make(map[string]*regionSets)
	for _, rec := range records {
		overall.add(rec)
		if rec.Region == "" {
			continue
		}
		if byRegion[rec.Region] == nil {
			byRegion[rec.Region] = newRegionSets()
		}
		byRegion[rec.Region].add(rec)
	}

	total := int64(len(overall.all))
	synced := int64(len(overall.synced))
	kpi := KPI{
		TotalSchools:     total,
		SyncedSchools:    synced,
		NotSyncedSchools: total - synced,
		SyncPercent:      percent(synced, total),
	}

	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	chart := make([]ChartPoint, 0, len(regions))
	ranking := &Table{
		ID:    "ranking_kecamatan",
		Title: "Ranking Progres SYNC per Kecamatan",
		Columns: []Column{
			{Name: "Kecamatan", Kind: KindLabel},
			{Name: "SP", Kind: KindInteger},
			{Name: "Sudah SYNC", Kind: KindInteger},
			{Name: "Belum SYNC", Kind: KindInteger},
			{Name: RankingColumn, Kind: KindFloat},
		},
	}
	for _, r := range regions {
		sets := byRegion[r]
		sp := int64(len(sets.all))
		sudah := int64(len(sets.synced))
		chart = append(chart, ChartPoint{Region: r, Synced: sudah, NotSynced: int64(len(sets.notSynced))})
		ranking.Rows = append(ranking.Rows, Row{
			Label:  r,
			Values: []float64{float64(sp), float64(sudah), float64(sp - sudah), percent(sudah, sp)},
		})
	}

	// regions is already ascending, so a stable sort keeps ties in region order.
	sort.SliceStable(ranking.Rows, func(i, j int) bool {
		return ranking.Rows[i].Values[3] > ranking.Rows[j].Values[3]
	})

	return Summary{KPI: kpi, Chart: chart, Ranking: ranking}
}

// percent returns part/whole*100 rounded to two decimals, 0 when whole is 0.
func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}
