package dataprocessing

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"dapodiksync/internal/config"
	apperrors "dapodiksync/internal/errors"
)

// maxCoercionErrors caps the per-file list of bad cells.
const maxCoercionErrors = 20

// Normalizer turns master rows into NormalizedRecords according to ReportConfig.
type Normalizer struct {
	cfg      config.ReportConfig
	excluded map[string]bool
	notSent  string
	logger   *slog.Logger
}

// NewNormalizer creates a normalizer. cfg is expected to come from config.Load.
func NewNormalizer(cfg config.ReportConfig, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	excluded := make(map[string]bool, len(cfg.ExcludedLevels))
	for _, level := range cfg.ExcludedLevels {
		excluded[normalizeCode(level)] = true
	}
	return &Normalizer{
		cfg:      cfg,
		excluded: excluded,
		notSent:  normalizeMarker(cfg.NotSentMarker),
		logger:   logger.With(slog.String("component", "normalizer")),
	}
}

// requiredColumns lists the configured column names in a stable order.
func (n *Normalizer) requiredColumns() []string {
	c := n.cfg.Columns
	return []string{c.SchoolID, c.Region, c.Level, c.Ownership, c.Students, c.Groups, c.Teachers, c.Support, c.LastSync}
}

// Extract maps table rows onto RawRecords. Every missing column is reported in a single SchemaError.
func (n *Normalizer) Extract(t *Table) ([]RawRecord, error) {
	required := n.requiredColumns()
	idx := make([]int, len(required))
	var missing []string
	for i, name := range required {
		idx[i] = t.Column(name)
		if idx[i] == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(t.Source, missing)
	}

	records := make([]RawRecord, 0, t.Len())
	for r, row := range t.Rows {
		cell := func(i int) string {
			if idx[i] < len(row) {
				return row[idx[i]]
			}
			return ""
		}
		records = append(records, RawRecord{
			Source:    t.Source,
			Row:       t.RowNumbers[r],
			SchoolID:  cell(0),
			Region:    cell(1),
			Level:     cell(2),
			Ownership: cell(3),
			Students:  cell(4),
			Groups:    cell(5),
			Teachers:  cell(6),
			Support:   cell(7),
			LastSync:  cell(8),
		})
	}
	return records, nil
}

// Normalize extracts and normalizes one table. Bad count cells are collected and returned
// together; no record of the file is returned in that case.
func (n *Normalizer) Normalize(t *Table) ([]NormalizedRecord, error) {
	raws, err := n.Extract(t)
	if err != nil {
		return nil, err
	}

	out := make([]NormalizedRecord, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		rec, err := n.NormalizeRecord(raw)
		if err != nil {
			errs = append(errs, err)
			if len(errs) == maxCoercionErrors {
				break
			}
			continue
		}
		out = append(out, rec)
	}
	if len(errs) > 0 {
		n.logger.Warn("Rejected file with unreadable counts",
			slog.String("file", t.Source),
			slog.Int("errors", len(errs)))
		return nil, errors.Join(errs...)
	}

	n.logger.Debug("Normalized table",
		slog.String("file", t.Source),
		slog.Int("records", len(out)))
	return out, nil
}

// NormalizeRecord derives every NormalizedRecord field from raw alone.
func (n *Normalizer) NormalizeRecord(raw RawRecord) (NormalizedRecord, error) {
	cols := n.cfg.Columns
	rec := NormalizedRecord{
		Source:    raw.Source,
		Row:       raw.Row,
		SchoolID:  strings.TrimSpace(raw.SchoolID),
		Region:    strings.TrimSpace(raw.Region),
		Level:     normalizeCode(raw.Level),
		Ownership: ParseOwnership(raw.Ownership),
		LastSync:  normalizeMarker(raw.LastSync),
	}

	counts := []struct {
		column string
		value  string
		dst    *int64
	}{
		{cols.Students, raw.Students, &rec.Students},
		{cols.Groups, raw.Groups, &rec.Groups},
		{cols.Teachers, raw.Teachers, &rec.Teachers},
		{cols.Support, raw.Support, &rec.Support},
	}
	for _, c := range counts {
		v, err := ParseCount(c.value)
		if err != nil {
			return NormalizedRecord{}, apperrors.NewTypeCoercionError(raw.Source, c.column, raw.Row, c.value, err)
		}
		*c.dst = v
	}
	rec.StaffTotal = rec.Teachers + rec.Support

	rec.SyncStatus = n.syncStatus(rec.LastSync)
	if rec.SyncStatus == SyncStatusNotSynced {
		rec.IsNotSynced = 1
	} else {
		rec.IsSynced = 1
	}
	return rec, nil
}

func (n *Normalizer) syncStatus(marker string) SyncStatus {
	switch {
	case marker == n.notSent:
		return SyncStatusNotSynced
	case marker == "" && n.cfg.UnknownSync == config.UnknownSyncNotSynced:
		return SyncStatusNotSynced
	default:
		return SyncStatusSynced
	}
}

// Split builds the all-levels and deep-dive datasets. Input order is kept.
func (n *Normalizer) Split(records []NormalizedRecord) Datasets {
	var ds Datasets
	deepDive := normalizeCode(n.cfg.DeepDiveLevel)
	for _, rec := range records {
		if !n.excluded[rec.Level] {
			ds.AllLevels = append(ds.AllLevels, rec)
		}
		if rec.Level == deepDive {
			ds.DeepDive = append(ds.DeepDive, rec)
		}
	}
	return ds
}

// ParseOwnership maps NEGERI/SWASTA in any case; other values are unknown.
func ParseOwnership(s string) Ownership {
	switch normalizeCode(s) {
	case "NEGERI":
		return OwnershipPublic
	case "SWASTA":
		return OwnershipPrivate
	default:
		return OwnershipUnknown
	}
}

// ParseCount reads a non-negative whole number. Empty is 0 and comma thousands separators are accepted.
func ParseCount(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("negative count %d", v)
		}
		return v, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, errors.New("not a finite number")
	case f < 0:
		return 0, fmt.Errorf("negative count %v", f)
	case f != math.Trunc(f):
		return 0, fmt.Errorf("fractional count %v", f)
	case f > math.MaxInt64:
		return 0, errors.New("count out of range")
	}
	return int64(f), nil
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// normalizeMarker lowercases and collapses inner whitespace.
func normalizeMarker(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
