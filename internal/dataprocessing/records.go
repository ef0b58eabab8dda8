package dataprocessing

// Ownership is the Negeri/Swasta category of a school.
type Ownership string

const (
	OwnershipPublic  Ownership = "Negeri"
	OwnershipPrivate Ownership = "Swasta"
	// OwnershipUnknown rows only count toward Total margins.
	OwnershipUnknown Ownership = ""
)

// SyncStatus is derived from the last-sync marker.
type SyncStatus string

const (
	SyncStatusSynced    SyncStatus = "Sudah"
	SyncStatusNotSynced SyncStatus = "Belum"
)

// RawRecord is one master row as read from the upload, before any coercion.
type RawRecord struct {
	Source    string
	Row       int
	SchoolID  string
	Region    string
	Level     string
	Ownership string
	Students  string
	Groups    string
	Teachers  string
	Support   string
	LastSync  string
}

// NormalizedRecord is a RawRecord with trimmed categories, integer counts and the derived sync fields.
type NormalizedRecord struct {
	Source     string
	Row        int
	SchoolID   string
	Region     string
	Level      string
	Ownership  Ownership
	Students   int64
	Groups     int64
	Teachers   int64
	Support    int64
	StaffTotal int64
	LastSync   string
	SyncStatus SyncStatus
	// IsSynced and IsNotSynced are 0/1 indicators summed by the aggregator.
	IsSynced    int64
	IsNotSynced int64
}

// Datasets are the two views every report is built from.
type Datasets struct {
	// AllLevels drops the excluded levels.
	AllLevels []NormalizedRecord
	// DeepDive keeps only the deep-dive level.
	DeepDive []NormalizedRecord
}
