package store

import "time"

// SnapshotStatus is the lifecycle state of a capture attempt.
// A snapshot is created as Capturing and transitions exactly once to a
// terminal state; terminal snapshots are never mutated again.
type SnapshotStatus string

const (
	StatusCapturing SnapshotStatus = "capturing"
	StatusCompleted SnapshotStatus = "completed"
	StatusFailed    SnapshotStatus = "failed"
)

// TriggerSource records what initiated a capture.
type TriggerSource string

const (
	TriggerManual         TriggerSource = "manual"
	TriggerLockfileChange TriggerSource = "lockfile_change"
)

// ExecutionSnapshot is one capture attempt for a project. History is
// append-only: a retry or a later capture of the same project is a new
// record, never an update of an old one.
type ExecutionSnapshot struct {
	ID                 string
	ProjectPath        string
	Status             SnapshotStatus
	TriggerSource      TriggerSource
	LockfileType       string // empty until the lockfile format is detected
	LockfileHash       string
	DependencyTreeHash string
	PackageJSONHash    string
	TotalDependencies  int
	DirectDependencies int
	DevDependencies    int
	SecurityScore      *int // nil until security analysis has run
	PostinstallCount   int
	StoragePath        string
	CompressedSize     int64
	ErrorMessage       string // set only when Status is failed
	CreatedAt          time.Time
}

// SnapshotDependency is one parsed dependency belonging to a snapshot.
// Rows are inserted in bulk after parsing and never mutated.
type SnapshotDependency struct {
	ID                int64 // assigned by the database on insert
	SnapshotID        string
	Name              string
	Version           string
	IsDirect          bool
	IsDev             bool
	HasPostinstall    bool
	PostinstallScript string // not always resolved at parse time
	IntegrityHash     string
	ResolvedURL       string
}
