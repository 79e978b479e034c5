package store

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// Helper function to create an in-memory store for testing
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	if err := store.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return store
}

func testSnapshot(id string) *ExecutionSnapshot {
	return &ExecutionSnapshot{
		ID:            id,
		ProjectPath:   "/tmp/project",
		Status:        StatusCapturing,
		TriggerSource: TriggerManual,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
}

func TestNew(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store.db should not be nil")
	}
}

func TestCreateSchema(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	// Verify tables exist by querying sqlite_master
	tables := []string{"snapshots", "snapshot_dependencies"}
	for _, table := range tables {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	indexes := []string{"idx_snapshots_project", "idx_snapshots_created", "idx_snapshot_deps_snapshot", "idx_snapshot_deps_name"}
	for _, index := range indexes {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		if err != nil {
			t.Errorf("Index %s not found: %v", index, err)
		}
	}
}

// TestListSnapshots_NoSchema_ReturnsErrNotInitialized verifies that querying
// a fresh DB (no CreateSchema) surfaces the ErrNotInitialized sentinel.
func TestListSnapshots_NoSchema_ReturnsErrNotInitialized(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	// Do NOT call CreateSchema — simulate uninitialized database.
	_, err = s.ListSnapshots("")
	if err == nil {
		t.Fatal("ListSnapshots() should return an error on uninitialized DB")
	}
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListSnapshots() error = %v; want errors.Is(err, ErrNotInitialized) to be true", err)
	}
}

func TestCreateAndGetSnapshot(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	snap := testSnapshot("snap-1")
	if err := s.CreateSnapshot(snap); err != nil {
		t.Fatalf("CreateSnapshot() failed: %v", err)
	}

	got, err := s.GetSnapshot("snap-1")
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}

	if got.ID != "snap-1" {
		t.Errorf("ID = %q, want %q", got.ID, "snap-1")
	}
	if got.Status != StatusCapturing {
		t.Errorf("Status = %q, want %q", got.Status, StatusCapturing)
	}
	if got.TriggerSource != TriggerManual {
		t.Errorf("TriggerSource = %q, want %q", got.TriggerSource, TriggerManual)
	}
	if got.LockfileType != "" {
		t.Errorf("LockfileType = %q, want empty before detection", got.LockfileType)
	}
	if got.SecurityScore != nil {
		t.Errorf("SecurityScore = %v, want nil before analysis", *got.SecurityScore)
	}
	if !got.CreatedAt.Equal(snap.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, snap.CreatedAt)
	}
}

func TestGetSnapshot_NotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	_, err := s.GetSnapshot("does-not-exist")
	if err == nil {
		t.Fatal("GetSnapshot() should fail for a missing id")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error %q should mention 'not found'", err)
	}
}

func TestUpdateSnapshot_TerminalState(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	snap := testSnapshot("snap-2")
	if err := s.CreateSnapshot(snap); err != nil {
		t.Fatalf("CreateSnapshot() failed: %v", err)
	}

	score := 98
	snap.Status = StatusCompleted
	snap.LockfileType = "npm"
	snap.LockfileHash = "abc123"
	snap.DependencyTreeHash = "def456"
	snap.TotalDependencies = 3
	snap.DirectDependencies = 2
	snap.DevDependencies = 1
	snap.SecurityScore = &score
	snap.PostinstallCount = 1
	snap.StoragePath = "/tmp/storage/snap-2"
	snap.CompressedSize = 512

	if err := s.UpdateSnapshot(snap); err != nil {
		t.Fatalf("UpdateSnapshot() failed: %v", err)
	}

	got, err := s.GetSnapshot("snap-2")
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}

	if got.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, StatusCompleted)
	}
	if got.LockfileType != "npm" {
		t.Errorf("LockfileType = %q, want npm", got.LockfileType)
	}
	if got.SecurityScore == nil || *got.SecurityScore != 98 {
		t.Errorf("SecurityScore = %v, want 98", got.SecurityScore)
	}
	if got.TotalDependencies != 3 || got.DirectDependencies != 2 || got.DevDependencies != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1",
			got.TotalDependencies, got.DirectDependencies, got.DevDependencies)
	}
	if got.CompressedSize != 512 {
		t.Errorf("CompressedSize = %d, want 512", got.CompressedSize)
	}
}

func TestUpdateSnapshot_MissingRow(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	err := s.UpdateSnapshot(testSnapshot("ghost"))
	if err == nil {
		t.Fatal("UpdateSnapshot() should fail for a snapshot that was never created")
	}
}

func TestListSnapshots_FilterByProject(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	base := time.Now().UTC().Truncate(time.Second)

	snapA := testSnapshot("snap-a")
	snapA.ProjectPath = "/projects/a"
	snapA.CreatedAt = base.Add(-2 * time.Minute)

	snapB := testSnapshot("snap-b")
	snapB.ProjectPath = "/projects/b"
	snapB.CreatedAt = base.Add(-1 * time.Minute)

	snapA2 := testSnapshot("snap-a2")
	snapA2.ProjectPath = "/projects/a"
	snapA2.CreatedAt = base

	for _, snap := range []*ExecutionSnapshot{snapA, snapB, snapA2} {
		if err := s.CreateSnapshot(snap); err != nil {
			t.Fatalf("CreateSnapshot(%s) failed: %v", snap.ID, err)
		}
	}

	all, err := s.ListSnapshots("")
	if err != nil {
		t.Fatalf("ListSnapshots(all) failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(all))
	}
	// Newest first
	if all[0].ID != "snap-a2" {
		t.Errorf("first snapshot = %s, want snap-a2 (newest first)", all[0].ID)
	}

	onlyA, err := s.ListSnapshots("/projects/a")
	if err != nil {
		t.Fatalf("ListSnapshots(a) failed: %v", err)
	}
	if len(onlyA) != 2 {
		t.Fatalf("expected 2 snapshots for /projects/a, got %d", len(onlyA))
	}
	for _, snap := range onlyA {
		if snap.ProjectPath != "/projects/a" {
			t.Errorf("snapshot %s has project %q, want /projects/a", snap.ID, snap.ProjectPath)
		}
	}
}

func TestAddDependencies_BulkInsertAssignsIDs(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	snap := testSnapshot("snap-deps")
	if err := s.CreateSnapshot(snap); err != nil {
		t.Fatalf("CreateSnapshot() failed: %v", err)
	}

	deps := []*SnapshotDependency{
		{SnapshotID: "snap-deps", Name: "lodash", Version: "4.17.21", IsDirect: true, IntegrityHash: "sha512-abc"},
		{SnapshotID: "snap-deps", Name: "left-pad", Version: "1.3.0", IsDev: true, HasPostinstall: true, PostinstallScript: "node build.js"},
	}

	if err := s.AddDependencies(deps); err != nil {
		t.Fatalf("AddDependencies() failed: %v", err)
	}

	for _, dep := range deps {
		if dep.ID == 0 {
			t.Errorf("dependency %s should have a database-assigned id", dep.Name)
		}
	}

	got, err := s.GetSnapshotDependencies("snap-deps")
	if err != nil {
		t.Fatalf("GetSnapshotDependencies() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 dependencies, got %d", len(got))
	}

	// Ordered by name: left-pad before lodash
	if got[0].Name != "left-pad" || got[1].Name != "lodash" {
		t.Errorf("order = [%s, %s], want [left-pad, lodash]", got[0].Name, got[1].Name)
	}
	if got[0].PostinstallScript != "node build.js" {
		t.Errorf("PostinstallScript = %q, want 'node build.js'", got[0].PostinstallScript)
	}
	if got[1].IntegrityHash != "sha512-abc" {
		t.Errorf("IntegrityHash = %q, want sha512-abc", got[1].IntegrityHash)
	}
}

func TestAddDependencies_EmptyListIsNoop(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if err := s.AddDependencies(nil); err != nil {
		t.Fatalf("AddDependencies(nil) should be a no-op, got: %v", err)
	}
}

func TestDeleteSnapshotCascadesDependencies(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	snap := testSnapshot("snap-cascade")
	if err := s.CreateSnapshot(snap); err != nil {
		t.Fatalf("CreateSnapshot() failed: %v", err)
	}
	deps := []*SnapshotDependency{{SnapshotID: "snap-cascade", Name: "react", Version: "18.2.0"}}
	if err := s.AddDependencies(deps); err != nil {
		t.Fatalf("AddDependencies() failed: %v", err)
	}

	if _, err := s.db.Exec("DELETE FROM snapshots WHERE id = ?", "snap-cascade"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, err := s.GetSnapshotDependencies("snap-cascade")
	if err != nil {
		t.Fatalf("GetSnapshotDependencies() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected cascade delete to remove dependencies, got %d rows", len(got))
	}
}
