// Package snapshot orchestrates a capture: locate and parse the
// project's lockfile, hash and archive the raw artifacts, run security
// analysis, and persist the result as one append-only history entry.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/depsnap/internal/artifacts"
	"github.com/blackwell-systems/depsnap/internal/hashing"
	"github.com/blackwell-systems/depsnap/internal/lockfile"
	"github.com/blackwell-systems/depsnap/internal/security"
	"github.com/blackwell-systems/depsnap/internal/store"
)

// Manager runs captures against one record store and one artifact store.
// Managers hold no mutable state of their own, so independent captures
// may run concurrently on the same Manager.
type Manager struct {
	records   *store.Store
	artifacts *artifacts.Store
}

// NewManager creates a snapshot Manager.
func NewManager(records *store.Store, artifactStore *artifacts.Store) *Manager {
	return &Manager{
		records:   records,
		artifacts: artifactStore,
	}
}

// CaptureManual captures a snapshot for a user-initiated request.
func (m *Manager) CaptureManual(ctx context.Context, projectPath string) (*store.ExecutionSnapshot, error) {
	return m.Capture(ctx, projectPath, store.TriggerManual)
}

// CaptureOnLockfileChange captures a snapshot in response to a lockfile
// change reported by a file watcher.
func (m *Manager) CaptureOnLockfileChange(ctx context.Context, projectPath string) (*store.ExecutionSnapshot, error) {
	return m.Capture(ctx, projectPath, store.TriggerLockfileChange)
}

// Capture performs one capture attempt. An initial record is persisted
// in the Capturing state before any work happens so long captures are
// observable; the record then transitions exactly once to Completed or
// Failed and is never mutated again. On failure the error is recorded
// on the snapshot and returned; no dependency rows are written.
func (m *Manager) Capture(ctx context.Context, projectPath string, trigger store.TriggerSource) (*store.ExecutionSnapshot, error) {
	snap := &store.ExecutionSnapshot{
		ID:            uuid.NewString(),
		ProjectPath:   projectPath,
		Status:        store.StatusCapturing,
		TriggerSource: trigger,
		CreatedAt:     time.Now().UTC(),
	}

	if err := m.records.CreateSnapshot(snap); err != nil {
		return nil, fmt.Errorf("failed to record capture start: %w", err)
	}

	deps, err := m.capture(ctx, snap)
	if err != nil {
		snap.Status = store.StatusFailed
		snap.ErrorMessage = err.Error()
		if uerr := m.records.UpdateSnapshot(snap); uerr != nil {
			// The original failure is the interesting one; the
			// bookkeeping failure must not mask it.
			fmt.Fprintf(os.Stderr, "depsnap: failed to record capture failure for %s: %v\n", snap.ID, uerr)
		}
		return snap, err
	}

	snap.Status = store.StatusCompleted
	if err := m.records.UpdateSnapshot(snap); err != nil {
		return snap, fmt.Errorf("failed to record capture completion: %w", err)
	}
	if err := m.records.AddDependencies(deps); err != nil {
		return snap, fmt.Errorf("failed to persist dependencies: %w", err)
	}

	return snap, nil
}

// capture runs steps 2-5 of the flow, filling in snap as it goes. The
// steps are strictly sequential: each depends on the previous one's
// output.
func (m *Manager) capture(ctx context.Context, snap *store.ExecutionSnapshot) ([]*store.SnapshotDependency, error) {
	// Locate and read the lockfile. Absence or unreadability is fatal.
	typ, lockPath, err := lockfile.Locate(snap.ProjectPath)
	if err != nil {
		return nil, err
	}
	snap.LockfileType = string(typ)

	lockData, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile %s: %w", lockPath, err)
	}

	// Hash and archive the raw lockfile.
	snap.LockfileHash = hashing.SumHex(lockData)
	_, lockSize, err := m.artifacts.StoreLockfile(snap.ID, typ.Filename(), lockData)
	if err != nil {
		return nil, fmt.Errorf("failed to store lockfile artifact: %w", err)
	}
	snap.StoragePath = m.artifacts.SnapshotDir(snap.ID)
	snap.CompressedSize = lockSize

	// package.json is archived when present; its absence is normal.
	manifest, err := os.ReadFile(filepath.Join(snap.ProjectPath, "package.json"))
	if err == nil {
		snap.PackageJSONHash = hashing.SumHex(manifest)
		_, manifestSize, err := m.artifacts.StorePackageJSON(snap.ID, manifest)
		if err != nil {
			return nil, fmt.Errorf("failed to store package.json artifact: %w", err)
		}
		snap.CompressedSize += manifestSize
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}

	// Parse into the unified dependency list. A parse failure aborts the
	// capture; a partial list is never persisted.
	deps, err := lockfile.Parse(typ, lockData)
	if err != nil {
		return nil, err
	}

	for _, dep := range deps {
		dep.SnapshotID = snap.ID
		snap.TotalDependencies++
		if dep.IsDirect {
			snap.DirectDependencies++
		}
		if dep.IsDev {
			snap.DevDependencies++
		}
	}
	snap.DependencyTreeHash = hashing.DependencyTree(deps)

	// Security analysis. The scans are best-effort enrichment and
	// degrade gracefully; only the score and counts land on the record.
	secCtx, err := security.BuildContext(ctx, snap.ProjectPath, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to build security context: %w", err)
	}
	attachScripts(deps, secCtx.PostinstallScripts)

	score := security.ComputeScore(deps)
	snap.SecurityScore = &score
	snap.PostinstallCount = security.CountPostinstalls(deps)

	return deps, nil
}

// attachScripts copies script bodies found in node_modules onto the
// matching dependency rows. The lockfile stays the authority on whether
// a package has a lifecycle script; the scan only resolves the text,
// which the lockfile formats never carry.
func attachScripts(deps []*store.SnapshotDependency, entries []security.PostinstallEntry) {
	if len(entries) == 0 {
		return
	}

	byPackage := make(map[string]security.PostinstallEntry, len(entries))
	for _, entry := range entries {
		byPackage[entry.Package] = entry
	}

	for _, dep := range deps {
		if entry, ok := byPackage[dep.Name]; ok && dep.PostinstallScript == "" {
			dep.PostinstallScript = entry.Script
		}
	}
}
