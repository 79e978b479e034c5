package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Snapshot operations

// CreateSnapshot inserts the initial record for a capture attempt.
// The caller allocates the snapshot id before insert so the artifact
// namespace and the database row share one identifier.
func (s *Store) CreateSnapshot(snap *ExecutionSnapshot) error {
	query := `
		INSERT INTO snapshots
		(id, project_path, status, trigger_source, lockfile_type, lockfile_hash,
		 dependency_tree_hash, package_json_hash, total_dependencies, direct_dependencies,
		 dev_dependencies, security_score, postinstall_count, storage_path,
		 compressed_size, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		snap.ID,
		snap.ProjectPath,
		string(snap.Status),
		string(snap.TriggerSource),
		nullString(snap.LockfileType),
		nullString(snap.LockfileHash),
		nullString(snap.DependencyTreeHash),
		nullString(snap.PackageJSONHash),
		snap.TotalDependencies,
		snap.DirectDependencies,
		snap.DevDependencies,
		nullIntPtr(snap.SecurityScore),
		snap.PostinstallCount,
		nullString(snap.StoragePath),
		snap.CompressedSize,
		nullString(snap.ErrorMessage),
		snap.CreatedAt.Format(time.RFC3339),
	)

	if err != nil {
		return fmt.Errorf("failed to insert snapshot %s: %w", snap.ID, classify(err))
	}

	return nil
}

// UpdateSnapshot writes the terminal state of a capture attempt.
// It is the only mutation a snapshot record ever receives.
func (s *Store) UpdateSnapshot(snap *ExecutionSnapshot) error {
	query := `
		UPDATE snapshots
		SET status = ?, lockfile_type = ?, lockfile_hash = ?, dependency_tree_hash = ?,
		    package_json_hash = ?, total_dependencies = ?, direct_dependencies = ?,
		    dev_dependencies = ?, security_score = ?, postinstall_count = ?,
		    storage_path = ?, compressed_size = ?, error_message = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(query,
		string(snap.Status),
		nullString(snap.LockfileType),
		nullString(snap.LockfileHash),
		nullString(snap.DependencyTreeHash),
		nullString(snap.PackageJSONHash),
		snap.TotalDependencies,
		snap.DirectDependencies,
		snap.DevDependencies,
		nullIntPtr(snap.SecurityScore),
		snap.PostinstallCount,
		nullString(snap.StoragePath),
		snap.CompressedSize,
		nullString(snap.ErrorMessage),
		snap.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update snapshot %s: %w", snap.ID, classify(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of snapshot %s: %w", snap.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("snapshot %s not found", snap.ID)
	}

	return nil
}

// GetSnapshot retrieves a snapshot by id.
func (s *Store) GetSnapshot(id string) (*ExecutionSnapshot, error) {
	query := `
		SELECT id, project_path, status, trigger_source, lockfile_type, lockfile_hash,
		       dependency_tree_hash, package_json_hash, total_dependencies,
		       direct_dependencies, dev_dependencies, security_score, postinstall_count,
		       storage_path, compressed_size, error_message, created_at
		FROM snapshots
		WHERE id = ?
	`

	snap, err := scanSnapshot(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", id, classify(err))
	}

	return snap, nil
}

// ListSnapshots returns snapshots ordered by creation time (newest first).
// An empty projectPath returns snapshots for all projects.
func (s *Store) ListSnapshots(projectPath string) ([]*ExecutionSnapshot, error) {
	query := `
		SELECT id, project_path, status, trigger_source, lockfile_type, lockfile_hash,
		       dependency_tree_hash, package_json_hash, total_dependencies,
		       direct_dependencies, dev_dependencies, security_score, postinstall_count,
		       storage_path, compressed_size, error_message, created_at
		FROM snapshots
	`
	args := []any{}
	if projectPath != "" {
		query += " WHERE project_path = ?"
		args = append(args, projectPath)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", classify(err))
	}
	defer rows.Close()

	var snapshots []*ExecutionSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

// Dependency operations

// AddDependencies bulk-inserts the dependency rows for a snapshot in a
// single transaction and assigns each row's database id. A snapshot's
// dependency list is written exactly once.
func (s *Store) AddDependencies(deps []*SnapshotDependency) error {
	if len(deps) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin dependency insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO snapshot_dependencies
		(snapshot_id, name, version, is_direct, is_dev, has_postinstall,
		 postinstall_script, integrity_hash, resolved_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare dependency insert: %w", classify(err))
	}
	defer stmt.Close()

	for _, dep := range deps {
		result, err := stmt.Exec(
			dep.SnapshotID,
			dep.Name,
			dep.Version,
			dep.IsDirect,
			dep.IsDev,
			dep.HasPostinstall,
			nullString(dep.PostinstallScript),
			nullString(dep.IntegrityHash),
			nullString(dep.ResolvedURL),
		)
		if err != nil {
			return fmt.Errorf("failed to insert dependency %s: %w", dep.Name, err)
		}

		dep.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read id for dependency %s: %w", dep.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dependency insert: %w", err)
	}

	return nil
}

// GetSnapshotDependencies returns all dependencies of a snapshot ordered by name.
func (s *Store) GetSnapshotDependencies(snapshotID string) ([]*SnapshotDependency, error) {
	query := `
		SELECT id, snapshot_id, name, version, is_direct, is_dev, has_postinstall,
		       postinstall_script, integrity_hash, resolved_url
		FROM snapshot_dependencies
		WHERE snapshot_id = ?
		ORDER BY name, version
	`

	rows, err := s.db.Query(query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot dependencies: %w", classify(err))
	}
	defer rows.Close()

	var deps []*SnapshotDependency
	for rows.Next() {
		var dep SnapshotDependency
		var script, integrity, resolved sql.NullString

		err := rows.Scan(
			&dep.ID,
			&dep.SnapshotID,
			&dep.Name,
			&dep.Version,
			&dep.IsDirect,
			&dep.IsDev,
			&dep.HasPostinstall,
			&script,
			&integrity,
			&resolved,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dependency row: %w", err)
		}

		dep.PostinstallScript = script.String
		dep.IntegrityHash = integrity.String
		dep.ResolvedURL = resolved.String
		deps = append(deps, &dep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependencies: %w", err)
	}

	return deps, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan code.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*ExecutionSnapshot, error) {
	var snap ExecutionSnapshot
	var status, trigger, createdAt string
	var lockType, lockHash, treeHash, pkgHash, storagePath, errMsg sql.NullString
	var score sql.NullInt64

	err := row.Scan(
		&snap.ID,
		&snap.ProjectPath,
		&status,
		&trigger,
		&lockType,
		&lockHash,
		&treeHash,
		&pkgHash,
		&snap.TotalDependencies,
		&snap.DirectDependencies,
		&snap.DevDependencies,
		&score,
		&snap.PostinstallCount,
		&storagePath,
		&snap.CompressedSize,
		&errMsg,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	snap.Status = SnapshotStatus(status)
	snap.TriggerSource = TriggerSource(trigger)
	snap.LockfileType = lockType.String
	snap.LockfileHash = lockHash.String
	snap.DependencyTreeHash = treeHash.String
	snap.PackageJSONHash = pkgHash.String
	snap.StoragePath = storagePath.String
	snap.ErrorMessage = errMsg.String
	if score.Valid {
		v := int(score.Int64)
		snap.SecurityScore = &v
	}

	snap.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for snapshot %s: %w", snap.ID, err)
	}

	return &snap, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIntPtr(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
