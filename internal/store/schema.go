package store

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    project_path TEXT NOT NULL,
    status TEXT NOT NULL,
    trigger_source TEXT NOT NULL,
    lockfile_type TEXT,
    lockfile_hash TEXT,
    dependency_tree_hash TEXT,
    package_json_hash TEXT,
    total_dependencies INTEGER NOT NULL DEFAULT 0,
    direct_dependencies INTEGER NOT NULL DEFAULT 0,
    dev_dependencies INTEGER NOT NULL DEFAULT 0,
    security_score INTEGER,
    postinstall_count INTEGER NOT NULL DEFAULT 0,
    storage_path TEXT,
    compressed_size INTEGER NOT NULL DEFAULT 0,
    error_message TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_dependencies (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_id TEXT NOT NULL,
    name TEXT NOT NULL,
    version TEXT NOT NULL,
    is_direct BOOLEAN NOT NULL DEFAULT 0,
    is_dev BOOLEAN NOT NULL DEFAULT 0,
    has_postinstall BOOLEAN NOT NULL DEFAULT 0,
    postinstall_script TEXT,
    integrity_hash TEXT,
    resolved_url TEXT,
    FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_snapshots_project ON snapshots(project_path);
CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
CREATE INDEX IF NOT EXISTS idx_snapshot_deps_snapshot ON snapshot_dependencies(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_snapshot_deps_name ON snapshot_dependencies(name);
`
