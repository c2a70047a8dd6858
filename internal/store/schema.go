package store

// schemaVersion is stored in PRAGMA user_version. Caches written by an
// older version have their fixture tables rebuilt; manual expenses are kept.
const schemaVersion = 2

const dropFixtureTablesSQL = `
DROP TABLE IF EXISTS expenses;
DROP TABLE IF EXISTS projects;
DROP TABLE IF EXISTS file_tracker;
`

// Amounts are stored as decimal TEXT so values round-trip exactly.
// Fixture rows are keyed by file and project ID; the same ID may appear in
// several files.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
    file_path            TEXT NOT NULL,
    project_id           TEXT NOT NULL,
    seq                  INTEGER NOT NULL,
    title                TEXT NOT NULL,
    description          TEXT,
    client               TEXT,
    category             TEXT,
    status               TEXT NOT NULL,
    budget               TEXT NOT NULL,
    spent                TEXT NOT NULL,
    start_date           TEXT,
    end_date             TEXT,
    parsed_at            TEXT NOT NULL,
    PRIMARY KEY (file_path, project_id)
);

CREATE TABLE IF NOT EXISTS expenses (
    file_path            TEXT NOT NULL,
    project_id           TEXT NOT NULL,
    seq                  INTEGER NOT NULL,
    expense_id           TEXT NOT NULL,
    description          TEXT,
    amount               TEXT NOT NULL,
    category             TEXT,
    expense_date         TEXT NOT NULL,
    PRIMARY KEY (file_path, project_id, seq),
    FOREIGN KEY (file_path, project_id) REFERENCES projects(file_path, project_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS manual_expenses (
    expense_id           TEXT PRIMARY KEY,
    project_id           TEXT NOT NULL,
    description          TEXT,
    amount               TEXT NOT NULL,
    category             TEXT,
    expense_date         TEXT NOT NULL,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    parse_errors         INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_manual_project ON manual_expenses(project_id);
`
