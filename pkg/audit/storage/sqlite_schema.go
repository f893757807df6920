package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the audit database schema.
// Times and durations are stored as nanoseconds so that range filters compare
// numerically under both drivers.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_records (
    id TEXT PRIMARY KEY,
    evaluation_id TEXT NOT NULL,

    ruleset TEXT NOT NULL,
    version TEXT,
    rule_id TEXT NOT NULL,

    success INTEGER NOT NULL,
    kind TEXT NOT NULL,
    message TEXT,
    consequences TEXT,
    input_hash TEXT,

    duration_ns INTEGER NOT NULL,
    timestamp_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_records(timestamp_ns);
CREATE INDEX IF NOT EXISTS idx_audit_evaluation_id ON audit_records(evaluation_id);
CREATE INDEX IF NOT EXISTS idx_audit_rule_id ON audit_records(rule_id);
CREATE INDEX IF NOT EXISTS idx_audit_kind ON audit_records(kind);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// recordColumns is the column list used by inserts and selects.
const recordColumns = `id, evaluation_id, ruleset, version, rule_id, success, kind, message, consequences, input_hash, duration_ns, timestamp_ns`

// sortColumns maps query sort fields to columns.
var sortColumns = map[string]string{
	"timestamp": "timestamp_ns",
	"rule_id":   "rule_id",
	"duration":  "duration_ns",
}
