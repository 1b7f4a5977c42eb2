package export

// JournalSchema creates the scenario run journal tables.
const JournalSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	parameters TEXT NOT NULL,
	loans INTEGER NOT NULL,
	rejected INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_rows (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	position INTEGER NOT NULL,
	loan_id TEXT NOT NULL,
	metric TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run_id, position, metric)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`
