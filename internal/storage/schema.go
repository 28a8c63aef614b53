// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: One append-only fact table plus catalog tables.
package storage

// initSchema creates or updates the database schema.
//
// observed_at and recorded_at are stored as Unix nanoseconds: aligned reads
// group on exact timestamp equality and range scans must order correctly,
// neither of which RFC3339 text guarantees across sub-second precision.
// The recipes CHECK mirrors the domain tagged-union invariant; domain
// validation runs first, the constraint is the backstop.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subjects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		value_type TEXT NOT NULL,
		visualization TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recipes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		metric_id INTEGER REFERENCES metrics(id) ON DELETE RESTRICT,
		deps TEXT,
		calc_key TEXT,
		code TEXT UNIQUE,
		name TEXT,
		unit TEXT,
		value_type TEXT,
		visualization TEXT,
		status TEXT,
		created_at TEXT NOT NULL,
		CHECK (
			(kind = 'primitive'
				AND metric_id IS NOT NULL
				AND deps IS NULL AND calc_key IS NULL AND code IS NULL
				AND name IS NULL AND unit IS NULL AND value_type IS NULL
				AND visualization IS NULL AND status IS NULL)
			OR
			(kind = 'derived'
				AND metric_id IS NULL
				AND deps IS NOT NULL AND calc_key IS NOT NULL AND code IS NOT NULL
				AND name IS NOT NULL AND unit IS NOT NULL AND value_type IS NOT NULL
				AND visualization IS NOT NULL AND status IS NOT NULL)
		)
	);

	CREATE TABLE IF NOT EXISTS data_sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		metadata TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id INTEGER NOT NULL REFERENCES subjects(id) ON DELETE RESTRICT,
		metric_id INTEGER NOT NULL REFERENCES metrics(id) ON DELETE RESTRICT,
		value TEXT NOT NULL,
		observed_at INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL,
		source_id INTEGER REFERENCES data_sources(id) ON DELETE RESTRICT
	);

	CREATE INDEX IF NOT EXISTS idx_observations_series
		ON observations(subject_id, metric_id, observed_at);
	CREATE INDEX IF NOT EXISTS idx_observations_observed
		ON observations(observed_at);
	CREATE INDEX IF NOT EXISTS idx_metrics_status_name ON metrics(status, name);
	CREATE INDEX IF NOT EXISTS idx_recipes_kind ON recipes(kind);
	`

	_, err := d.db.Exec(schema)
	return err
}
