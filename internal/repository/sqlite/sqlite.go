package sqlite

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the on-device sqlite handle shared by all repositories.
type DB struct {
	*sql.DB
}

// NewSQLiteDB opens (or creates) the on-device database and ensures the
// schema exists.
func NewSQLiteDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	-- Local roster mirror
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		national_id TEXT NOT NULL,
		full_name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		updated_at_millis INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- At most one active employee per national id
	CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_national_id_active
		ON employees(national_id) WHERE active = 1;

	-- Shift table; weekday -1 applies to every day
	CREATE TABLE IF NOT EXISTS shift_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		weekday INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		break_start TEXT NOT NULL DEFAULT '',
		break_end TEXT NOT NULL DEFAULT '',
		grace_minutes INTEGER NOT NULL DEFAULT 0,
		UNIQUE(employee_id, weekday)
	);

	-- Event ledger: append-mostly, sync columns are the only mutable ones
	CREATE TABLE IF NOT EXISTS attendance_events (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		captured_at_millis INTEGER NOT NULL,
		device_id TEXT NOT NULL,
		capture_mode TEXT NOT NULL DEFAULT 'MANUAL',
		raw_payload TEXT NOT NULL DEFAULT '',
		latitude REAL,
		longitude REAL,
		note TEXT,
		computed_marks TEXT,
		sync_state TEXT NOT NULL DEFAULT 'PENDING',
		sync_error TEXT,
		server_confirmed_at_millis INTEGER,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(employee_id, date, kind)
	);

	CREATE INDEX IF NOT EXISTS idx_events_sync_state ON attendance_events(sync_state);
	CREATE INDEX IF NOT EXISTS idx_events_employee_date ON attendance_events(employee_id, date);

	-- One row per installation
	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		clock_skew_millis INTEGER NOT NULL DEFAULT 0,
		capture_mode TEXT NOT NULL DEFAULT 'QR',
		endpoint TEXT NOT NULL DEFAULT '',
		auth_token TEXT NOT NULL DEFAULT '',
		gps_enabled INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.Exec(schema)
	return err
}
