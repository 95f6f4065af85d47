package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"lyyti/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  variant TEXT NOT NULL,
  source TEXT NOT NULL,
  outputPath TEXT NOT NULL,
  rowsRead INTEGER NOT NULL,
  blankRows INTEGER NOT NULL,
  athletes INTEGER NOT NULL,
  entries INTEGER NOT NULL,
  rejected INTEGER NOT NULL,
  startedAt TEXT NOT NULL,
  finishedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rejections (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  bib TEXT,
  surname TEXT,
  firstname TEXT,
  licenseId TEXT,
  reason TEXT NOT NULL,
  declared TEXT,
  found TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_rejections_runId ON rejections(runId);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertRun stores a run together with its rejections in one transaction.
func (d *DB) InsertRun(run internal.RunRow, rejections []internal.RejectionRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
INSERT INTO runs (id, variant, source, outputPath, rowsRead, blankRows, athletes, entries, rejected, startedAt, finishedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.Variant, run.Source, run.OutputPath, run.Read, run.Blank, run.Athletes, run.Entries, run.Rejected, run.StartedAt, run.FinishedAt); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO rejections (runId, bib, surname, firstname, licenseId, reason, declared, found)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rejections {
		if _, err := stmt.Exec(run.ID, r.Bib, r.Surname, r.FirstName, r.LicenseID, r.Reason, r.Declared, r.Found); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) GetRun(id string) (*internal.RunRow, error) {
	var row internal.RunRow
	err := d.conn.QueryRow(`
SELECT id, variant, source, outputPath, rowsRead, blankRows, athletes, entries, rejected, startedAt, finishedAt
FROM runs WHERE id = ?
`, id).Scan(
		&row.ID, &row.Variant, &row.Source, &row.OutputPath, &row.Read, &row.Blank,
		&row.Athletes, &row.Entries, &row.Rejected, &row.StartedAt, &row.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListRejections(runID string) ([]internal.RejectionRow, error) {
	rows, err := d.conn.Query(`
SELECT runId, COALESCE(bib, ''), COALESCE(surname, ''), COALESCE(firstname, ''),
       COALESCE(licenseId, ''), reason, COALESCE(declared, ''), COALESCE(found, '')
FROM rejections WHERE runId = ? ORDER BY id ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RejectionRow
	for rows.Next() {
		var r internal.RejectionRow
		if err := rows.Scan(&r.RunID, &r.Bib, &r.Surname, &r.FirstName, &r.LicenseID, &r.Reason, &r.Declared, &r.Found); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
