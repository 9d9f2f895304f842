package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/ironsheep/map-coverage/internal/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS coverage (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	raster_name  TEXT    NOT NULL,
	leaf         INTEGER NOT NULL,
	path         TEXT    NOT NULL DEFAULT '',
	x0           INTEGER NOT NULL,
	y0           INTEGER NOT NULL,
	height       INTEGER NOT NULL,
	width        INTEGER NOT NULL,
	channels     INTEGER NOT NULL,
	pixels_all   INTEGER NOT NULL,
	relative_sum REAL    NOT NULL,
	UNIQUE (raster_name, leaf)
);

CREATE TABLE IF NOT EXISTS category_stats (
	coverage_id INTEGER NOT NULL REFERENCES coverage(id) ON DELETE CASCADE,
	category    TEXT    NOT NULL,
	count       INTEGER NOT NULL,
	raw_count   INTEGER NOT NULL,
	relative    REAL    NOT NULL,
	PRIMARY KEY (coverage_id, category)
);
`

// SQLiteSink stores records in an SQLite database: one coverage row per
// record and one category_stats row per category of that record.
//
// Writing a record whose (raster_name, leaf) already exists replaces it,
// so re-running a batch over the same sheets is idempotent.
type SQLiteSink struct {
	db    *sql.DB
	owned bool
}

// OpenSQLite opens (or creates) the database at path with WAL journaling
// and a busy timeout, and ensures the schema exists.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Pragmas are per connection; one connection keeps them in effect.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", p, err)
		}
	}

	s, err := NewSQLiteSink(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSQLiteSink wraps an open database and ensures the schema exists. The
// caller keeps ownership of db.
func NewSQLiteSink(db *sql.DB) (*SQLiteSink, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// DB returns the underlying database.
func (s *SQLiteSink) DB() *sql.DB { return s.db }

// Write stores records in a single transaction. Either all records of the
// batch are stored or none are.
func (s *SQLiteSink) Write(records []analysis.Record) error {
	if len(records) == 0 {
		return nil
	}
	header := records[0].Columns()
	for i := range records {
		if !sameColumns(header, records[i].Columns()) {
			return fmt.Errorf("record %s: %w", records[i].ID, ErrColumnMismatch)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := writeRecords(tx, records); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func writeRecords(tx *sql.Tx, records []analysis.Record) error {
	delStats, err := tx.Prepare(`DELETE FROM category_stats WHERE coverage_id IN
		(SELECT id FROM coverage WHERE raster_name = ? AND leaf = ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete: %w", err)
	}
	defer delStats.Close()

	delCoverage, err := tx.Prepare(`DELETE FROM coverage WHERE raster_name = ? AND leaf = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete: %w", err)
	}
	defer delCoverage.Close()

	insCoverage, err := tx.Prepare(`INSERT INTO coverage
		(raster_name, leaf, path, x0, y0, height, width, channels, pixels_all, relative_sum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insCoverage.Close()

	insStat, err := tx.Prepare(`INSERT INTO category_stats
		(coverage_id, category, count, raw_count, relative) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insStat.Close()

	for i := range records {
		r := &records[i]
		if _, err := delStats.Exec(r.ID, r.Leaf); err != nil {
			return fmt.Errorf("failed to replace %s: %w", r.ID, err)
		}
		if _, err := delCoverage.Exec(r.ID, r.Leaf); err != nil {
			return fmt.Errorf("failed to replace %s: %w", r.ID, err)
		}

		res, err := insCoverage.Exec(r.ID, r.Leaf, r.Path, r.X0, r.Y0, r.Height, r.Width,
			r.Channels, r.PixelsAll, r.RelativeSum)
		if err != nil {
			return fmt.Errorf("failed to insert %s: %w", r.ID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to insert %s: %w", r.ID, err)
		}

		for _, c := range r.Categories {
			if _, err := insStat.Exec(id, c.Name, c.Count, c.RawCount, c.Relative); err != nil {
				return fmt.Errorf("failed to insert %s/%s: %w", r.ID, c.Name, err)
			}
		}
	}
	return nil
}

// Close closes the database if the sink opened it.
func (s *SQLiteSink) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
