package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	_ "modernc.org/sqlite"
)

var log = logging.Logger("storage")

const (
	dayFormat = "2006-01-02"

	// Fixed width so saved_at sorts lexically.
	tsFormat = "2006-01-02 15:04:05.000000000"
)

// DB wraps the SQLite entry index.
type DB struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Entry is one indexed save.
type Entry struct {
	ID        string    `json:"id"`
	Day       string    `json:"day"`
	SavedAt   time.Time `json:"saved_at"`
	Path      string    `json:"path"`
	Directory string    `json:"directory"`
	Chars     int       `json:"chars"`
}

// DaySummary counts the indexed entries of one day.
type DaySummary struct {
	Day   string    `json:"day"`
	Count int       `json:"count"`
	Last  time.Time `json:"last"`
}

// Open opens or creates the index database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id        TEXT PRIMARY KEY,
			day       TEXT NOT NULL,
			saved_at  TEXT NOT NULL,
			path      TEXT NOT NULL,
			directory TEXT NOT NULL,
			chars     INTEGER DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS entries_dir_day ON entries (directory, day);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create entries table: %w", err)
	}

	log.Debugf("index open at %s", path)
	return &DB{db: db, path: path}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Path() string {
	return d.path
}

// InsertEntry records a save and returns its generated id.
func (d *DB) InsertEntry(directory, path string, savedAt time.Time, chars int) (Entry, error) {
	e := Entry{
		ID:        uuid.NewString(),
		Day:       savedAt.Format(dayFormat),
		SavedAt:   savedAt,
		Path:      path,
		Directory: directory,
		Chars:     chars,
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(
		`INSERT INTO entries (id, day, saved_at, path, directory, chars) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Day, e.SavedAt.UTC().Format(tsFormat), e.Path, e.Directory, e.Chars,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

// ListDays summarizes the indexed days of a directory, newest first.
func (d *DB) ListDays(directory string) ([]DaySummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(
		`SELECT day, COUNT(*), MAX(saved_at) FROM entries WHERE directory = ? GROUP BY day ORDER BY day DESC`,
		directory,
	)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	defer rows.Close()

	out := []DaySummary{}
	for rows.Next() {
		var (
			s    DaySummary
			last string
		)
		if err := rows.Scan(&s.Day, &s.Count, &last); err != nil {
			return nil, err
		}
		s.Last, _ = time.Parse(tsFormat, last)
		out = append(out, s)
	}
	return out, rows.Err()
}

// EntriesForDay returns the entries of one day (YYYY-MM-DD), oldest first.
func (d *DB) EntriesForDay(directory, day string) ([]Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(
		`SELECT id, day, saved_at, path, directory, chars FROM entries
		 WHERE directory = ? AND day = ? ORDER BY saved_at ASC`,
		directory, day,
	)
	if err != nil {
		return nil, fmt.Errorf("entries for day: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			savedAt string
		)
		if err := rows.Scan(&e.ID, &e.Day, &savedAt, &e.Path, &e.Directory, &e.Chars); err != nil {
			return nil, err
		}
		e.SavedAt, _ = time.Parse(tsFormat, savedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
