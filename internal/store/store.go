// Package store implements the persistent storage engine for recollect.
//
// It keeps captured session records in a single SQLite database, using an
// FTS5 full-text index for relevance-ranked search when the platform build
// supports it, and an unindexed substring scan when it does not. The engine
// is opened once per database path and closed at session end.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// Record is a single normalized captured event, in transit or already stored.
// Body is always already redacted by the time a Record exists — the privacy
// filter runs inside the capture adapters, never here.
type Record struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Body       string         `json:"body"`
	CreatedAt  int64          `json:"created_at"` // epoch millis
	SessionID  string         `json:"session_id,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Record kinds form a closed set. Writes with an unknown kind are rejected.
const (
	KindDiscovery = "discovery"
	KindDecision  = "decision"
	KindProblem   = "problem"
	KindSolution  = "solution"
	KindPattern   = "pattern"
	KindWarning   = "warning"
	KindSuccess   = "success"
	KindRefactor  = "refactor"
	KindBugfix    = "bugfix"
	KindFeature   = "feature"
)

var validKinds = map[string]bool{
	KindDiscovery: true,
	KindDecision:  true,
	KindProblem:   true,
	KindSolution:  true,
	KindPattern:   true,
	KindWarning:   true,
	KindSuccess:   true,
	KindRefactor:  true,
	KindBugfix:    true,
	KindFeature:   true,
}

// ValidKind reports whether kind belongs to the closed record-kind set.
func ValidKind(kind string) bool {
	return validKinds[kind]
}

// Stats holds aggregate storage statistics. ApproxSizeBytes is derived from
// the engine's page count × page size and is approximate, not exact.
type Stats struct {
	Count           int            `json:"count"`
	ApproxSizeBytes int64          `json:"approx_size_bytes"`
	OldestTimestamp *int64         `json:"oldest_timestamp,omitempty"`
	NewestTimestamp *int64         `json:"newest_timestamp,omitempty"`
	CountsByKind    map[string]int `json:"counts_by_kind"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent storage engine backed by SQLite.
type Store struct {
	db           *sql.DB
	log          *slog.Logger
	ftsAvailable bool
}

// Open opens (creating if needed) the database at path, enables write-ahead
// durability, and probes once for FTS5 support. Stale -wal/-shm side files
// left by a prior unclean exit are removed first so the open can never hang
// on an orphaned lock.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	removeStaleArtifacts(path, logger)

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, log: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}

	// Probe FTS5 once; the result is cached for the connection's lifetime
	// and selects the search strategy for every later query.
	s.ftsAvailable = s.probeFTS()
	if s.ftsAvailable {
		if err := s.migrateFTS(); err != nil {
			s.log.Warn("full-text index unavailable", "error", err)
			s.ftsAvailable = false
		}
	} else {
		s.log.Info("fts5 extension not available, search will use substring scan")
	}

	return s, nil
}

// removeStaleArtifacts deletes orphaned write-ahead log and shared-memory
// side files next to the database. Best-effort: failures are logged and the
// open proceeds.
func removeStaleArtifacts(path string, logger *slog.Logger) {
	if _, err := os.Stat(path); err != nil {
		return // no prior database, nothing to clean
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		side := path + suffix
		if _, err := os.Stat(side); err != nil {
			continue
		}
		if err := os.Remove(side); err != nil {
			logger.Warn("stale durability artifact not removed", "file", side, "error", err)
			continue
		}
		logger.Debug("removed stale durability artifact", "file", side)
	}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// FTSAvailable reports whether the indexed full-text search path is active.
func (s *Store) FTSAvailable() bool {
	return s.ftsAvailable
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			id         TEXT PRIMARY KEY,
			kind       TEXT    NOT NULL,
			body       TEXT    NOT NULL,
			attributes TEXT    NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL,
			session_id TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_records_kind    ON records(kind);
		CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_records_session ON records(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// probeFTS creates and immediately drops a throwaway virtual table to learn
// whether this build of the engine carries the FTS5 extension.
func (s *Store) probeFTS() bool {
	if _, err := s.db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS fts_probe USING fts5(body)`); err != nil {
		return false
	}
	_, _ = s.db.Exec(`DROP TABLE IF EXISTS fts_probe`)
	return true
}

// migrateFTS creates the secondary index. It is a standalone FTS5 table
// keyed by the records table's rowid, maintained incrementally on Write —
// no triggers, so a missing extension can never break the primary table.
func (s *Store) migrateFTS() error {
	_, err := s.db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(body)`)
	return err
}

// ─── Write / Read ────────────────────────────────────────────────────────────

// Write upserts a record by id. Writing an existing id replaces the prior
// value entirely (last-write-wins); there is no partial-field update. When
// the full-text index is available it is refreshed as part of the same
// logical operation, but an index failure never fails the write — the
// primary row has already landed.
func (s *Store) Write(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("store: write: empty record id")
	}
	if !ValidKind(rec.Kind) {
		return fmt.Errorf("store: write: unknown kind %q", rec.Kind)
	}

	attrs, err := json.Marshal(rec.Attributes)
	if err != nil {
		return fmt.Errorf("store: write %s: marshal attributes: %w", rec.ID, err)
	}
	if rec.Attributes == nil {
		attrs = []byte("{}")
	}

	_, err = s.db.Exec(
		`INSERT INTO records (id, kind, body, attributes, created_at, session_id)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   kind       = excluded.kind,
		   body       = excluded.body,
		   attributes = excluded.attributes,
		   created_at = excluded.created_at,
		   session_id = excluded.session_id`,
		rec.ID, rec.Kind, rec.Body, string(attrs), rec.CreatedAt, nullableString(rec.SessionID),
	)
	if err != nil {
		return fmt.Errorf("store: write %s: %w", rec.ID, err)
	}

	if s.ftsAvailable {
		if err := s.updateIndex(rec.ID, rec.Body); err != nil {
			s.log.Warn("full-text index update failed", "id", rec.ID, "error", err)
		}
	}
	return nil
}

// updateIndex refreshes the FTS row for a record. Delete-then-insert keyed
// by the primary table's rowid keeps overwrites from accumulating ghosts.
func (s *Store) updateIndex(id, body string) error {
	var rowid int64
	if err := s.db.QueryRow(`SELECT rowid FROM records WHERE id = ?`, id).Scan(&rowid); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM records_fts WHERE rowid = ?`, rowid); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT INTO records_fts (rowid, body) VALUES (?, ?)`, rowid, body)
	return err
}

// Read returns the record with the given id, or nil if none exists.
func (s *Store) Read(id string) (*Record, error) {
	row := s.db.QueryRow(
		`SELECT id, kind, body, attributes, created_at, ifnull(session_id, '')
		 FROM records WHERE id = ?`, id,
	)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", id, err)
	}
	return rec, nil
}

// ─── Search ──────────────────────────────────────────────────────────────────

// Search returns records whose body matches the query, up to limit. The
// indexed relevance-ranked path is used when FTS5 was detected at open; if
// the indexed query itself fails, or the extension is absent, Search falls
// back to a substring scan ordered by recency descending. An empty or
// whitespace-only query returns the most recent records.
func (s *Store) Search(query string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}

	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		return s.Recent(limit)
	}

	if s.ftsAvailable {
		results, err := s.searchFTS(ftsQuery, limit)
		if err == nil {
			return results, nil
		}
		s.log.Warn("indexed search failed, falling back to substring scan", "error", err)
	}

	return s.searchScan(query, limit)
}

func (s *Store) searchFTS(ftsQuery string, limit int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT r.id, r.kind, r.body, r.attributes, r.created_at, ifnull(r.session_id, '')
		 FROM records_fts fts
		 JOIN records r ON r.rowid = fts.rowid
		 WHERE records_fts MATCH ?
		 ORDER BY fts.rank
		 LIMIT ?`,
		ftsQuery, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (s *Store) searchScan(query string, limit int) ([]Record, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	rows, err := s.db.Query(
		`SELECT id, kind, body, attributes, created_at, ifnull(session_id, '')
		 FROM records
		 WHERE body LIKE ? ESCAPE '\'
		 ORDER BY created_at DESC
		 LIMIT ?`,
		pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: search scan: %w", err)
	}
	return collectRecords(rows)
}

// Recent returns the most recently created records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT id, kind, body, attributes, created_at, ifnull(session_id, '')
		 FROM records
		 ORDER BY created_at DESC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	return collectRecords(rows)
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate statistics. A never-written store yields zero
// values, never an error.
func (s *Store) Stats() (Stats, error) {
	stats := Stats{CountsByKind: map[string]int{}}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&stats.Count); err != nil {
		return stats, fmt.Errorf("store: stats: %w", err)
	}

	var pageCount, pageSize int64
	_ = s.db.QueryRow(`PRAGMA page_count`).Scan(&pageCount)
	_ = s.db.QueryRow(`PRAGMA page_size`).Scan(&pageSize)
	stats.ApproxSizeBytes = pageCount * pageSize

	if stats.Count > 0 {
		var oldest, newest int64
		if err := s.db.QueryRow(`SELECT MIN(created_at), MAX(created_at) FROM records`).Scan(&oldest, &newest); err == nil {
			stats.OldestTimestamp = &oldest
			stats.NewestTimestamp = &newest
		}
	}

	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM records GROUP BY kind`)
	if err != nil {
		return stats, fmt.Errorf("store: stats kinds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return stats, err
		}
		stats.CountsByKind[kind] = n
	}
	return stats, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var attrs string
	if err := row.Scan(&rec.ID, &rec.Kind, &rec.Body, &attrs, &rec.CreatedAt, &rec.SessionID); err != nil {
		return nil, err
	}
	if attrs != "" && attrs != "{}" {
		if err := json.Unmarshal([]byte(attrs), &rec.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal attributes for %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var results []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *rec)
	}
	return results, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "fix auth bug" → `"fix" "auth" "bug"`
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.Trim(w, `"`)
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}

// escapeLike escapes LIKE wildcard characters so caller input cannot inject
// unintended wildcard behavior into the substring scan.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
