package internal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// eventCacheVersion is stored in PRAGMA user_version. A cache written with a
// different version is dropped and rebuilt on open.
const eventCacheVersion = 1

const eventCacheSchema = `
CREATE TABLE IF NOT EXISTS transcript_events (
	path         TEXT    NOT NULL,
	mode         TEXT    NOT NULL,
	mod_time_ns  INTEGER NOT NULL,
	size         INTEGER NOT NULL,
	parse_errors INTEGER NOT NULL,
	event_count  INTEGER NOT NULL,
	events       TEXT    NOT NULL,
	cached_at    TEXT    NOT NULL,
	PRIMARY KEY (path, mode)
)`

// EventCache stores normalized events per transcript and mode in SQLite.
// An entry is valid while the transcript's mtime and size are unchanged.
type EventCache struct {
	db   *sql.DB
	path string
}

// CachedEvents is a cache hit
type CachedEvents struct {
	Events      []NormalizedEvent
	ParseErrors int
}

// CacheEntry describes one cached transcript
type CacheEntry struct {
	Path        string    `json:"path" yaml:"path"`
	Mode        Mode      `json:"mode" yaml:"mode"`
	ModTime     time.Time `json:"modified" yaml:"modified"`
	Size        int64     `json:"size_bytes" yaml:"size_bytes"`
	EventCount  int       `json:"event_count" yaml:"event_count"`
	ParseErrors int       `json:"parse_errors" yaml:"parse_errors"`
	CachedAt    string    `json:"cached_at" yaml:"cached_at"`
}

// OpenEventCache opens or creates the cache database at path
func OpenEventCache(path string) (*EventCache, error) {
	db, err := OpenWritableDatabase(path)
	if err != nil {
		return nil, &CacheError{Path: path, Op: "open", Err: err}
	}

	c := &EventCache{db: db, path: path}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, &CacheError{Path: path, Op: "open", Err: err}
	}
	return c, nil
}

func (c *EventCache) migrate() error {
	version, err := schemaVersion(c.db)
	if err != nil {
		return err
	}
	if version != eventCacheVersion {
		if version != 0 {
			LogDebug("event cache version %d != %d, rebuilding", version, eventCacheVersion)
		}
		if _, err := c.db.Exec("DROP TABLE IF EXISTS transcript_events"); err != nil {
			return err
		}
	}
	if _, err := c.db.Exec(eventCacheSchema); err != nil {
		return err
	}
	return setSchemaVersion(c.db, eventCacheVersion)
}

// Path returns the cache database path
func (c *EventCache) Path() string {
	return c.path
}

// Load returns the cached events for t in mode. ok is false on a miss or
// when the transcript changed since it was cached.
func (c *EventCache) Load(t Transcript, mode Mode) (*CachedEvents, bool, error) {
	var (
		modTimeNs   int64
		size        int64
		parseErrors int
		payload     string
	)
	row := c.db.QueryRow(
		"SELECT mod_time_ns, size, parse_errors, events FROM transcript_events WHERE path = ? AND mode = ?",
		t.Path, string(mode))
	if err := row.Scan(&modTimeNs, &size, &parseErrors, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, &CacheError{Path: c.path, Op: "load", Err: err}
	}

	if modTimeNs != t.ModTime.UnixNano() || size != t.Size {
		return nil, false, nil
	}

	var events []NormalizedEvent
	if err := json.Unmarshal([]byte(payload), &events); err != nil {
		// A corrupt row is a miss; Store will overwrite it
		LogDebug("discarding unreadable cache row for %s: %v", t.Path, err)
		return nil, false, nil
	}
	return &CachedEvents{Events: events, ParseErrors: parseErrors}, true, nil
}

// Store replaces the cached events for t in mode
func (c *EventCache) Store(t Transcript, mode Mode, events []NormalizedEvent, parseErrors int) error {
	if events == nil {
		events = []NormalizedEvent{}
	}
	payload, err := json.Marshal(events)
	if err != nil {
		return &CacheError{Path: c.path, Op: "store", Err: err}
	}

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO transcript_events
			(path, mode, mod_time_ns, size, parse_errors, event_count, events, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Path, string(mode), t.ModTime.UnixNano(), t.Size, parseErrors, len(events),
		string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &CacheError{Path: c.path, Op: "store", Err: err}
	}
	return nil
}

// Entries lists cached transcripts ordered by path then mode
func (c *EventCache) Entries() ([]CacheEntry, error) {
	rows, err := c.db.Query(
		"SELECT path, mode, mod_time_ns, size, event_count, parse_errors, cached_at FROM transcript_events ORDER BY path, mode")
	if err != nil {
		return nil, &CacheError{Path: c.path, Op: "list", Err: err}
	}
	defer rows.Close()

	var entries []CacheEntry
	for rows.Next() {
		var (
			e         CacheEntry
			mode      string
			modTimeNs int64
		)
		if err := rows.Scan(&e.Path, &mode, &modTimeNs, &e.Size, &e.EventCount, &e.ParseErrors, &e.CachedAt); err != nil {
			return nil, &CacheError{Path: c.path, Op: "list", Err: err}
		}
		e.Mode = Mode(mode)
		e.ModTime = time.Unix(0, modTimeNs)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &CacheError{Path: c.path, Op: "list", Err: err}
	}
	return entries, nil
}

// Prune removes entries whose transcript is not in keep and returns how
// many were removed.
func (c *EventCache) Prune(keep []Transcript) (int, error) {
	entries, err := c.Entries()
	if err != nil {
		return 0, err
	}
	live := make(map[string]struct{}, len(keep))
	for _, t := range keep {
		live[t.Path] = struct{}{}
	}

	removed := 0
	for _, e := range entries {
		if _, ok := live[e.Path]; ok {
			continue
		}
		if _, err := c.db.Exec("DELETE FROM transcript_events WHERE path = ? AND mode = ?", e.Path, string(e.Mode)); err != nil {
			return removed, &CacheError{Path: c.path, Op: "prune", Err: err}
		}
		removed++
	}
	return removed, nil
}

// Clear removes every cached entry
func (c *EventCache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM transcript_events"); err != nil {
		return &CacheError{Path: c.path, Op: "clear", Err: err}
	}
	return nil
}

// Close closes the underlying database
func (c *EventCache) Close() error {
	return c.db.Close()
}
