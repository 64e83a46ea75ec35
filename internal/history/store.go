package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/hobbybridge/internal/device"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

const schema = `
CREATE TABLE IF NOT EXISTS state_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_uuid TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	properties TEXT NOT NULL,
	touched TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);
CREATE INDEX IF NOT EXISTS idx_state_history_device
	ON state_history (device_uuid, created_at DESC);
`

// Entry is a single recorded state change.
type Entry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// DeviceUUID identifies the device.
	DeviceUUID string `json:"device_uuid"`

	// Model is the hub model at recording time.
	Model string `json:"model"`

	// Properties is the full property snapshot after the merge.
	Properties device.Properties `json:"properties"`

	// Touched lists the property names the delta overwrote.
	Touched []string `json:"touched,omitempty"`

	// CreatedAt is the timestamp of the change (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// Store persists state change history in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database and ensures the schema.
//
// Parameters:
//   - path: SQLite file path, or ":memory:" for tests
//   - busyTimeout: SQLite busy timeout in milliseconds
//
// Returns:
//   - *Store: Ready-to-use store
//   - error: nil on success, or the underlying open/migration error
func Open(path string, busyTimeout int) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history: database path is required")
	}
	if busyTimeout <= 0 {
		busyTimeout = 5000
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", path, busyTimeout)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: opening database: %w", err)
	}

	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append inserts a state change row.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	if entry.DeviceUUID == "" {
		return fmt.Errorf("history: device uuid is required")
	}

	propsJSON, err := json.Marshal(entry.Properties)
	if err != nil {
		return fmt.Errorf("history: marshalling properties: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO state_history (device_uuid, model, properties, touched) VALUES (?, ?, ?, ?)",
		entry.DeviceUUID,
		entry.Model,
		string(propsJSON),
		strings.Join(entry.Touched, ","),
	)
	if err != nil {
		return fmt.Errorf("history: inserting entry: %w", err)
	}
	return nil
}

// List returns recent entries for a device, newest first.
// The limit defaults to 50 and is capped at 200.
func (s *Store) List(ctx context.Context, deviceUUID string, limit int) ([]Entry, error) {
	if deviceUUID == "" {
		return nil, fmt.Errorf("history: device uuid is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, device_uuid, model, properties, touched, created_at
		 FROM state_history
		 WHERE device_uuid = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		deviceUUID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: querying entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var propsJSON, touched, createdAt string

		if err := rows.Scan(&entry.ID, &entry.DeviceUUID, &entry.Model, &propsJSON, &touched, &createdAt); err != nil {
			return nil, fmt.Errorf("history: scanning entry: %w", err)
		}
		if err := json.Unmarshal([]byte(propsJSON), &entry.Properties); err != nil {
			return nil, fmt.Errorf("history: unmarshalling properties: %w", err)
		}
		if touched != "" {
			entry.Touched = strings.Split(touched, ",")
		}

		timestamp, err := parseTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating entries: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than the given duration and returns the
// number of rows removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("history: olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM state_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("history: deleting entries: %w", err)
	}
	return result.RowsAffected()
}

// parseTimestamp parses a timestamp stored by SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("history: created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02T15:04:05Z", value)
	if fallbackErr == nil {
		return fallback, nil
	}
	return time.Time{}, fmt.Errorf("history: parsing created_at: %w", err)
}
