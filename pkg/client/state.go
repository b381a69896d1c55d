package client

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// State manages client-side persistent state: the last identity and session
// code used, and a small history of endpoints we connected to.
type State struct {
	db  *sql.DB
	dir string // Directory where state is stored
}

// OpenState opens or creates the client state database
func OpenState(path string) (*State, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	// Configure for better reliability
	db.SetMaxOpenConns(1) // Client only needs one connection
	db.SetMaxIdleConns(1)

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	state := &State{
		db:  db,
		dir: dir,
	}

	if err := state.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return state, nil
}

func (s *State) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS Config (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS ConnectionHistory (
			endpoint        TEXT PRIMARY KEY,
			session_code    TEXT NOT NULL,
			last_success_at INTEGER NOT NULL
		);
	`)
	return err
}

// Close closes the state database
func (s *State) Close() error {
	return s.db.Close()
}

// GetConfig retrieves a configuration value
func (s *State) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM Config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetConfig stores a configuration value
func (s *State) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO Config (key, value) VALUES (?, ?)
	`, key, value)
	return err
}

// GetLastIdentity returns the last unit name this client joined as
func (s *State) GetLastIdentity() string {
	identity, _ := s.GetConfig("last_identity")
	return identity
}

// SetLastIdentity stores the last used unit name
func (s *State) SetLastIdentity(identity string) error {
	return s.SetConfig("last_identity", identity)
}

// GetLastSessionCode returns the last session code this client joined
func (s *State) GetLastSessionCode() string {
	code, _ := s.GetConfig("last_session_code")
	return code
}

// SetLastSessionCode stores the last session code
func (s *State) SetLastSessionCode(code string) error {
	return s.SetConfig("last_session_code", code)
}

// GetLastKurzstatus returns the short tag that was active when the client
// last exited, so a restart can offer to restore it
func (s *State) GetLastKurzstatus() string {
	tag, _ := s.GetConfig("last_kurzstatus")
	return tag
}

// SetLastKurzstatus stores the active short tag
func (s *State) SetLastKurzstatus(tag string) error {
	return s.SetConfig("last_kurzstatus", tag)
}

// GetLastSessionFor returns the session code last used against an endpoint.
// Returns "" if we never connected there.
func (s *State) GetLastSessionFor(endpoint string) (string, error) {
	var code string
	err := s.db.QueryRow(`
		SELECT session_code
		FROM ConnectionHistory
		WHERE endpoint = ?
	`, endpoint).Scan(&code)

	if err == sql.ErrNoRows {
		return "", nil // No history for this endpoint
	}
	return code, err
}

// SaveSuccessfulConnection records that a session code worked against an
// endpoint
func (s *State) SaveSuccessfulConnection(endpoint, sessionCode string) error {
	now := time.Now().Unix()
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO ConnectionHistory (endpoint, session_code, last_success_at)
		VALUES (?, ?, ?)
	`, endpoint, sessionCode, now)
	return err
}

// GetFirstRun checks if this is the first time running the client
func (s *State) GetFirstRun() bool {
	val, _ := s.GetConfig("first_run_complete")
	return val != "true"
}

// SetFirstRunComplete marks first run as complete
func (s *State) SetFirstRunComplete() error {
	return s.SetConfig("first_run_complete", "true")
}

// GetStateDir returns the directory where state is stored
func (s *State) GetStateDir() string {
	return s.dir
}

// GetLastSeenTimestamp returns the timestamp when the client was last active
// (in milliseconds). Returns 0 if no timestamp has been stored.
func (s *State) GetLastSeenTimestamp() int64 {
	timestampStr, _ := s.GetConfig("last_seen_timestamp")
	if timestampStr == "" {
		return 0
	}
	var timestamp int64
	if _, err := fmt.Sscanf(timestampStr, "%d", &timestamp); err != nil {
		return 0
	}
	return timestamp
}

// SetLastSeenTimestamp stores the current timestamp as the last active time
// (in milliseconds)
func (s *State) SetLastSeenTimestamp(timestamp int64) error {
	return s.SetConfig("last_seen_timestamp", fmt.Sprintf("%d", timestamp))
}

// UpdateLastSeenTimestamp updates the last seen timestamp to now
func (s *State) UpdateLastSeenTimestamp() error {
	return s.SetLastSeenTimestamp(time.Now().UnixMilli())
}
