package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/pantry/internal/model"
)

// storageKey is the fixed key the session blob lives under, matching the
// localStorage key the browser build of the application used.
const storageKey = "userData"

const storageSchema = `
CREATE TABLE IF NOT EXISTS local_store (
    key     TEXT PRIMARY KEY,
    payload TEXT NOT NULL
);
`

// persistedSession is the on-disk blob shape. Field names match the
// document the browser build wrote, so an exported blob round-trips.
type persistedSession struct {
	Email               string `json:"email"`
	ID                  string `json:"id"`
	Token               string `json:"_token"`
	TokenExpirationDate string `json:"_tokenExpirationDate"`
}

// Storage is the persisted local session: one JSON blob under a fixed key
// in a single-table SQLite database.
type Storage struct {
	db *sql.DB
}

// OpenStorage creates or opens the local store at path. Pass ":memory:"
// for an ephemeral store in tests. Idempotent.
func OpenStorage(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect local store: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(storageSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply local store schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes the session blob, replacing any previous one.
func (s *Storage) Save(sess model.Session) error {
	blob, err := json.Marshal(persistedSession{
		Email:               sess.Email,
		ID:                  sess.UserID,
		Token:               sess.Token,
		TokenExpirationDate: sess.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO local_store (key, payload) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`,
		storageKey, string(blob),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load reads the persisted session. ok is false when none is stored.
//
// When the stored expiry is missing or unparsable, the expiry falls back
// to the token's own exp claim; a session with neither is returned with a
// zero ExpiresAt, which reads as already expired.
func (s *Storage) Load() (sess model.Session, ok bool, err error) {
	var payload string
	row := s.db.QueryRow(`SELECT payload FROM local_store WHERE key = ?`, storageKey)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, false, nil
		}
		return model.Session{}, false, fmt.Errorf("load session: %w", err)
	}

	var blob persistedSession
	if err := json.Unmarshal([]byte(payload), &blob); err != nil {
		return model.Session{}, false, fmt.Errorf("decode session: %w", err)
	}

	sess = model.Session{
		UserID: blob.ID,
		Email:  blob.Email,
		Token:  blob.Token,
	}
	if exp, perr := time.Parse(time.RFC3339Nano, blob.TokenExpirationDate); perr == nil {
		sess.ExpiresAt = exp
	} else if exp, found := TokenExpiry(blob.Token); found {
		sess.ExpiresAt = exp
	}
	return sess, true, nil
}

// Clear deletes the persisted session. Deleting an absent blob is fine.
func (s *Storage) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM local_store WHERE key = ?`, storageKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
