// Package session persists the signed-in session across runs: the
// bearer credential, the user id, and the last volume. The engine never
// touches this store; it only receives already-authorized call handles
// built from it.
package session

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "cadenza"
	dbFileName = "cadenza.db"
)

// Session is the persisted credential and preference set.
type Session struct {
	UserID int
	Token  string
	Volume int
	Muted  bool
}

type Store struct {
	db *sql.DB
}

func Open() (*Store, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored session, or nil when no one is signed in.
func (s *Store) Get() (*Session, error) {
	var sess Session
	row := s.db.QueryRow(`SELECT user_id, token, volume, muted FROM session WHERE id = 1`)
	err := row.Scan(&sess.UserID, &sess.Token, &sess.Volume, &sess.Muted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Save upserts the session.
func (s *Store) Save(sess Session) error {
	_, err := s.db.Exec(`
		INSERT INTO session (id, user_id, token, volume, muted, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			token = excluded.token,
			volume = excluded.volume,
			muted = excluded.muted,
			updated_at = excluded.updated_at
	`, sess.UserID, sess.Token, sess.Volume, sess.Muted, time.Now().Unix())
	return err
}

// SaveVolume persists only the volume preference.
func (s *Store) SaveVolume(volume int, muted bool) error {
	_, err := s.db.Exec(`
		UPDATE session SET volume = ?, muted = ?, updated_at = ? WHERE id = 1
	`, volume, muted, time.Now().Unix())
	return err
}

// Clear removes the stored session (logout).
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM session WHERE id = 1`)
	return err
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			user_id INTEGER NOT NULL,
			token TEXT NOT NULL,
			volume INTEGER NOT NULL DEFAULT 80,
			muted INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		);
	`)
	return err
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
