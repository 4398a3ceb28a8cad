package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Keys under which blobs live in app_state. The versioned suffix lets a
// future schema bump keep the old blob around for recovery.
const (
	stateKey    = "lodo-state:v1"
	raidLeftKey = "lodo-raid-left:v1"
	gemsKey     = "lodo-gem-tracker:v1"
)

// ErrNoState is returned by the Load functions when nothing has been
// saved yet.
var ErrNoState = errors.New("no saved state")

// SaveState stores the serialized tracker state, replacing any previous
// snapshot.
func (s *Store) SaveState(data []byte) error {
	return s.putBlob(stateKey, data)
}

// LoadState returns the last saved tracker state, or ErrNoState.
func (s *Store) LoadState() ([]byte, error) {
	return s.getBlob(stateKey)
}

// SaveGems stores the serialized gem inventory sheet.
func (s *Store) SaveGems(data []byte) error {
	return s.putBlob(gemsKey, data)
}

// LoadGems returns the last saved gem inventory, or ErrNoState.
func (s *Store) LoadGems() ([]byte, error) {
	return s.getBlob(gemsKey)
}

// SaveRaidLeft stores the serialized raid-left counters.
func (s *Store) SaveRaidLeft(data []byte) error {
	return s.putBlob(raidLeftKey, data)
}

// LoadRaidLeft returns the last saved raid-left counters, or ErrNoState.
func (s *Store) LoadRaidLeft() ([]byte, error) {
	return s.getBlob(raidLeftKey)
}

func (s *Store) putBlob(key string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO app_state (key, value, updated_at)
		 VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ','now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *Store) getBlob(key string) ([]byte, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return []byte(value), nil
}
