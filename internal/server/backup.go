package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"
)

// checkBackupPassword gates the backup endpoints. The first password a
// user ever presents becomes their backup password; every later call
// must present the same one.
func (s *Server) checkBackupPassword(ctx context.Context, me user, password string) error {
	var salt, hash []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT backup_salt, backup_hash FROM users WHERE id = $1`, me.ID,
	).Scan(&salt, &hash)
	if err != nil {
		return err
	}

	if len(hash) == 0 {
		salt, err = newSalt()
		if err != nil {
			return err
		}
		hash, err = hashPassword(password, salt)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx,
			`UPDATE users SET backup_salt = $1, backup_hash = $2 WHERE id = $3`,
			salt, hash, me.ID,
		)
		return err
	}

	ok, err := verifyPassword(password, salt, hash)
	if err != nil {
		return err
	}
	if !ok {
		return httpError(http.StatusUnauthorized, "Invalid backup password")
	}
	return nil
}

func (s *Server) handleBackupUpload(w http.ResponseWriter, r *http.Request, me user) error {
	var body struct {
		Password  string `json:"password"`
		StateJSON string `json:"stateJson"`
	}
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	if body.Password == "" {
		return httpError(http.StatusBadRequest, "Missing password")
	}
	if body.StateJSON == "" {
		return httpError(http.StatusBadRequest, "Missing stateJson")
	}

	ctx := r.Context()
	if err := s.checkBackupPassword(ctx, me, body.Password); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO state_backups (user_id, state_json) VALUES ($1, $2)
		 ON CONFLICT (user_id)
		 DO UPDATE SET state_json = excluded.state_json, updated_at = now()`,
		me.ID, body.StateJSON,
	); err != nil {
		return err
	}

	sendJSON(w, http.StatusOK, map[string]bool{"ok": true})
	return nil
}

func (s *Server) handleBackupDownload(w http.ResponseWriter, r *http.Request, me user) error {
	var body struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	if body.Password == "" {
		return httpError(http.StatusBadRequest, "Missing password")
	}

	ctx := r.Context()
	if err := s.checkBackupPassword(ctx, me, body.Password); err != nil {
		return err
	}

	var stateJSON string
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json, updated_at FROM state_backups WHERE user_id = $1`, me.ID,
	).Scan(&stateJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return httpError(http.StatusNotFound, "No backup found")
	}
	if err != nil {
		return err
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"stateJson": stateJSON,
		"updatedAt": updatedAt,
	})
	return nil
}

func (s *Server) handleSnapshotUpload(w http.ResponseWriter, r *http.Request, me user) error {
	var body struct {
		SnapshotJSON string `json:"snapshotJson"`
	}
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	if body.SnapshotJSON == "" {
		return httpError(http.StatusBadRequest, "Missing snapshotJson")
	}

	if _, err := s.db.ExecContext(r.Context(),
		`INSERT INTO raid_left_snapshots (user_id, snapshot_json) VALUES ($1, $2)
		 ON CONFLICT (user_id)
		 DO UPDATE SET snapshot_json = excluded.snapshot_json, updated_at = now()`,
		me.ID, body.SnapshotJSON,
	); err != nil {
		return err
	}

	sendJSON(w, http.StatusOK, map[string]bool{"ok": true})
	return nil
}

// handleSnapshotRead serves another user's snapshot. PRIVATE owners are
// readable only by their friends; PUBLIC owners by anyone.
func (s *Server) handleSnapshotRead(w http.ResponseWriter, r *http.Request, me user) error {
	code := strings.TrimSpace(r.URL.Query().Get("friendCode"))
	if code == "" {
		return httpError(http.StatusBadRequest, "Missing friendCode")
	}

	ctx := r.Context()
	var targetID int64
	var shareMode string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, share_mode FROM users WHERE friend_code = $1`, code,
	).Scan(&targetID, &shareMode)
	if errors.Is(err, sql.ErrNoRows) {
		return httpError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return err
	}

	if shareMode == "PRIVATE" && targetID != me.ID {
		friends, err := s.areFriends(ctx, me.ID, targetID)
		if err != nil {
			return err
		}
		if !friends {
			return httpError(http.StatusForbidden, "Forbidden")
		}
	}

	var snapshot string
	err = s.db.QueryRowContext(ctx,
		`SELECT snapshot_json FROM raid_left_snapshots WHERE user_id = $1`, targetID,
	).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return httpError(http.StatusNotFound, "No snapshot")
	}
	if err != nil {
		return err
	}

	sendJSON(w, http.StatusOK, map[string]string{"snapshotJson": snapshot})
	return nil
}
