package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Friend is one accepted friendship as seen by the caller.
type Friend struct {
	FriendCode string `json:"friendCode"`
	Nickname   string `json:"nickname"`
}

// IncomingRequest is one pending request addressed to the caller.
type IncomingRequest struct {
	ID             int64     `json:"id"`
	FromFriendCode string    `json:"fromFriendCode"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (s *Server) handleFriends(w http.ResponseWriter, r *http.Request, me user) error {
	rows, err := s.db.QueryContext(r.Context(), `
		SELECT
			CASE WHEN f.user_a = $1 THEN u2.friend_code ELSE u1.friend_code END,
			CASE WHEN f.user_a = $1 THEN COALESCE(u2.nickname, '') ELSE COALESCE(u1.nickname, '') END
		FROM friendships f
		JOIN users u1 ON u1.id = f.user_a
		JOIN users u2 ON u2.id = f.user_b
		WHERE f.user_a = $1 OR f.user_b = $1
		ORDER BY f.created_at DESC`,
		me.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	friends := []Friend{}
	for rows.Next() {
		var f Friend
		if err := rows.Scan(&f.FriendCode, &f.Nickname); err != nil {
			return err
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	sendJSON(w, http.StatusOK, friends)
	return nil
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request, me user) error {
	var body struct {
		ToFriendCode string `json:"toFriendCode"`
	}
	if err := decodeBody(r, &body); err != nil {
		return err
	}

	to := strings.TrimSpace(body.ToFriendCode)
	if to == "" {
		return httpError(http.StatusBadRequest, "Missing toFriendCode")
	}
	if to == me.FriendCode {
		return httpError(http.StatusBadRequest, "Cannot friend yourself")
	}

	ctx := r.Context()
	var toID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE friend_code = $1`, to).Scan(&toID)
	if errors.Is(err, sql.ErrNoRows) {
		return httpError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return err
	}

	already, err := s.areFriends(ctx, me.ID, toID)
	if err != nil {
		return err
	}
	if already {
		return httpError(http.StatusConflict, "Already friends")
	}

	// The partial unique index rejects a duplicate pending request.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO friend_requests (from_user_id, to_user_id, status) VALUES ($1, $2, 'PENDING')`,
		me.ID, toID,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return httpError(http.StatusConflict, "Request already exists")
	}
	if err != nil {
		return err
	}

	sendJSON(w, http.StatusOK, map[string]bool{"ok": true})
	return nil
}

func (s *Server) handleIncoming(w http.ResponseWriter, r *http.Request, me user) error {
	rows, err := s.db.QueryContext(r.Context(), `
		SELECT fr.id, u.friend_code, fr.created_at
		FROM friend_requests fr
		JOIN users u ON u.id = fr.from_user_id
		WHERE fr.to_user_id = $1 AND fr.status = 'PENDING'
		ORDER BY fr.created_at DESC`,
		me.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	reqs := []IncomingRequest{}
	for rows.Next() {
		var req IncomingRequest
		if err := rows.Scan(&req.ID, &req.FromFriendCode, &req.CreatedAt); err != nil {
			return err
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	sendJSON(w, http.StatusOK, reqs)
	return nil
}

// loadPendingRequest fetches the request and checks the caller is its
// recipient and that it is still open.
func (s *Server) loadPendingRequest(r *http.Request, me user) (id, fromID int64, err error) {
	id, err = strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, httpError(http.StatusBadRequest, "Invalid id")
	}

	var toID int64
	var status string
	err = s.db.QueryRowContext(r.Context(),
		`SELECT from_user_id, to_user_id, status FROM friend_requests WHERE id = $1`, id,
	).Scan(&fromID, &toID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, httpError(http.StatusNotFound, "Not found")
	}
	if err != nil {
		return 0, 0, err
	}
	if toID != me.ID {
		return 0, 0, httpError(http.StatusForbidden, "Forbidden")
	}
	if status != "PENDING" {
		return 0, 0, httpError(http.StatusConflict, "Not pending")
	}
	return id, fromID, nil
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request, me user) error {
	id, fromID, err := s.loadPendingRequest(r, me)
	if err != nil {
		return err
	}

	ctx := r.Context()
	a, b := friendPair(fromID, me.ID)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO friendships (user_a, user_b) VALUES ($1, $2) ON CONFLICT DO NOTHING`, a, b,
	); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE friend_requests SET status = 'ACCEPTED', responded_at = now() WHERE id = $1`, id,
	); err != nil {
		return err
	}

	sendJSON(w, http.StatusOK, map[string]bool{"ok": true})
	return nil
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request, me user) error {
	id, _, err := s.loadPendingRequest(r, me)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(r.Context(),
		`UPDATE friend_requests SET status = 'REJECTED', responded_at = now() WHERE id = $1`, id,
	); err != nil {
		return err
	}

	sendJSON(w, http.StatusOK, map[string]bool{"ok": true})
	return nil
}
