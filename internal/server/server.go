// Package server implements the friend and backup HTTP service. There
// is no login: the X-Friend-Code header is the user's identity and a
// user row is upserted the first time a code is seen. A separate
// backup password, set on first use, gates only the full-state backup.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
)

type Server struct {
	db  *sql.DB
	mux *http.ServeMux
}

// New wires every route. EnsureSchema must have run already.
func New(db *sql.DB) *Server {
	s := &Server{db: db, mux: http.NewServeMux()}

	s.handle("GET /friends", s.handleFriends)
	s.handle("POST /friend-requests", s.handleCreateRequest)
	s.handle("GET /friend-requests/incoming", s.handleIncoming)
	s.handle("POST /friend-requests/{id}/accept", s.handleAccept)
	s.handle("POST /friend-requests/{id}/reject", s.handleReject)
	s.handle("PUT /me/nickname", s.handleNickname)
	s.handle("PUT /me/share-mode", s.handleShareMode)
	s.handle("PUT /me/state-backup", s.handleBackupUpload)
	s.handle("POST /me/state-backup", s.handleBackupDownload)
	s.handle("PUT /me/raid-left-snapshot", s.handleSnapshotUpload)
	s.handle("GET /raid-left-snapshot", s.handleSnapshotRead)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cors(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// user is the authenticated caller, upserted from the identity headers.
type user struct {
	ID         int64
	FriendCode string
	Nickname   string
	ShareMode  string
}

// apiError carries an HTTP status through a handler's error return.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string { return e.Message }

func httpError(status int, msg string) error {
	return &apiError{Status: status, Message: msg}
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, me user) error

func (s *Server) handle(pattern string, h handlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		me, err := s.currentUser(r)
		if err == nil {
			err = h(w, r, me)
		}
		if err != nil {
			var ae *apiError
			if errors.As(err, &ae) {
				sendJSON(w, ae.Status, map[string]string{"error": ae.Message})
				return
			}
			log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
			sendJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server Error"})
		}
	})
}

// currentUser resolves the identity headers to a user row, creating it
// on first sight and backfilling an empty nickname.
func (s *Server) currentUser(r *http.Request) (user, error) {
	code := strings.TrimSpace(r.Header.Get("X-Friend-Code"))
	if code == "" {
		return user{}, httpError(http.StatusUnauthorized, "Missing x-friend-code")
	}
	nickname := strings.TrimSpace(r.Header.Get("X-Nickname"))
	if nickname == "" {
		nickname = code
	}

	ctx := r.Context()
	var me user
	var dbNick sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, friend_code, nickname, share_mode FROM users WHERE friend_code = $1`,
		code,
	).Scan(&me.ID, &me.FriendCode, &dbNick, &me.ShareMode)
	if err == nil {
		me.Nickname = dbNick.String
		if me.Nickname == "" {
			if _, err := s.db.ExecContext(ctx, `UPDATE users SET nickname = $1 WHERE id = $2`, nickname, me.ID); err != nil {
				return user{}, err
			}
			me.Nickname = nickname
		}
		return me, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return user{}, err
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO users (friend_code, nickname) VALUES ($1, $2)
		 RETURNING id, friend_code, nickname, share_mode`,
		code, nickname,
	).Scan(&me.ID, &me.FriendCode, &dbNick, &me.ShareMode)
	if err != nil {
		return user{}, err
	}
	me.Nickname = dbNick.String
	return me, nil
}

func cors(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "*"
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type,x-friend-code,x-nickname")
	h.Set("Access-Control-Max-Age", "86400")
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return httpError(http.StatusBadRequest, "Invalid JSON body")
	}
	return nil
}

// friendPair orders two user ids so the lower one is always user_a.
func friendPair(x, y int64) (int64, int64) {
	if x < y {
		return x, y
	}
	return y, x
}

// areFriends reports whether a friendship row exists for the pair.
func (s *Server) areFriends(ctx context.Context, x, y int64) (bool, error) {
	a, b := friendPair(x, y)
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM friendships WHERE user_a = $1 AND user_b = $2`, a, b,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
