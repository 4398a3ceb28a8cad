package server

import (
	"net/http"
	"strings"
)

func (s *Server) handleNickname(w http.ResponseWriter, r *http.Request, me user) error {
	var body struct {
		Nickname string `json:"nickname"`
	}
	if err := decodeBody(r, &body); err != nil {
		return err
	}

	nickname := strings.TrimSpace(body.Nickname)
	if nickname == "" {
		return httpError(http.StatusBadRequest, "Missing nickname")
	}

	if _, err := s.db.ExecContext(r.Context(),
		`UPDATE users SET nickname = $1 WHERE id = $2`, nickname, me.ID,
	); err != nil {
		return err
	}

	sendJSON(w, http.StatusOK, map[string]any{"ok": true, "nickname": nickname})
	return nil
}

func (s *Server) handleShareMode(w http.ResponseWriter, r *http.Request, me user) error {
	var body struct {
		ShareMode string `json:"shareMode"`
	}
	if err := decodeBody(r, &body); err != nil {
		return err
	}

	mode := strings.ToUpper(strings.TrimSpace(body.ShareMode))
	if mode != "PUBLIC" && mode != "PRIVATE" {
		return httpError(http.StatusBadRequest, "shareMode must be PUBLIC or PRIVATE")
	}

	if _, err := s.db.ExecContext(r.Context(),
		`UPDATE users SET share_mode = $1 WHERE id = $2`, mode, me.ID,
	); err != nil {
		return err
	}

	sendJSON(w, http.StatusOK, map[string]any{"ok": true, "shareMode": mode})
	return nil
}
