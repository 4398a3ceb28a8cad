// Package client is the typed HTTP client for the friend and backup
// service. Calls are best-effort from the tracker's point of view:
// failures surface as errors and never touch local state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("service: %s (HTTP %d)", e.Message, e.Status)
}

type Client struct {
	baseURL    string
	friendCode string
	nickname   string
	http       *http.Client
}

// New builds a client for the service at baseURL, identifying as
// friendCode/nickname on every request.
func New(baseURL, friendCode, nickname string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		friendCode: friendCode,
		nickname:   nickname,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

type Friend struct {
	FriendCode string `json:"friendCode"`
	Nickname   string `json:"nickname"`
}

type IncomingRequest struct {
	ID             int64     `json:"id"`
	FromFriendCode string    `json:"fromFriendCode"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Backup struct {
	StateJSON string    `json:"stateJson"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Client) Friends(ctx context.Context) ([]Friend, error) {
	var friends []Friend
	if err := c.do(ctx, http.MethodGet, "/friends", nil, &friends); err != nil {
		return nil, err
	}
	return friends, nil
}

func (c *Client) IncomingRequests(ctx context.Context) ([]IncomingRequest, error) {
	var reqs []IncomingRequest
	if err := c.do(ctx, http.MethodGet, "/friend-requests/incoming", nil, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (c *Client) SendFriendRequest(ctx context.Context, toFriendCode string) error {
	body := map[string]string{"toFriendCode": toFriendCode}
	return c.do(ctx, http.MethodPost, "/friend-requests", body, nil)
}

func (c *Client) AcceptFriendRequest(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/friend-requests/%d/accept", id), nil, nil)
}

func (c *Client) RejectFriendRequest(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/friend-requests/%d/reject", id), nil, nil)
}

func (c *Client) SetNickname(ctx context.Context, nickname string) error {
	return c.do(ctx, http.MethodPut, "/me/nickname", map[string]string{"nickname": nickname}, nil)
}

func (c *Client) SetShareMode(ctx context.Context, mode string) error {
	return c.do(ctx, http.MethodPut, "/me/share-mode", map[string]string{"shareMode": mode}, nil)
}

// UploadBackup stores the serialized state behind the backup password.
// The first password used becomes the account's backup password.
func (c *Client) UploadBackup(ctx context.Context, password, stateJSON string) error {
	body := map[string]string{"password": password, "stateJson": stateJSON}
	return c.do(ctx, http.MethodPut, "/me/state-backup", body, nil)
}

func (c *Client) DownloadBackup(ctx context.Context, password string) (Backup, error) {
	var backup Backup
	body := map[string]string{"password": password}
	if err := c.do(ctx, http.MethodPost, "/me/state-backup", body, &backup); err != nil {
		return Backup{}, err
	}
	return backup, nil
}

func (c *Client) UploadSnapshot(ctx context.Context, snapshotJSON string) error {
	body := map[string]string{"snapshotJson": snapshotJSON}
	return c.do(ctx, http.MethodPut, "/me/raid-left-snapshot", body, nil)
}

// FetchSnapshot reads a friend's raid-left snapshot, subject to their
// share mode.
func (c *Client) FetchSnapshot(ctx context.Context, friendCode string) (string, error) {
	var out struct {
		SnapshotJSON string `json:"snapshotJson"`
	}
	path := "/raid-left-snapshot?friendCode=" + url.QueryEscape(friendCode)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.SnapshotJSON, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Friend-Code", c.friendCode)
	if c.nickname != "" {
		req.Header.Set("X-Nickname", c.nickname)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
