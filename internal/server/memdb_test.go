package server

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
)

// memDB is an in-memory stand-in for the Postgres schema, exposed
// through a database/sql driver that recognizes the exact queries the
// handlers issue. It keeps handler tests hermetic: no server, no
// network, and real pq error values where the handlers expect them.
type memDB struct {
	mu       sync.Mutex
	seq      int64
	users    []*memUser
	requests []*memRequest
	pairs    []memPair
	backups  map[int64]memBlob
	snaps    map[int64]memBlob
}

type memUser struct {
	id        int64
	code      string
	nickname  string
	shareMode string
	salt      []byte
	hash      []byte
}

type memRequest struct {
	id      int64
	from    int64
	to      int64
	status  string
	created time.Time
}

type memPair struct {
	a       int64
	b       int64
	created time.Time
}

type memBlob struct {
	json    string
	updated time.Time
}

func newMemDB() *memDB {
	return &memDB{
		backups: map[int64]memBlob{},
		snaps:   map[int64]memBlob{},
	}
}

func (m *memDB) nextID() int64 {
	m.seq++
	return m.seq
}

func (m *memDB) userByCode(code string) *memUser {
	for _, u := range m.users {
		if u.code == code {
			return u
		}
	}
	return nil
}

func (m *memDB) userByID(id int64) *memUser {
	for _, u := range m.users {
		if u.id == id {
			return u
		}
	}
	return nil
}

func (m *memDB) requestByID(id int64) *memRequest {
	for _, r := range m.requests {
		if r.id == id {
			return r
		}
	}
	return nil
}

func (m *memDB) paired(a, b int64) bool {
	for _, p := range m.pairs {
		if p.a == a && p.b == b {
			return true
		}
	}
	return false
}

// --- driver plumbing ---

type memConnector struct{ db *memDB }

func (c memConnector) Connect(context.Context) (driver.Conn, error) {
	return &memConn{db: c.db}, nil
}

func (c memConnector) Driver() driver.Driver { return memDriver{} }

type memDriver struct{}

func (memDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open through sql.OpenDB")
}

type memConn struct{ db *memDB }

func (c *memConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements not supported")
}

func (c *memConn) Close() error { return nil }

func (c *memConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

type memRows struct {
	cols []string
	data [][]driver.Value
	i    int
}

func (r *memRows) Columns() []string { return r.cols }
func (r *memRows) Close() error      { return nil }

func (r *memRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.i])
	r.i++
	return nil
}

func rows(cols []string, data ...[]driver.Value) *memRows {
	return &memRows{cols: cols, data: data}
}

func normalize(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

func (c *memConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	m := c.db
	m.mu.Lock()
	defer m.mu.Unlock()

	q := normalize(query)
	switch {
	case strings.HasPrefix(q, "SELECT id, friend_code, nickname, share_mode FROM users WHERE friend_code"):
		u := m.userByCode(args[0].Value.(string))
		if u == nil {
			return rows(nil), nil
		}
		return rows([]string{"id", "friend_code", "nickname", "share_mode"},
			[]driver.Value{u.id, u.code, u.nickname, u.shareMode}), nil

	case strings.HasPrefix(q, "INSERT INTO users"):
		u := &memUser{
			id:        m.nextID(),
			code:      args[0].Value.(string),
			nickname:  args[1].Value.(string),
			shareMode: "PRIVATE",
		}
		m.users = append(m.users, u)
		return rows([]string{"id", "friend_code", "nickname", "share_mode"},
			[]driver.Value{u.id, u.code, u.nickname, u.shareMode}), nil

	case strings.HasPrefix(q, "SELECT id FROM users WHERE friend_code"):
		u := m.userByCode(args[0].Value.(string))
		if u == nil {
			return rows(nil), nil
		}
		return rows([]string{"id"}, []driver.Value{u.id}), nil

	case strings.HasPrefix(q, "SELECT id FROM friendships"):
		if m.paired(args[0].Value.(int64), args[1].Value.(int64)) {
			return rows([]string{"id"}, []driver.Value{int64(1)}), nil
		}
		return rows(nil), nil

	case strings.Contains(q, "FROM friendships f"):
		me := args[0].Value.(int64)
		out := rows([]string{"friend_code", "nickname"})
		for i := len(m.pairs) - 1; i >= 0; i-- {
			p := m.pairs[i]
			var other *memUser
			if p.a == me {
				other = m.userByID(p.b)
			} else if p.b == me {
				other = m.userByID(p.a)
			}
			if other != nil {
				out.data = append(out.data, []driver.Value{other.code, other.nickname})
			}
		}
		return out, nil

	case strings.HasPrefix(q, "SELECT fr.id, u.friend_code, fr.created_at"):
		me := args[0].Value.(int64)
		out := rows([]string{"id", "friend_code", "created_at"})
		for i := len(m.requests) - 1; i >= 0; i-- {
			r := m.requests[i]
			if r.to == me && r.status == "PENDING" {
				from := m.userByID(r.from)
				out.data = append(out.data, []driver.Value{r.id, from.code, r.created})
			}
		}
		return out, nil

	case strings.HasPrefix(q, "SELECT from_user_id, to_user_id, status FROM friend_requests"):
		r := m.requestByID(args[0].Value.(int64))
		if r == nil {
			return rows(nil), nil
		}
		return rows([]string{"from_user_id", "to_user_id", "status"},
			[]driver.Value{r.from, r.to, r.status}), nil

	case strings.HasPrefix(q, "SELECT backup_salt, backup_hash FROM users WHERE id"):
		u := m.userByID(args[0].Value.(int64))
		if u == nil {
			return rows(nil), nil
		}
		return rows([]string{"backup_salt", "backup_hash"},
			[]driver.Value{u.salt, u.hash}), nil

	case strings.HasPrefix(q, "SELECT state_json, updated_at FROM state_backups"):
		b, ok := m.backups[args[0].Value.(int64)]
		if !ok {
			return rows(nil), nil
		}
		return rows([]string{"state_json", "updated_at"},
			[]driver.Value{b.json, b.updated}), nil

	case strings.HasPrefix(q, "SELECT id, share_mode FROM users WHERE friend_code"):
		u := m.userByCode(args[0].Value.(string))
		if u == nil {
			return rows(nil), nil
		}
		return rows([]string{"id", "share_mode"}, []driver.Value{u.id, u.shareMode}), nil

	case strings.HasPrefix(q, "SELECT snapshot_json FROM raid_left_snapshots"):
		b, ok := m.snaps[args[0].Value.(int64)]
		if !ok {
			return rows(nil), nil
		}
		return rows([]string{"snapshot_json"}, []driver.Value{b.json}), nil
	}

	return nil, errors.New("unrecognized query: " + q)
}

func (c *memConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	m := c.db
	m.mu.Lock()
	defer m.mu.Unlock()

	q := normalize(query)
	switch {
	case strings.HasPrefix(q, "UPDATE users SET nickname"):
		if u := m.userByID(args[1].Value.(int64)); u != nil {
			u.nickname = args[0].Value.(string)
		}

	case strings.HasPrefix(q, "UPDATE users SET share_mode"):
		if u := m.userByID(args[1].Value.(int64)); u != nil {
			u.shareMode = args[0].Value.(string)
		}

	case strings.HasPrefix(q, "UPDATE users SET backup_salt"):
		if u := m.userByID(args[2].Value.(int64)); u != nil {
			u.salt = append([]byte(nil), args[0].Value.([]byte)...)
			u.hash = append([]byte(nil), args[1].Value.([]byte)...)
		}

	case strings.HasPrefix(q, "INSERT INTO friend_requests"):
		from, to := args[0].Value.(int64), args[1].Value.(int64)
		for _, r := range m.requests {
			if r.from == from && r.to == to && r.status == "PENDING" {
				// Same shape pq returns for the partial unique index.
				return nil, &pq.Error{Code: "23505"}
			}
		}
		m.requests = append(m.requests, &memRequest{
			id: m.nextID(), from: from, to: to, status: "PENDING", created: time.Now(),
		})

	case strings.HasPrefix(q, "INSERT INTO friendships"):
		a, b := args[0].Value.(int64), args[1].Value.(int64)
		if !m.paired(a, b) {
			m.pairs = append(m.pairs, memPair{a: a, b: b, created: time.Now()})
		}

	case strings.HasPrefix(q, "UPDATE friend_requests SET status = 'ACCEPTED'"):
		if r := m.requestByID(args[0].Value.(int64)); r != nil {
			r.status = "ACCEPTED"
		}

	case strings.HasPrefix(q, "UPDATE friend_requests SET status = 'REJECTED'"):
		if r := m.requestByID(args[0].Value.(int64)); r != nil {
			r.status = "REJECTED"
		}

	case strings.HasPrefix(q, "INSERT INTO state_backups"):
		m.backups[args[0].Value.(int64)] = memBlob{json: args[1].Value.(string), updated: time.Now()}

	case strings.HasPrefix(q, "INSERT INTO raid_left_snapshots"):
		m.snaps[args[0].Value.(int64)] = memBlob{json: args[1].Value.(string), updated: time.Now()}

	default:
		return nil, errors.New("unrecognized exec: " + q)
	}

	return driver.RowsAffected(1), nil
}

func newMemServer() (*Server, *memDB) {
	db := newMemDB()
	return New(sql.OpenDB(memConnector{db: db})), db
}
