package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dhkang92/lodo/internal/client"
	"github.com/dhkang92/lodo/internal/todo"
)

// friendsModel talks to the friend/backup service. Every call is
// best-effort: errors land in the status line and local state is never
// touched by a failure.
type friendsModel struct {
	h      *holder
	api    *client.Client
	width  int
	height int

	friends  []client.Friend
	incoming []client.IncomingRequest
	cursor   int
	onList   bool // cursor on friends list vs incoming list
	loaded   bool

	snapshotOf   string
	snapshotText string

	formActive bool
	form       *huh.Form
	formKind   friendsForm

	friendCode *string
	password   *string
}

type friendsForm int

const (
	friendsFormNone friendsForm = iota
	friendsFormRequest
	friendsFormBackupUp
	friendsFormBackupDown
)

func newFriendsModel(h *holder, api *client.Client) friendsModel {
	code, password := "", ""
	return friendsModel{
		h:          h,
		api:        api,
		onList:     true,
		friendCode: &code,
		password:   &password,
	}
}

func (f *friendsModel) setSize(w, h int) {
	f.width = w
	f.height = h
}

func (f friendsModel) refresh() tea.Cmd {
	if f.api == nil {
		return nil
	}
	api := f.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		friends, err := api.Friends(ctx)
		if err != nil {
			return friendsDataMsg{err: err}
		}
		incoming, err := api.IncomingRequests(ctx)
		if err != nil {
			return friendsDataMsg{err: err}
		}
		return friendsDataMsg{friends: friends, incoming: incoming}
	}
}

func (f friendsModel) update(msg tea.Msg) (friendsModel, tea.Cmd) {
	if f.formActive && f.form != nil {
		return f.updateForm(msg)
	}

	switch msg := msg.(type) {
	case friendsDataMsg:
		if msg.err != nil {
			return f, report("Service error: "+msg.err.Error(), "")
		}
		f.friends = msg.friends
		f.incoming = msg.incoming
		f.loaded = true
		f.clampCursor()
		return f, nil

	case snapshotMsg:
		if msg.err != nil {
			return f, report("Snapshot error: "+msg.err.Error(), "")
		}
		f.snapshotOf = msg.friendCode
		f.snapshotText = summarizeSnapshot(msg.snapshot)
		return f, nil

	case syncDoneMsg:
		if msg.err != nil {
			return f, report(msg.err.Error(), "")
		}
		return f, tea.Batch(report("", msg.text), f.refresh())

	case tea.KeyMsg:
		if f.api == nil {
			return f, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			f.cursor--
			f.clampCursor()
		case key.Matches(msg, keys.Down):
			f.cursor++
			f.clampCursor()
		case key.Matches(msg, keys.Tab):
			f.onList = !f.onList
			f.cursor = 0
			f.clampCursor()
		case key.Matches(msg, keys.New):
			return f.showRequestForm()
		case key.Matches(msg, keys.Enter):
			return f.primaryAction()
		case key.Matches(msg, keys.Delete):
			return f.rejectSelected()
		case msg.String() == "u":
			return f, f.uploadSnapshot()
		case msg.String() == "b":
			return f.showBackupForm(friendsFormBackupUp)
		case msg.String() == "B":
			return f.showBackupForm(friendsFormBackupDown)
		}
	}
	return f, nil
}

func (f *friendsModel) clampCursor() {
	if f.onList {
		f.cursor = clampInt(f.cursor, 0, max(0, len(f.friends)-1))
	} else {
		f.cursor = clampInt(f.cursor, 0, max(0, len(f.incoming)-1))
	}
}

// primaryAction accepts the selected incoming request, or fetches the
// selected friend's snapshot.
func (f friendsModel) primaryAction() (friendsModel, tea.Cmd) {
	api := f.api
	if f.onList {
		if f.cursor >= len(f.friends) {
			return f, nil
		}
		code := f.friends[f.cursor].FriendCode
		return f, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			snap, err := api.FetchSnapshot(ctx, code)
			return snapshotMsg{friendCode: code, snapshot: snap, err: err}
		}
	}

	if f.cursor >= len(f.incoming) {
		return f, nil
	}
	id := f.incoming[f.cursor].ID
	return f, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := api.AcceptFriendRequest(ctx, id); err != nil {
			return syncDoneMsg{err: err}
		}
		return syncDoneMsg{text: "Request accepted"}
	}
}

func (f friendsModel) rejectSelected() (friendsModel, tea.Cmd) {
	if f.onList || f.cursor >= len(f.incoming) {
		return f, nil
	}
	api := f.api
	id := f.incoming[f.cursor].ID
	return f, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := api.RejectFriendRequest(ctx, id); err != nil {
			return syncDoneMsg{err: err}
		}
		return syncDoneMsg{text: "Request rejected"}
	}
}

// uploadSnapshot publishes the active roster's remaining weekly chores.
// The snapshot is also kept locally so the last published view survives
// a restart.
func (f friendsModel) uploadSnapshot() tea.Cmd {
	api := f.api
	snapshot := buildRaidLeftSnapshot(f.h)
	if err := f.h.store.SaveRaidLeft([]byte(snapshot)); err != nil {
		return report("Snapshot save failed: "+err.Error(), "")
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := api.UploadSnapshot(ctx, snapshot); err != nil {
			return syncDoneMsg{err: err}
		}
		return syncDoneMsg{text: "Snapshot uploaded"}
	}
}

func (f friendsModel) showRequestForm() (friendsModel, tea.Cmd) {
	*f.friendCode = ""
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Friend code").Value(f.friendCode).Validate(required),
		).Title("Send friend request"),
	).WithShowHelp(true).WithShowErrors(true)
	f.formKind = friendsFormRequest
	f.formActive = true
	return f, f.form.Init()
}

func (f friendsModel) showBackupForm(kind friendsForm) (friendsModel, tea.Cmd) {
	*f.password = ""
	title := "Upload backup"
	if kind == friendsFormBackupDown {
		title = "Restore backup"
	}
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Backup password").EchoMode(huh.EchoModePassword).Value(f.password).Validate(required),
		).Title(title),
	).WithShowHelp(true).WithShowErrors(true)
	f.formKind = kind
	f.formActive = true
	return f, f.form.Init()
}

func (f friendsModel) updateForm(msg tea.Msg) (friendsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		f.formActive = false
		f.form = nil
		f.formKind = friendsFormNone
		return f, nil
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State != huh.StateCompleted {
		return f, cmd
	}

	kind := f.formKind
	f.formActive = false
	f.form = nil
	f.formKind = friendsFormNone

	api := f.api
	switch kind {
	case friendsFormRequest:
		code := strings.TrimSpace(*f.friendCode)
		return f, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := api.SendFriendRequest(ctx, code); err != nil {
				return syncDoneMsg{err: err}
			}
			return syncDoneMsg{text: "Request sent to " + code}
		}

	case friendsFormBackupUp:
		password := *f.password
		data, err := json.Marshal(f.h.state)
		if err != nil {
			return f, report("Backup failed: "+err.Error(), "")
		}
		return f, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := api.UploadBackup(ctx, password, string(data)); err != nil {
				return syncDoneMsg{err: err}
			}
			return syncDoneMsg{text: "Backup uploaded"}
		}

	case friendsFormBackupDown:
		password := *f.password
		return f, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			backup, err := api.DownloadBackup(ctx, password)
			if err != nil {
				return syncDoneMsg{err: err}
			}
			return restoreMsg{stateJSON: backup.StateJSON, updatedAt: backup.UpdatedAt}
		}
	}
	return f, nil
}

// restoreMsg is handled by the root model, which owns the state swap.
type restoreMsg struct {
	stateJSON string
	updatedAt time.Time
}

// buildRaidLeftSnapshot counts unfinished weekly tasks per character in
// the active roster.
func buildRaidLeftSnapshot(h *holder) string {
	state := h.state
	tbl := todo.ActiveTable(state)

	left := map[string]int{}
	for _, task := range state.Tasks {
		if task.Period != todo.PeriodWeekly {
			continue
		}
		for _, ch := range tbl.Characters {
			cell, _ := todo.Cell(state, tbl.ID, task.ID, ch.ID)
			if !isDone(task, cell) {
				left[ch.Name]++
			}
		}
	}

	data, err := json.Marshal(left)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// summarizeSnapshot renders a friend's raid-left counters for display.
func summarizeSnapshot(snapshot string) string {
	var left map[string]int
	if err := json.Unmarshal([]byte(snapshot), &left); err != nil {
		return snapshot
	}
	if len(left) == 0 {
		return "all weekly chores done"
	}
	var parts []string
	for name, n := range left {
		parts = append(parts, fmt.Sprintf("%s: %d left", name, n))
	}
	return strings.Join(parts, ", ")
}

func (f friendsModel) view() string {
	w := f.width - 4

	if f.formActive && f.form != nil {
		return activePanelStyle.Width(w).Render(f.form.View())
	}

	title := titleStyle.Render("Friends")
	var rows []string
	rows = append(rows, title, "")

	if f.api == nil {
		rows = append(rows, mutedStyle.Render("  No service configured."))
		rows = append(rows, mutedStyle.Render("  Set service_url and friend_code in Settings to enable sync."))
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	if !f.loaded {
		rows = append(rows, mutedStyle.Render("  Loading..."))
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	listHeader := "Friends"
	if f.onList {
		listHeader = "Friends (active)"
	}
	rows = append(rows, sectionStyle.Render("  "+listHeader))
	if len(f.friends) == 0 {
		rows = append(rows, mutedStyle.Render("    none yet"))
	}
	for i, fr := range f.friends {
		label := fmt.Sprintf("    %s", fr.Nickname)
		if fr.Nickname == "" || fr.Nickname == fr.FriendCode {
			label = fmt.Sprintf("    %s", fr.FriendCode)
		} else {
			label += mutedStyle.Render(" (" + fr.FriendCode + ")")
		}
		if f.onList && i == f.cursor {
			label = selectedItemStyle.Render(label)
		}
		rows = append(rows, label)
	}

	rows = append(rows, "")
	incomingHeader := "Incoming requests"
	if !f.onList {
		incomingHeader = "Incoming requests (active)"
	}
	rows = append(rows, sectionStyle.Render("  "+incomingHeader))
	if len(f.incoming) == 0 {
		rows = append(rows, mutedStyle.Render("    none"))
	}
	for i, req := range f.incoming {
		label := fmt.Sprintf("    %s  %s", req.FromFriendCode, mutedStyle.Render(req.CreatedAt.Format("Jan 02")))
		if !f.onList && i == f.cursor {
			label = selectedItemStyle.Render(label)
		}
		rows = append(rows, label)
	}

	if f.snapshotOf != "" {
		rows = append(rows, "")
		rows = append(rows, sectionStyle.Render("  "+f.snapshotOf))
		rows = append(rows, "    "+f.snapshotText)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: request  enter: accept/view  d: reject  tab: switch list"))
	rows = append(rows, mutedStyle.Render("  u: upload snapshot  b: upload backup  B: restore backup"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
