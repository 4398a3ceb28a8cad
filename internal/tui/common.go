package tui

import (
	"encoding/json"
	"time"

	"github.com/dhkang92/lodo/internal/client"
	"github.com/dhkang92/lodo/internal/store"
	"github.com/dhkang92/lodo/internal/todo"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTracker viewState = iota
	viewGauges
	viewGems
	viewBid
	viewFriends
	viewSettings
)

var viewNames = []string{"Tracker", "Gauges", "Gems", "Bid", "Friends", "Settings"}

// holder owns the single live State. Views share it by pointer and
// write back through the todo transition functions, saving after every
// mutation.
type holder struct {
	store *store.Store
	state todo.State
}

// mutate replaces the state and persists it. The save error, if any,
// is reported once through the returned text.
func (h *holder) mutate(next todo.State) string {
	h.state = next
	return h.save()
}

func (h *holder) save() string {
	data, err := json.Marshal(h.state)
	if err != nil {
		return "Save failed: " + err.Error()
	}
	if err := h.store.SaveState(data); err != nil {
		return "Save failed: " + err.Error()
	}
	return ""
}

// --- Messages ---

type tickMsg time.Time

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

type friendsDataMsg struct {
	friends  []client.Friend
	incoming []client.IncomingRequest
	err      error
}

type snapshotMsg struct {
	friendCode string
	snapshot   string
	err        error
}

type syncDoneMsg struct {
	text string
	err  error
}

// --- Helpers ---

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

var weekdayNames = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

func weekdayName(d int) string {
	if d < 0 || d >= len(weekdayNames) {
		return "?"
	}
	return weekdayNames[d]
}
