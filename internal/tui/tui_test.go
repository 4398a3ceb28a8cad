package tui

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dhkang92/lodo/internal/gems"
	"github.com/dhkang92/lodo/internal/store"
	"github.com/dhkang92/lodo/internal/todo"
)

func newTestHolder(t *testing.T) *holder {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return &holder{store: s, state: todo.DefaultState()}
}

// ============ Holder ============

func TestHolderMutatePersists(t *testing.T) {
	h := newTestHolder(t)

	next := todo.AddTable(h.state, "Alts")
	if errText := h.mutate(next); errText != "" {
		t.Fatalf("mutate: %s", errText)
	}
	if len(h.state.Tables) != 2 {
		t.Fatalf("tables = %d, want 2", len(h.state.Tables))
	}

	data, err := h.store.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	got, err := todo.DecodeState(data)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if len(got.Tables) != 2 {
		t.Fatalf("persisted tables = %d, want 2", len(got.Tables))
	}
	if got.ActiveTableID != h.state.ActiveTableID {
		t.Fatalf("active = %q, want %q", got.ActiveTableID, h.state.ActiveTableID)
	}
}

// ============ Task ordering ============

func TestSortedTasksGroupsBySection(t *testing.T) {
	state := todo.State{
		Tasks: []todo.Task{
			{ID: "a", Title: "A", Section: "Chores", Order: 2},
			{ID: "b", Title: "B", Section: "Raids", Order: 1},
			{ID: "c", Title: "C", Section: "Chores", Order: 1},
			{ID: "d", Title: "D", Section: "Raids", Order: 3},
		},
	}

	got := sortedTasks(state)
	ids := make([]string, len(got))
	for i, task := range got {
		ids[i] = task.ID
	}
	want := []string{"c", "a", "b", "d"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestSortedTasksEmpty(t *testing.T) {
	if got := sortedTasks(todo.State{}); len(got) != 0 {
		t.Fatalf("expected no tasks, got %d", len(got))
	}
}

// ============ Cell rendering ============

func TestCellLabel(t *testing.T) {
	tests := []struct {
		name    string
		task    todo.Task
		cell    todo.CellValue
		present bool
		want    string
	}{
		{"check done", todo.Task{CellType: todo.CellCheck}, todo.CellValue{Checked: true}, true, "[x]"},
		{"check empty", todo.Task{CellType: todo.CellCheck}, todo.CellValue{}, false, "[ ]"},
		{"counter with max", todo.Task{CellType: todo.CellCounter, Max: 3}, todo.CellValue{Count: 2}, true, "2/3"},
		{"counter absent", todo.Task{CellType: todo.CellCounter, Max: 3}, todo.CellValue{}, false, "0/3"},
		{"counter no max", todo.Task{CellType: todo.CellCounter}, todo.CellValue{Count: 7}, true, "7"},
		{"select value", todo.Task{CellType: todo.CellSelect}, todo.CellValue{Value: "done"}, true, "done"},
		{"select empty", todo.Task{CellType: todo.CellSelect}, todo.CellValue{}, false, "-"},
		{"text value", todo.Task{CellType: todo.CellText}, todo.CellValue{Text: "note"}, true, "note"},
		{"text empty", todo.Task{CellType: todo.CellText}, todo.CellValue{}, false, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellLabel(tt.task, tt.cell, tt.present); got != tt.want {
				t.Fatalf("cellLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsDone(t *testing.T) {
	check := todo.Task{CellType: todo.CellCheck}
	counter := todo.Task{CellType: todo.CellCounter, Max: 2}

	if !isDone(check, todo.CellValue{Checked: true}) {
		t.Fatal("checked cell should be done")
	}
	if isDone(check, todo.CellValue{}) {
		t.Fatal("unchecked cell should not be done")
	}
	if !isDone(counter, todo.CellValue{Count: 2}) {
		t.Fatal("counter at max should be done")
	}
	if isDone(counter, todo.CellValue{Count: 1}) {
		t.Fatal("counter below max should not be done")
	}
	if isDone(todo.Task{CellType: todo.CellText}, todo.CellValue{Text: "x"}) {
		t.Fatal("text cells are never done")
	}
}

// ============ Snapshot ============

func TestBuildRaidLeftSnapshot(t *testing.T) {
	h := newTestHolder(t)
	state := todo.State{
		ActiveTableID: "t1",
		Tables: []todo.Table{{
			ID:   "t1",
			Name: "Main",
			Characters: []todo.Character{
				{ID: "c1", Name: "Zed"},
				{ID: "c2", Name: "Ryn"},
			},
		}},
		Tasks: []todo.Task{
			{ID: "w1", Title: "Raid", Period: todo.PeriodWeekly, CellType: todo.CellCheck},
			{ID: "w2", Title: "Boss", Period: todo.PeriodWeekly, CellType: todo.CellCheck},
			{ID: "d1", Title: "Chaos", Period: todo.PeriodDaily, CellType: todo.CellCheck},
		},
	}
	state = todo.SetCell(state, "t1", "w1", "c1", todo.CellValue{Type: todo.CellCheck, Checked: true})
	h.state = state

	var left map[string]int
	if err := json.Unmarshal([]byte(buildRaidLeftSnapshot(h)), &left); err != nil {
		t.Fatalf("snapshot not valid JSON: %v", err)
	}
	if left["Zed"] != 1 {
		t.Fatalf("Zed left = %d, want 1", left["Zed"])
	}
	if left["Ryn"] != 2 {
		t.Fatalf("Ryn left = %d, want 2", left["Ryn"])
	}
}

func TestSummarizeSnapshot(t *testing.T) {
	got := summarizeSnapshot(`{"Zed":2}`)
	if got != "Zed: 2 left" {
		t.Fatalf("summary = %q", got)
	}
	if got := summarizeSnapshot(`{}`); got != "all weekly chores done" {
		t.Fatalf("empty summary = %q", got)
	}
	// Unparseable snapshots pass through untouched.
	if got := summarizeSnapshot("plain text"); got != "plain text" {
		t.Fatalf("passthrough = %q", got)
	}
}

// ============ Client wiring ============

func TestBuildClientRequiresURLAndCode(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	defer s.Close()

	if api, err := buildClient(s); err != nil || api != nil {
		t.Fatalf("expected nil client with no settings, got %v, %v", api, err)
	}

	s.SetSetting(store.SettingServiceURL, "http://localhost:8080")
	if api, err := buildClient(s); err != nil || api != nil {
		t.Fatalf("expected nil client without friend code, got %v, %v", api, err)
	}

	s.SetSetting(store.SettingFriendCode, "code123")
	api, err := buildClient(s)
	if err != nil {
		t.Fatalf("buildClient: %v", err)
	}
	if api == nil {
		t.Fatal("expected client once URL and code are set")
	}
}

func TestBuildClientReportsStoreErrors(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	s.Close()

	if _, err := buildClient(s); err == nil {
		t.Fatal("expected an error from a closed store")
	}
}

// ============ Gem inventory view ============

func TestGemsMutateSheetPersists(t *testing.T) {
	h := newTestHolder(t)
	g := newGemsModel(h, gems.DefaultSheet())

	next := gems.SetCount(g.sheet, 10, "Storage", 4)
	next = gems.SetPrice(next, 10, 35)
	if errText := g.mutateSheet(next); errText != "" {
		t.Fatalf("mutateSheet: %s", errText)
	}

	data, err := h.store.LoadGems()
	if err != nil {
		t.Fatalf("LoadGems: %v", err)
	}
	got, err := gems.DecodeSheet(data)
	if err != nil {
		t.Fatalf("DecodeSheet: %v", err)
	}
	if gems.Count(got, 10, "Storage") != 4 {
		t.Fatalf("persisted count = %d, want 4", gems.Count(got, 10, "Storage"))
	}
	if gems.Price(got, 10) != 35 {
		t.Fatalf("persisted price = %v, want 35", gems.Price(got, 10))
	}
}

func TestGemsBumpClampsAtZero(t *testing.T) {
	h := newTestHolder(t)
	g := newGemsModel(h, gems.DefaultSheet())

	g, _ = g.bump(-1)
	if got := gems.Count(g.sheet, 10, "Storage"); got != 0 {
		t.Fatalf("count after decrement from zero = %d", got)
	}
	g, _ = g.bump(1)
	g, _ = g.bump(1)
	if got := gems.Count(g.sheet, 10, "Storage"); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
}

func TestValidAmount(t *testing.T) {
	if err := validAmount("12.5"); err != nil {
		t.Fatalf("12.5 rejected: %v", err)
	}
	if err := validAmount(" 0 "); err != nil {
		t.Fatalf("0 rejected: %v", err)
	}
	if err := validAmount("-3"); err == nil {
		t.Fatal("negative accepted")
	}
	if err := validAmount("abc"); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{12.5, "12.5"},
		{40, "40"},
		{1500, "1,500"},
		{1234567.25, "1,234,567.25"},
		{99.999, "100"},
	}
	for _, tt := range tests {
		if got := formatAmount(tt.in); got != tt.want {
			t.Errorf("formatAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ============ Formatting helpers ============

func TestFormatGold(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0g"},
		{999, "999g"},
		{1500, "1,500g"},
		{1234567, "1,234,567g"},
		{-1500, "-1,500g"},
	}
	for _, tt := range tests {
		if got := formatGold(tt.in); got != tt.want {
			t.Errorf("formatGold(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	if got := formatCountdown(90 * time.Minute); got != "1h30m" {
		t.Fatalf("90m = %q", got)
	}
	if got := formatCountdown(45 * time.Minute); got != "45m" {
		t.Fatalf("45m = %q", got)
	}
	if got := formatCountdown(-time.Minute); got != "0m" {
		t.Fatalf("negative = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate short = %q", got)
	}
	got := truncate("a very long character name", 10)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if n := len([]rune(got)); n != 10 {
		t.Fatalf("rune length = %d, want 10", n)
	}
}

func TestClampInt(t *testing.T) {
	if got := clampInt(5, 0, 3); got != 3 {
		t.Fatalf("clamp above = %d", got)
	}
	if got := clampInt(-1, 0, 3); got != 0 {
		t.Fatalf("clamp below = %d", got)
	}
	if got := clampInt(2, 0, 3); got != 2 {
		t.Fatalf("clamp inside = %d", got)
	}
}
