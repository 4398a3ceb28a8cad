package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dhkang92/lodo/internal/todo"
)

func sampleState() todo.State {
	tasks := []todo.Task{
		{ID: todo.MainDailyTaskID, Title: "Chaos dungeon", Period: todo.PeriodDaily, CellType: todo.CellCounter, Max: 1},
		{ID: "check", Title: "Guild check-in", Period: todo.PeriodDaily, CellType: todo.CellCheck},
		{ID: "memo", Title: "Cube", Period: todo.PeriodNone, CellType: todo.CellText},
	}
	tbl := todo.Table{
		ID:   "tbl1",
		Name: "Roster 1",
		Characters: []todo.Character{
			{ID: "c1", Name: "Main"},
			{ID: "c2", Name: "Alt"},
		},
		Values:     todo.GridValues{},
		RestGauges: map[string]todo.RestGauge{"c1": {Chaos: 120, Guardian: 40}, "c2": {}},
	}
	s := todo.State{
		Tables:        []todo.Table{tbl},
		ActiveTableID: "tbl1",
		Tasks:         tasks,
		Reset:         todo.ResetState{DailyResetHour: 6, WeeklyResetWeekday: 3},
	}
	s = todo.SetCell(s, "tbl1", todo.MainDailyTaskID, "c1", todo.CellValue{Type: todo.CellCounter, Count: 1})
	s = todo.SetCell(s, "tbl1", "check", "c2", todo.CellValue{Type: todo.CellCheck, Checked: true})
	s = todo.SetCell(s, "tbl1", "memo", "c1", todo.CellValue{Type: todo.CellText, Text: "floor 2"})
	return s
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.csv")

	if err := ToCSV(sampleState(), "tbl1", path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header + 3 tasks + 2 gauge rows
	if len(records) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(records))
	}

	header := records[0]
	want := []string{"Task", "Period", "Section", "Main", "Alt"}
	for i, h := range want {
		if header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], h)
		}
	}

	// Counter with max renders n/max.
	if records[1][3] != "1/1" {
		t.Fatalf("counter cell = %q, want 1/1", records[1][3])
	}
	if records[1][4] != "0/1" {
		t.Fatalf("absent counter cell = %q, want 0/1", records[1][4])
	}

	// Check cells render x or blank.
	if records[2][3] != "" || records[2][4] != "x" {
		t.Fatalf("check cells = %q, %q", records[2][3], records[2][4])
	}

	// Text cell.
	if records[3][3] != "floor 2" {
		t.Fatalf("text cell = %q", records[3][3])
	}

	// Gauge rows.
	if records[4][0] != "Chaos rest" || records[4][3] != "120" {
		t.Fatalf("chaos row = %v", records[4])
	}
	if records[5][0] != "Guardian rest" || records[5][4] != "0" {
		t.Fatalf("guardian row = %v", records[5])
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	s := sampleState()
	s = todo.SetCell(s, "tbl1", "memo", "c2", todo.CellValue{Type: todo.CellText, Text: `notes with "quotes" and, commas`})
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToCSV(s, "tbl1", path); err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("CSV should stay valid with special chars: %v", err)
	}
	if records[3][4] != `notes with "quotes" and, commas` {
		t.Fatalf("text mangled: %q", records[3][4])
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(sampleState(), "tbl1", "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// JSON backup
// ============================================================

func TestToJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	orig := sampleState()

	if err := ToJSON(orig, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if got.ActiveTableID != "tbl1" {
		t.Fatalf("ActiveTableID = %q", got.ActiveTableID)
	}
	if g := got.Tables[0].RestGauges["c1"]; g.Chaos != 120 || g.Guardian != 40 {
		t.Fatalf("gauges = %+v", g)
	}
	if cell, ok := todo.Cell(got, "tbl1", todo.MainDailyTaskID, "c1"); !ok || cell.Count != 1 {
		t.Fatalf("cell = %+v ok=%v", cell, ok)
	}
}

func TestToJSONIsEnvelope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := ToJSON(sampleState(), path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var env struct {
		Version    int             `json:"version"`
		ExportedAt string          `json:"exportedAt"`
		State      json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if env.Version != todo.ExportVersion || env.ExportedAt == "" || env.State == nil {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestImportFileMissing(t *testing.T) {
	if _, err := ImportFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportFileBareState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.json")
	data, err := json.Marshal(sampleState())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if len(got.Tables) != 1 {
		t.Fatalf("tables = %d", len(got.Tables))
	}
}
