package todo

import (
	"encoding/json"
	"testing"
)

func taskByTitle(t *testing.T, s State, title string) Task {
	t.Helper()
	for _, task := range s.Tasks {
		if task.Title == title {
			return task
		}
	}
	t.Fatalf("no task titled %q", title)
	return Task{}
}

// ============================================================
// Current shape
// ============================================================

func TestDecodeStateRoundTrip(t *testing.T) {
	orig := newTestState()
	orig = setCounter(orig, MainDailyTaskID, "ch1", 1)
	orig = setGauge(orig, "ch1", 120, 60)

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := DecodeState(data)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}

	if got.ActiveTableID != "tbl1" {
		t.Fatalf("ActiveTableID = %q", got.ActiveTableID)
	}
	if g := gaugeOf(t, got, "ch1"); g.Chaos != 120 || g.Guardian != 60 {
		t.Fatalf("gauges = %+v", g)
	}
	if cell, ok := Cell(got, "tbl1", MainDailyTaskID, "ch1"); !ok || cell.Count != 1 {
		t.Fatalf("cell = %+v ok=%v", cell, ok)
	}
}

func TestDecodeStateRejectsGarbage(t *testing.T) {
	if _, err := DecodeState([]byte("{not json")); err == nil {
		t.Fatal("want error for malformed JSON")
	}
}

func TestDecodeStateDefaultsMissingReset(t *testing.T) {
	got, err := DecodeState([]byte(`{"tables":[{"id":"t1","name":"R"}],"activeTableId":"t1","tasks":[]}`))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if got.Reset.DailyResetHour != DefaultDailyResetHour {
		t.Fatalf("DailyResetHour = %d, want %d", got.Reset.DailyResetHour, DefaultDailyResetHour)
	}
	if got.Reset.WeeklyResetWeekday != DefaultWeeklyResetWeekday {
		t.Fatalf("WeeklyResetWeekday = %d, want %d", got.Reset.WeeklyResetWeekday, DefaultWeeklyResetWeekday)
	}
	if got.Reset.LastDailyResetAt != 0 {
		t.Fatal("absent stamp must normalize to 0, not a default")
	}
}

func TestDecodeStateKeepsExplicitZeroHour(t *testing.T) {
	// Midnight reset is a legitimate setting and must not be replaced by
	// the default.
	got, err := DecodeState([]byte(`{"tables":[{"id":"t1","name":"R"}],"activeTableId":"t1","tasks":[],"reset":{"dailyResetHour":0,"weeklyResetWeekday":0}}`))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if got.Reset.DailyResetHour != 0 {
		t.Fatalf("DailyResetHour = %d, want 0", got.Reset.DailyResetHour)
	}
	if got.Reset.WeeklyResetWeekday != 0 {
		t.Fatalf("WeeklyResetWeekday = %d, want 0", got.Reset.WeeklyResetWeekday)
	}
}

func TestDecodeStateClampsReset(t *testing.T) {
	got, err := DecodeState([]byte(`{"tables":[{"id":"t1","name":"R"}],"activeTableId":"t1","tasks":[],"reset":{"dailyResetHour":99,"weeklyResetWeekday":-3}}`))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if got.Reset.DailyResetHour != 23 {
		t.Fatalf("DailyResetHour = %d, want clamped 23", got.Reset.DailyResetHour)
	}
	if got.Reset.WeeklyResetWeekday != 0 {
		t.Fatalf("WeeklyResetWeekday = %d, want clamped 0", got.Reset.WeeklyResetWeekday)
	}
}

func TestDecodeStateStaleActiveID(t *testing.T) {
	got, err := DecodeState([]byte(`{"tables":[{"id":"t1","name":"R"}],"activeTableId":"gone","tasks":[]}`))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if got.ActiveTableID != "t1" {
		t.Fatalf("ActiveTableID = %q, want fallback t1", got.ActiveTableID)
	}
}

func TestDecodeStateEmptyTables(t *testing.T) {
	got, err := DecodeState([]byte(`{"tables":[],"activeTableId":"","tasks":[]}`))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if len(got.Tables) == 0 {
		t.Fatal("empty tables should fall back to the default state")
	}
}

func TestDecodeStateClampsGaugesAndSeedsMissing(t *testing.T) {
	blob := `{"tables":[{"id":"t1","name":"R","characters":[{"id":"a","name":"A"},{"id":"b","name":"B"}],"restGauges":{"a":{"chaos":999,"guardian":-5}}}],"activeTableId":"t1","tasks":[]}`
	got, err := DecodeState([]byte(blob))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if g := got.Tables[0].RestGauges["a"]; g.Chaos != ChaosGaugeMax || g.Guardian != 0 {
		t.Fatalf("gauge a = %+v, want clamped", g)
	}
	if _, ok := got.Tables[0].RestGauges["b"]; !ok {
		t.Fatal("character b should get a zero gauge seeded")
	}
}

// ============================================================
// Legacy single-roster shape
// ============================================================

func TestDecodeStateLegacyMigration(t *testing.T) {
	blob := `{
		"characters":[{"id":"c1","name":"Old main"}],
		"values":{"MAIN_DAILY":{"c1":{"type":"COUNTER","count":1,"updatedAt":5}}},
		"restGauges":{"c1":{"chaos":80,"guardian":40}},
		"tasks":[{"id":"MAIN_DAILY","title":"Chaos dungeon","period":"DAILY","cellType":"COUNTER","max":1}],
		"reset":{"lastDailyResetAt":1000,"dailyResetHour":5,"weeklyResetday":2}
	}`
	got, err := DecodeState([]byte(blob))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}

	if len(got.Tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(got.Tables))
	}
	tbl := got.Tables[0]
	if got.ActiveTableID != tbl.ID {
		t.Fatal("migrated table should be active")
	}
	if len(tbl.Characters) != 1 || tbl.Characters[0].Name != "Old main" {
		t.Fatalf("characters = %+v", tbl.Characters)
	}
	if cell := tbl.Values[MainDailyTaskID]["c1"]; cell.Count != 1 {
		t.Fatalf("migrated cell = %+v", cell)
	}
	if g := tbl.RestGauges["c1"]; g.Chaos != 80 || g.Guardian != 40 {
		t.Fatalf("migrated gauges = %+v", g)
	}
	if got.Reset.LastDailyResetAt != 1000 || got.Reset.DailyResetHour != 5 {
		t.Fatalf("reset = %+v", got.Reset)
	}
	// The misspelled legacy field still counts.
	if got.Reset.WeeklyResetWeekday != 2 {
		t.Fatalf("WeeklyResetWeekday = %d, want 2 from weeklyResetday", got.Reset.WeeklyResetWeekday)
	}
}

func TestDecodeStateLegacyEmptyTasksGetDefaults(t *testing.T) {
	got, err := DecodeState([]byte(`{"characters":[{"id":"c1","name":"A"}]}`))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if len(got.Tasks) == 0 {
		t.Fatal("legacy state without tasks should get the default templates")
	}
	taskByTitle(t, got, "Chaos dungeon")
	taskByTitle(t, got, "Guardian raid")
}

// ============================================================
// Stock task backfill
// ============================================================

func TestDecodeStateBackfillsStockTasks(t *testing.T) {
	blob := `{"tables":[{"id":"t1","name":"R"}],"activeTableId":"t1","tasks":[{"id":"x","title":"Something","period":"DAILY","cellType":"CHECK"}]}`
	got, err := DecodeState([]byte(blob))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}

	cube := taskByTitle(t, got, "Cube")
	if cube.Period != PeriodNone || cube.CellType != CellText {
		t.Fatalf("Cube = %+v", cube)
	}
	act := taskByTitle(t, got, "Act 1")
	if act.Period != PeriodWeekly || act.Section != "Weekly raids" {
		t.Fatalf("Act 1 = %+v", act)
	}
}

func TestDecodeStateDoesNotDuplicateStockTasks(t *testing.T) {
	s := DefaultState()
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := DecodeState(data)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if len(got.Tasks) != len(s.Tasks) {
		t.Fatalf("tasks %d -> %d, backfill must be idempotent", len(s.Tasks), len(got.Tasks))
	}
}
