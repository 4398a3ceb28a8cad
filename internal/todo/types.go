// Package todo holds the checklist state model and the pure transition
// functions that drive it: cell edits, roster/task CRUD, and the
// daily/weekly reset engine. Nothing in this package performs I/O; the
// caller owns the single State value and persists it after every change.
package todo

import (
	"github.com/google/uuid"
)

// Period classifies how often a task recurs.
type Period string

const (
	PeriodDaily  Period = "DAILY"
	PeriodWeekly Period = "WEEKLY"
	PeriodNone   Period = "NONE"
)

// CellType selects how a task's answer is recorded per character.
type CellType string

const (
	CellCheck   CellType = "CHECK"
	CellCounter CellType = "COUNTER"
	CellText    CellType = "TEXT"
	CellSelect  CellType = "SELECT"
)

// Fixed task ids the rest-gauge updater keys off. These two tasks are
// created by DefaultState and re-created by Normalize if they go missing.
const (
	MainDailyTaskID = "MAIN_DAILY"
	GuardianTaskID  = "GUARDIAN_DAILY"
)

// Rest gauge caps and step sizes. The gauge credits when the activity
// was skipped and debits when it was done, but a debit only applies
// when the gauge holds at least one full step (no partial decrements,
// never negative).
const (
	ChaosGaugeMax       = 200
	ChaosGaugeCredit    = 20
	ChaosGaugeDebit     = 40
	GuardianGaugeMax    = 100
	GuardianGaugeCredit = 10
	GuardianGaugeDebit  = 20
)

// Character is one tracked character within a roster.
type Character struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ItemLevel string `json:"itemLevel,omitempty"`
	Power     string `json:"power,omitempty"`

	// Optional time-boxed buff flag, auto-cleared at expiry.
	BuffEnabled   bool   `json:"buffEnabled,omitempty"`
	BuffExpiresAt string `json:"buffExpiresAt,omitempty"` // RFC 3339
}

// Task is a chore template shared across all rosters.
type Task struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Period   Period   `json:"period"`
	CellType CellType `json:"cellType"`
	Max      int      `json:"max,omitempty"`
	Options  []string `json:"options,omitempty"`
	Section  string   `json:"section,omitempty"`
	Order    int64    `json:"order,omitempty"`
}

// CellValue is one character's answer to one task. Only the field
// matching Type is meaningful; the rest stay at their zero value.
type CellValue struct {
	Type      CellType `json:"type"`
	Checked   bool     `json:"checked,omitempty"`
	Count     int      `json:"count,omitempty"`
	Text      string   `json:"text,omitempty"`
	Value     string   `json:"value,omitempty"`
	UpdatedAt int64    `json:"updatedAt"` // unix milliseconds
}

// GridValues maps task id -> character id -> recorded answer.
type GridValues map[string]map[string]CellValue

// RestGauge holds the two accumulated rest bonuses for one character.
type RestGauge struct {
	Chaos    int `json:"chaos"`    // 0..200
	Guardian int `json:"guardian"` // 0..100
}

// ResetState tracks the configured reset schedule and the last boundary
// actually applied per period. A last-applied value of 0 means "never
// initialized" and triggers the first-run guard in the catch-up scheduler.
type ResetState struct {
	LastDailyResetAt   int64 `json:"lastDailyResetAt"`   // unix milliseconds
	LastWeeklyResetAt  int64 `json:"lastWeeklyResetAt"`  // unix milliseconds
	DailyResetHour     int   `json:"dailyResetHour"`     // 0..23, default 6
	WeeklyResetWeekday int   `json:"weeklyResetWeekday"` // 0=Sunday..6, default 3
}

// Table is a named roster: its characters plus their answers and gauges.
type Table struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Characters []Character          `json:"characters"`
	Values     GridValues           `json:"values"`
	RestGauges map[string]RestGauge `json:"restGauges"`
}

// State is the whole persisted application state.
type State struct {
	Tables        []Table    `json:"tables"`
	ActiveTableID string     `json:"activeTableId"`
	Tasks         []Task     `json:"tasks"`
	Reset         ResetState `json:"reset"`
}

// NewCharacter builds a character with a fresh id.
func NewCharacter(name, itemLevel, power string) Character {
	return Character{
		ID:        "ch_" + uuid.NewString(),
		Name:      name,
		ItemLevel: itemLevel,
		Power:     power,
	}
}

// TaskInput carries the fields for creating a task. ID may be set to
// pin a well-known id (the rest-gauge tasks); it is generated otherwise.
type TaskInput struct {
	ID       string
	Title    string
	Period   Period
	CellType CellType
	Max      int
	Options  []string
	Section  string
	Order    int64
}

// NewTask builds a task template from in, filling id, section and order
// defaults.
func NewTask(in TaskInput) Task {
	id := in.ID
	if id == "" {
		id = "task_" + uuid.NewString()
	}
	section := in.Section
	if section == "" {
		section = "Chores"
	}
	order := in.Order
	if order == 0 {
		order = nowMillis()
	}
	return Task{
		ID:       id,
		Title:    in.Title,
		Period:   in.Period,
		CellType: in.CellType,
		Max:      in.Max,
		Options:  in.Options,
		Section:  section,
		Order:    order,
	}
}

func newTableID() string { return "tbl_" + uuid.NewString() }

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
