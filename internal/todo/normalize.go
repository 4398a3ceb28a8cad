package todo

import (
	"encoding/json"
	"fmt"
)

// rawState accepts both the current multi-roster shape and the legacy
// single-roster shape in one pass. Pointer fields distinguish "absent"
// from a genuine zero.
type rawState struct {
	Tables        []Table   `json:"tables"`
	ActiveTableID string    `json:"activeTableId"`
	Tasks         []Task    `json:"tasks"`
	Reset         *rawReset `json:"reset"`

	// Legacy single-roster fields.
	Characters []Character          `json:"characters"`
	Values     GridValues           `json:"values"`
	RestGauges map[string]RestGauge `json:"restGauges"`
}

type rawReset struct {
	LastDailyResetAt   *int64 `json:"lastDailyResetAt"`
	LastWeeklyResetAt  *int64 `json:"lastWeeklyResetAt"`
	DailyResetHour     *int   `json:"dailyResetHour"`
	WeeklyResetWeekday *int   `json:"weeklyResetWeekday"`

	// Misspelled field name shipped in an early version.
	WeeklyResetday *int `json:"weeklyResetday"`
}

func (r *rawReset) normalize() ResetState {
	out := ResetState{
		DailyResetHour:     DefaultDailyResetHour,
		WeeklyResetWeekday: DefaultWeeklyResetWeekday,
	}
	if r == nil {
		return out
	}
	if r.LastDailyResetAt != nil {
		out.LastDailyResetAt = *r.LastDailyResetAt
	}
	if r.LastWeeklyResetAt != nil {
		out.LastWeeklyResetAt = *r.LastWeeklyResetAt
	}
	if r.DailyResetHour != nil {
		out.DailyResetHour = clamp(*r.DailyResetHour, 0, 23)
	}
	switch {
	case r.WeeklyResetWeekday != nil:
		out.WeeklyResetWeekday = clamp(*r.WeeklyResetWeekday, 0, 6)
	case r.WeeklyResetday != nil:
		out.WeeklyResetWeekday = clamp(*r.WeeklyResetday, 0, 6)
	}
	return out
}

// DecodeState parses a persisted or imported state blob and normalizes
// it. Both the current multi-roster shape and the legacy single-roster
// shape are accepted; older blobs get missing fields backfilled.
func DecodeState(data []byte) (State, error) {
	var raw rawState
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, fmt.Errorf("parse state: %w", err)
	}
	return normalizeRaw(raw), nil
}

func normalizeRaw(raw rawState) State {
	if raw.Tables == nil {
		return normalizeLegacy(raw)
	}

	st := State{
		Tables:        raw.Tables,
		ActiveTableID: raw.ActiveTableID,
		Tasks:         raw.Tasks,
		Reset:         raw.Reset.normalize(),
	}
	return finishNormalize(st)
}

// normalizeLegacy migrates the pre-roster shape: one implicit table
// holding all characters.
func normalizeLegacy(raw rawState) State {
	tbl := Table{
		ID:         newTableID(),
		Name:       "Roster 1",
		Characters: raw.Characters,
		Values:     raw.Values,
		RestGauges: raw.RestGauges,
	}
	st := State{
		Tables:        []Table{tbl},
		ActiveTableID: tbl.ID,
		Tasks:         raw.Tasks,
		Reset:         raw.Reset.normalize(),
	}
	if len(st.Tasks) == 0 {
		st.Tasks = DefaultState().Tasks
	}
	return finishNormalize(st)
}

func finishNormalize(st State) State {
	if st.Tasks == nil {
		st.Tasks = []Task{}
	}
	ensureStockTasks(&st)

	if len(st.Tables) == 0 {
		return DefaultState()
	}

	valid := false
	for _, t := range st.Tables {
		if t.ID == st.ActiveTableID {
			valid = true
			break
		}
	}
	if !valid {
		st.ActiveTableID = st.Tables[0].ID
	}

	for i, tbl := range st.Tables {
		if tbl.Name == "" {
			tbl.Name = "Roster"
		}
		if tbl.Characters == nil {
			tbl.Characters = []Character{}
		}
		if tbl.Values == nil {
			tbl.Values = GridValues{}
		}

		gauges := make(map[string]RestGauge, len(tbl.Characters))
		for k, v := range tbl.RestGauges {
			gauges[k] = v
		}
		for _, ch := range tbl.Characters {
			cur, ok := gauges[ch.ID]
			if !ok {
				gauges[ch.ID] = RestGauge{}
				continue
			}
			gauges[ch.ID] = RestGauge{
				Chaos:    clamp(cur.Chaos, 0, ChaosGaugeMax),
				Guardian: clamp(cur.Guardian, 0, GuardianGaugeMax),
			}
		}
		tbl.RestGauges = gauges

		st.Tables[i] = tbl
	}

	return st
}

// ensureStockTasks re-adds templates that older saves predate: the Cube
// memo row and the first weekly raid act.
func ensureStockTasks(st *State) {
	hasCube := false
	hasAct1 := false
	for _, t := range st.Tasks {
		if t.Title == "Cube" && t.Period == PeriodNone {
			hasCube = true
		}
		if t.Title == "Act 1" && t.Period == PeriodWeekly && t.Section == "Weekly raids" {
			hasAct1 = true
		}
	}
	if !hasCube {
		st.Tasks = append(st.Tasks, NewTask(TaskInput{Title: "Cube", Period: PeriodNone, CellType: CellText, Section: "Misc"}))
	}
	if !hasAct1 {
		st.Tasks = append(st.Tasks, NewTask(TaskInput{Title: "Act 1", Period: PeriodWeekly, CellType: CellCheck, Section: "Weekly raids", Order: 1}))
	}
}
