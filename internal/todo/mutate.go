package todo

import (
	"errors"
	"fmt"
	"time"
)

// ErrLastTable is returned when deleting the only remaining roster.
var ErrLastTable = errors.New("cannot delete the last roster")

// AddTable appends a new empty roster and makes it active.
func AddTable(state State, name string) State {
	if name == "" {
		name = fmt.Sprintf("Roster %d", len(state.Tables)+1)
	}
	tbl := Table{
		ID:         newTableID(),
		Name:       name,
		Characters: []Character{},
		Values:     GridValues{},
		RestGauges: map[string]RestGauge{},
	}
	tables := make([]Table, len(state.Tables), len(state.Tables)+1)
	copy(tables, state.Tables)
	state.Tables = append(tables, tbl)
	state.ActiveTableID = tbl.ID
	return state
}

// RenameTable sets the roster's display name.
func RenameTable(state State, tableID, name string) State {
	tables := make([]Table, len(state.Tables))
	copy(tables, state.Tables)
	for i, tbl := range tables {
		if tbl.ID == tableID {
			tbl.Name = name
			tables[i] = tbl
			break
		}
	}
	state.Tables = tables
	return state
}

// DeleteTable removes a roster. Deleting the last roster is forbidden.
func DeleteTable(state State, tableID string) (State, error) {
	if len(state.Tables) <= 1 {
		return state, ErrLastTable
	}
	tables := make([]Table, 0, len(state.Tables)-1)
	for _, tbl := range state.Tables {
		if tbl.ID != tableID {
			tables = append(tables, tbl)
		}
	}
	if len(tables) == len(state.Tables) {
		return state, fmt.Errorf("no roster with id %q", tableID)
	}
	state.Tables = tables
	if state.ActiveTableID == tableID {
		state.ActiveTableID = tables[0].ID
	}
	return state, nil
}

// SetActiveTable switches which roster the UI shows.
func SetActiveTable(state State, tableID string) State {
	for _, tbl := range state.Tables {
		if tbl.ID == tableID {
			state.ActiveTableID = tableID
			break
		}
	}
	return state
}

// AddCharacter appends ch to the roster and seeds its rest gauges.
func AddCharacter(state State, tableID string, ch Character) State {
	tables := make([]Table, len(state.Tables))
	copy(tables, state.Tables)
	for i, tbl := range tables {
		if tbl.ID != tableID {
			continue
		}
		chars := make([]Character, len(tbl.Characters), len(tbl.Characters)+1)
		copy(chars, tbl.Characters)
		tbl.Characters = append(chars, ch)

		gauges := make(map[string]RestGauge, len(tbl.RestGauges)+1)
		for k, v := range tbl.RestGauges {
			gauges[k] = v
		}
		gauges[ch.ID] = RestGauge{}
		tbl.RestGauges = gauges

		tables[i] = tbl
		break
	}
	state.Tables = tables
	return state
}

// UpdateCharacter replaces the character with the same id.
func UpdateCharacter(state State, tableID string, ch Character) State {
	tables := make([]Table, len(state.Tables))
	copy(tables, state.Tables)
	for i, tbl := range tables {
		if tbl.ID != tableID {
			continue
		}
		chars := make([]Character, len(tbl.Characters))
		copy(chars, tbl.Characters)
		for j, c := range chars {
			if c.ID == ch.ID {
				chars[j] = ch
				break
			}
		}
		tbl.Characters = chars
		tables[i] = tbl
		break
	}
	state.Tables = tables
	return state
}

// DeleteCharacter removes the character and cascades: its cell values
// and rest gauge entry go with it.
func DeleteCharacter(state State, tableID, charID string) State {
	tables := make([]Table, len(state.Tables))
	copy(tables, state.Tables)
	for i, tbl := range tables {
		if tbl.ID != tableID {
			continue
		}
		chars := make([]Character, 0, len(tbl.Characters))
		for _, c := range tbl.Characters {
			if c.ID != charID {
				chars = append(chars, c)
			}
		}
		tbl.Characters = chars

		values := make(GridValues, len(tbl.Values))
		for taskID, row := range tbl.Values {
			if _, ok := row[charID]; !ok {
				values[taskID] = row
				continue
			}
			newRow := make(map[string]CellValue, len(row))
			for k, v := range row {
				if k != charID {
					newRow[k] = v
				}
			}
			values[taskID] = newRow
		}
		tbl.Values = values

		gauges := make(map[string]RestGauge, len(tbl.RestGauges))
		for k, v := range tbl.RestGauges {
			if k != charID {
				gauges[k] = v
			}
		}
		tbl.RestGauges = gauges

		tables[i] = tbl
		break
	}
	state.Tables = tables
	return state
}

// AddTask appends a task template shared across all rosters.
func AddTask(state State, t Task) State {
	tasks := make([]Task, len(state.Tasks), len(state.Tasks)+1)
	copy(tasks, state.Tasks)
	state.Tasks = append(tasks, t)
	return state
}

// UpdateTask replaces the task with the same id.
func UpdateTask(state State, t Task) State {
	tasks := make([]Task, len(state.Tasks))
	copy(tasks, state.Tasks)
	for i, cur := range tasks {
		if cur.ID == t.ID {
			tasks[i] = t
			break
		}
	}
	state.Tasks = tasks
	return state
}

// DeleteTask removes the template and cascades: every roster drops its
// recorded answers for that task.
func DeleteTask(state State, taskID string) State {
	tasks := make([]Task, 0, len(state.Tasks))
	for _, t := range state.Tasks {
		if t.ID != taskID {
			tasks = append(tasks, t)
		}
	}
	state.Tasks = tasks

	tables := make([]Table, len(state.Tables))
	for i, tbl := range state.Tables {
		if _, ok := tbl.Values[taskID]; ok {
			values := make(GridValues, len(tbl.Values))
			for k, v := range tbl.Values {
				if k != taskID {
					values[k] = v
				}
			}
			tbl.Values = values
		}
		tables[i] = tbl
	}
	state.Tables = tables
	return state
}

// SetRestGauge overwrites one character's gauges with clamped values.
// Direct user input is the only mutation path besides the daily updater.
func SetRestGauge(state State, tableID, charID string, chaos, guardian int) State {
	tables := make([]Table, len(state.Tables))
	copy(tables, state.Tables)
	for i, tbl := range tables {
		if tbl.ID != tableID {
			continue
		}
		gauges := make(map[string]RestGauge, len(tbl.RestGauges)+1)
		for k, v := range tbl.RestGauges {
			gauges[k] = v
		}
		gauges[charID] = RestGauge{
			Chaos:    clamp(chaos, 0, ChaosGaugeMax),
			Guardian: clamp(guardian, 0, GuardianGaugeMax),
		}
		tbl.RestGauges = gauges
		tables[i] = tbl
		break
	}
	state.Tables = tables
	return state
}

// SetCharacterBuff enables or disables a character's timed buff flag.
// expiresAt is ignored when enabled is false.
func SetCharacterBuff(state State, tableID, charID string, enabled bool, expiresAt time.Time) State {
	tbl := TableByID(state, tableID)
	for _, c := range tbl.Characters {
		if c.ID != charID {
			continue
		}
		c.BuffEnabled = enabled
		if enabled {
			c.BuffExpiresAt = expiresAt.Format(time.RFC3339)
		} else {
			c.BuffExpiresAt = ""
		}
		return UpdateCharacter(state, tableID, c)
	}
	return state
}

// ClearExpiredBuffs drops every buff flag whose expiry is at or before
// now. Unparseable expiry strings are treated as expired.
func ClearExpiredBuffs(state State, now time.Time) State {
	tables := make([]Table, len(state.Tables))
	copy(tables, state.Tables)
	for i, tbl := range tables {
		changed := false
		chars := make([]Character, len(tbl.Characters))
		copy(chars, tbl.Characters)
		for j, c := range chars {
			if !c.BuffEnabled {
				continue
			}
			exp, err := time.Parse(time.RFC3339, c.BuffExpiresAt)
			if err == nil && exp.After(now) {
				continue
			}
			c.BuffEnabled = false
			c.BuffExpiresAt = ""
			chars[j] = c
			changed = true
		}
		if changed {
			tbl.Characters = chars
			tables[i] = tbl
		}
	}
	state.Tables = tables
	return state
}

// NextBuffExpiry reports the earliest future buff expiry across all
// rosters, for scheduling the next sweep. ok is false when none is set.
func NextBuffExpiry(state State, now time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	for _, tbl := range state.Tables {
		for _, c := range tbl.Characters {
			if !c.BuffEnabled {
				continue
			}
			exp, err := time.Parse(time.RFC3339, c.BuffExpiresAt)
			if err != nil || !exp.After(now) {
				continue
			}
			if !found || exp.Before(next) {
				next = exp
				found = true
			}
		}
	}
	return next, found
}
