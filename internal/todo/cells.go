package todo

// ActiveTable returns the roster the UI is currently showing, falling
// back to the first roster when the active id is stale.
func ActiveTable(state State) Table {
	return TableByID(state, state.ActiveTableID)
}

// TableByID returns the roster with the given id, or the first roster
// if no such id exists. State always holds at least one roster.
func TableByID(state State, tableID string) Table {
	for _, t := range state.Tables {
		if t.ID == tableID {
			return t
		}
	}
	return state.Tables[0]
}

// Cell returns the recorded answer for (task, character) in the given
// roster, and whether one has been recorded at all. An absent cell
// reads as the task's type-appropriate zero answer.
func Cell(state State, tableID, taskID, charID string) (CellValue, bool) {
	tbl := TableByID(state, tableID)
	row, ok := tbl.Values[taskID]
	if !ok {
		return CellValue{}, false
	}
	cell, ok := row[charID]
	return cell, ok
}

// SetCell records value as the character's answer to the task in the
// given roster, returning a new state. Untouched rosters and rows are
// shared with the input state.
func SetCell(state State, tableID, taskID, charID string, value CellValue) State {
	value.UpdatedAt = nowMillis()

	tables := make([]Table, len(state.Tables))
	copy(tables, state.Tables)
	for i, tbl := range tables {
		if tbl.ID != tableID {
			continue
		}
		values := make(GridValues, len(tbl.Values)+1)
		for k, v := range tbl.Values {
			values[k] = v
		}
		row := make(map[string]CellValue, len(values[taskID])+1)
		for k, v := range values[taskID] {
			row[k] = v
		}
		row[charID] = value
		values[taskID] = row
		tbl.Values = values
		tables[i] = tbl
		break
	}
	state.Tables = tables
	return state
}

// ClearCell removes the recorded answer for (task, character), if any.
func ClearCell(state State, tableID, taskID, charID string) State {
	tables := make([]Table, len(state.Tables))
	copy(tables, state.Tables)
	for i, tbl := range tables {
		if tbl.ID != tableID {
			continue
		}
		row, ok := tbl.Values[taskID]
		if !ok {
			break
		}
		values := make(GridValues, len(tbl.Values))
		for k, v := range tbl.Values {
			values[k] = v
		}
		newRow := make(map[string]CellValue, len(row))
		for k, v := range row {
			if k != charID {
				newRow[k] = v
			}
		}
		values[taskID] = newRow
		tbl.Values = values
		tables[i] = tbl
		break
	}
	state.Tables = tables
	return state
}
