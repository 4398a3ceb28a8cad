package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/dhkang92/lodo/internal/todo"
)

// ToCSV writes a human-readable snapshot of one roster's grid: a row
// per task, a column per character, plus the rest gauges at the bottom.
func ToCSV(state todo.State, tableID, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	tbl := todo.TableByID(state, tableID)

	header := []string{"Task", "Period", "Section"}
	for _, ch := range tbl.Characters {
		header = append(header, ch.Name)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, task := range state.Tasks {
		row := []string{task.Title, string(task.Period), task.Section}
		for _, ch := range tbl.Characters {
			cell, ok := todo.Cell(state, tbl.ID, task.ID, ch.ID)
			row = append(row, formatCell(task, cell, ok))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	chaos := []string{"Chaos rest", "", ""}
	guardian := []string{"Guardian rest", "", ""}
	for _, ch := range tbl.Characters {
		g := tbl.RestGauges[ch.ID]
		chaos = append(chaos, strconv.Itoa(g.Chaos))
		guardian = append(guardian, strconv.Itoa(g.Guardian))
	}
	if err := w.Write(chaos); err != nil {
		return err
	}
	if err := w.Write(guardian); err != nil {
		return err
	}

	return w.Error()
}

// formatCell renders one recorded answer for the snapshot. Absent cells
// render as the type's blank form so the grid stays scannable.
func formatCell(task todo.Task, cell todo.CellValue, ok bool) string {
	switch task.CellType {
	case todo.CellCheck:
		if ok && cell.Checked {
			return "x"
		}
		return ""
	case todo.CellCounter:
		n := 0
		if ok {
			n = cell.Count
		}
		if task.Max > 0 {
			return fmt.Sprintf("%d/%d", n, task.Max)
		}
		return strconv.Itoa(n)
	case todo.CellSelect:
		if ok {
			return cell.Value
		}
		return ""
	default:
		if ok {
			return cell.Text
		}
		return ""
	}
}
