package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dhkang92/lodo/internal/todo"
)

// trackerModel is the main grid: one row per task, one column per
// character in the active roster.
type trackerModel struct {
	h      *holder
	width  int
	height int

	row int
	col int

	formActive bool
	form       *huh.Form
	formKind   trackerForm

	// Form values as pointers (survive value copies)
	action      *string
	charName    *string
	charItem    *string
	charPower   *string
	taskTitle   *string
	taskPeriod  *string
	taskType    *string
	taskSection *string
	taskMax     *string
	textValue   *string
	buffHours   *string
	rosterName  *string

	editingCharID string
}

type trackerForm int

const (
	formNone trackerForm = iota
	formAction
	formNewCharacter
	formEditCharacter
	formNewTask
	formTextCell
	formBuff
	formRenameRoster
	formNewRoster
)

func newTrackerModel(h *holder) trackerModel {
	var (
		action, charName, charItem, charPower        string
		taskTitle, taskPeriod, taskType, taskSection string
		taskMax, textValue, buffHours, rosterName    string
	)
	return trackerModel{
		h:           h,
		action:      &action,
		charName:    &charName,
		charItem:    &charItem,
		charPower:   &charPower,
		taskTitle:   &taskTitle,
		taskPeriod:  &taskPeriod,
		taskType:    &taskType,
		taskSection: &taskSection,
		taskMax:     &taskMax,
		textValue:   &textValue,
		buffHours:   &buffHours,
		rosterName:  &rosterName,
	}
}

func (t *trackerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

// sortedTasks returns the task templates grouped by section in order of
// first appearance, ordered by Order within each section.
func sortedTasks(state todo.State) []todo.Task {
	var sections []string
	bySection := map[string][]todo.Task{}
	for _, task := range state.Tasks {
		if _, ok := bySection[task.Section]; !ok {
			sections = append(sections, task.Section)
		}
		bySection[task.Section] = append(bySection[task.Section], task)
	}

	var out []todo.Task
	for _, sec := range sections {
		tasks := bySection[sec]
		for i := 1; i < len(tasks); i++ {
			for j := i; j > 0 && tasks[j].Order < tasks[j-1].Order; j-- {
				tasks[j], tasks[j-1] = tasks[j-1], tasks[j]
			}
		}
		out = append(out, tasks...)
	}
	return out
}

func (t *trackerModel) clampCursor() {
	tasks := sortedTasks(t.h.state)
	chars := todo.ActiveTable(t.h.state).Characters
	t.row = clampInt(t.row, 0, max(0, len(tasks)-1))
	t.col = clampInt(t.col, 0, max(0, len(chars)-1))
}

func (t *trackerModel) current() (todo.Task, todo.Character, bool) {
	tasks := sortedTasks(t.h.state)
	chars := todo.ActiveTable(t.h.state).Characters
	if len(tasks) == 0 || len(chars) == 0 {
		return todo.Task{}, todo.Character{}, false
	}
	t.clampCursor()
	return tasks[t.row], chars[t.col], true
}

func (t trackerModel) update(msg tea.Msg) (trackerModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		t.row--
		t.clampCursor()
	case key.Matches(keyMsg, keys.Down):
		t.row++
		t.clampCursor()
	case key.Matches(keyMsg, keys.Left):
		t.col--
		t.clampCursor()
	case key.Matches(keyMsg, keys.Right):
		t.col++
		t.clampCursor()

	case key.Matches(keyMsg, keys.Toggle):
		return t.toggleCell()
	case key.Matches(keyMsg, keys.Increment):
		return t.bumpCounter(1)
	case key.Matches(keyMsg, keys.Decrement):
		return t.bumpCounter(-1)

	case key.Matches(keyMsg, keys.New):
		return t.showNewCharacterForm()
	case key.Matches(keyMsg, keys.NewTask):
		return t.showNewTaskForm()
	case key.Matches(keyMsg, keys.Edit), key.Matches(keyMsg, keys.Delete):
		return t.showActionMenu()

	case key.Matches(keyMsg, keys.Reset):
		errText := t.h.mutate(todo.RunDailyResetNow(t.h.state, true))
		return t, report(errText, "Daily reset applied")

	case key.Matches(keyMsg, keys.Roster):
		return t.nextRoster()
	}
	return t, nil
}

func report(errText, okText string) tea.Cmd {
	return func() tea.Msg {
		if errText != "" {
			return statusMsg{text: errText, isError: true}
		}
		return statusMsg{text: okText}
	}
}

func (t trackerModel) toggleCell() (trackerModel, tea.Cmd) {
	task, ch, ok := t.current()
	if !ok {
		return t, nil
	}
	tbl := todo.ActiveTable(t.h.state)
	cell, _ := todo.Cell(t.h.state, tbl.ID, task.ID, ch.ID)

	switch task.CellType {
	case todo.CellCheck:
		next := todo.CellValue{Type: todo.CellCheck, Checked: !cell.Checked}
		errText := t.h.mutate(todo.SetCell(t.h.state, tbl.ID, task.ID, ch.ID, next))
		return t, report(errText, "")
	case todo.CellCounter:
		return t.bumpCounter(1)
	case todo.CellSelect:
		if len(task.Options) == 0 {
			return t, nil
		}
		idx := 0
		for i, opt := range task.Options {
			if opt == cell.Value {
				idx = (i + 1) % len(task.Options)
				break
			}
		}
		next := todo.CellValue{Type: todo.CellSelect, Value: task.Options[idx]}
		errText := t.h.mutate(todo.SetCell(t.h.state, tbl.ID, task.ID, ch.ID, next))
		return t, report(errText, "")
	default:
		return t.showTextForm()
	}
}

func (t trackerModel) bumpCounter(delta int) (trackerModel, tea.Cmd) {
	task, ch, ok := t.current()
	if !ok || task.CellType != todo.CellCounter {
		return t, nil
	}
	tbl := todo.ActiveTable(t.h.state)
	cell, _ := todo.Cell(t.h.state, tbl.ID, task.ID, ch.ID)

	n := cell.Count + delta
	hi := task.Max
	if hi <= 0 {
		hi = 999
	}
	n = clampInt(n, 0, hi)

	next := todo.CellValue{Type: todo.CellCounter, Count: n}
	errText := t.h.mutate(todo.SetCell(t.h.state, tbl.ID, task.ID, ch.ID, next))
	return t, report(errText, "")
}

func (t trackerModel) nextRoster() (trackerModel, tea.Cmd) {
	tables := t.h.state.Tables
	for i, tbl := range tables {
		if tbl.ID == t.h.state.ActiveTableID {
			next := tables[(i+1)%len(tables)].ID
			errText := t.h.mutate(todo.SetActiveTable(t.h.state, next))
			t.clampCursor()
			return t, report(errText, "Roster: "+todo.ActiveTable(t.h.state).Name)
		}
	}
	return t, nil
}

// ---- Forms ----

func (t trackerModel) showActionMenu() (trackerModel, tea.Cmd) {
	task, ch, ok := t.current()

	opts := []huh.Option[string]{}
	if ok {
		if task.CellType == todo.CellText {
			opts = append(opts, huh.NewOption("Edit note: "+task.Title, "text"))
		}
		opts = append(opts,
			huh.NewOption("Edit character: "+ch.Name, "edit-char"),
			huh.NewOption("Toggle buff: "+ch.Name, "buff"),
			huh.NewOption("Delete task: "+task.Title, "del-task"),
			huh.NewOption("Delete character: "+ch.Name, "del-char"),
		)
	}
	opts = append(opts,
		huh.NewOption("Rename roster", "rename-roster"),
		huh.NewOption("New roster", "new-roster"),
		huh.NewOption("Delete roster", "del-roster"),
		huh.NewOption("Cancel", "cancel"),
	)

	*t.action = "cancel"
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Action").Options(opts...).Value(t.action),
		),
	).WithShowHelp(true)
	t.formKind = formAction
	t.formActive = true
	return t, t.form.Init()
}

func (t trackerModel) showNewCharacterForm() (trackerModel, tea.Cmd) {
	*t.charName, *t.charItem, *t.charPower = "", "", ""
	t.editingCharID = ""
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(t.charName).Validate(required),
			huh.NewInput().Title("Item level").Value(t.charItem),
			huh.NewInput().Title("Combat power").Value(t.charPower),
		).Title("New character"),
	).WithShowHelp(true).WithShowErrors(true)
	t.formKind = formNewCharacter
	t.formActive = true
	return t, t.form.Init()
}

func (t trackerModel) showEditCharacterForm(ch todo.Character) (trackerModel, tea.Cmd) {
	*t.charName, *t.charItem, *t.charPower = ch.Name, ch.ItemLevel, ch.Power
	t.editingCharID = ch.ID
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(t.charName).Validate(required),
			huh.NewInput().Title("Item level").Value(t.charItem),
			huh.NewInput().Title("Combat power").Value(t.charPower),
		).Title("Edit character"),
	).WithShowHelp(true).WithShowErrors(true)
	t.formKind = formEditCharacter
	t.formActive = true
	return t, t.form.Init()
}

func (t trackerModel) showNewTaskForm() (trackerModel, tea.Cmd) {
	*t.taskTitle, *t.taskSection, *t.taskMax = "", "", ""
	*t.taskPeriod = string(todo.PeriodDaily)
	*t.taskType = string(todo.CellCheck)
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(t.taskTitle).Validate(required),
			huh.NewSelect[string]().Title("Period").
				Options(
					huh.NewOption("Daily", string(todo.PeriodDaily)),
					huh.NewOption("Weekly", string(todo.PeriodWeekly)),
					huh.NewOption("None", string(todo.PeriodNone)),
				).Value(t.taskPeriod),
			huh.NewSelect[string]().Title("Cell type").
				Options(
					huh.NewOption("Checkbox", string(todo.CellCheck)),
					huh.NewOption("Counter", string(todo.CellCounter)),
					huh.NewOption("Text", string(todo.CellText)),
				).Value(t.taskType),
			huh.NewInput().Title("Max count (counter only)").Value(t.taskMax),
			huh.NewInput().Title("Section").Value(t.taskSection),
		).Title("New task"),
	).WithShowHelp(true).WithShowErrors(true)
	t.formKind = formNewTask
	t.formActive = true
	return t, t.form.Init()
}

func (t trackerModel) showTextForm() (trackerModel, tea.Cmd) {
	task, ch, ok := t.current()
	if !ok {
		return t, nil
	}
	tbl := todo.ActiveTable(t.h.state)
	cell, _ := todo.Cell(t.h.state, tbl.ID, task.ID, ch.ID)
	*t.textValue = cell.Text

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(fmt.Sprintf("%s — %s", task.Title, ch.Name)).Value(t.textValue),
		),
	).WithShowHelp(true)
	t.formKind = formTextCell
	t.formActive = true
	return t, t.form.Init()
}

func (t trackerModel) showBuffForm() (trackerModel, tea.Cmd) {
	*t.buffHours = "24"
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Buff duration (hours, 0 to clear)").Value(t.buffHours),
		),
	).WithShowHelp(true)
	t.formKind = formBuff
	t.formActive = true
	return t, t.form.Init()
}

func (t trackerModel) showRosterForm(kind trackerForm) (trackerModel, tea.Cmd) {
	if kind == formRenameRoster {
		*t.rosterName = todo.ActiveTable(t.h.state).Name
	} else {
		*t.rosterName = ""
	}
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Roster name").Value(t.rosterName),
		),
	).WithShowHelp(true)
	t.formKind = kind
	t.formActive = true
	return t, t.form.Init()
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

func (t trackerModel) updateForm(msg tea.Msg) (trackerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		t.formActive = false
		t.form = nil
		t.formKind = formNone
		return t, nil
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State != huh.StateCompleted {
		return t, cmd
	}

	kind := t.formKind
	t.formActive = false
	t.form = nil
	t.formKind = formNone
	return t.applyForm(kind)
}

func (t trackerModel) applyForm(kind trackerForm) (trackerModel, tea.Cmd) {
	tbl := todo.ActiveTable(t.h.state)

	switch kind {
	case formAction:
		return t.applyAction(*t.action)

	case formNewCharacter:
		ch := todo.NewCharacter(strings.TrimSpace(*t.charName), *t.charItem, *t.charPower)
		errText := t.h.mutate(todo.AddCharacter(t.h.state, tbl.ID, ch))
		return t, report(errText, "Character added")

	case formEditCharacter:
		for _, c := range tbl.Characters {
			if c.ID == t.editingCharID {
				c.Name = strings.TrimSpace(*t.charName)
				c.ItemLevel = *t.charItem
				c.Power = *t.charPower
				errText := t.h.mutate(todo.UpdateCharacter(t.h.state, tbl.ID, c))
				return t, report(errText, "Character updated")
			}
		}
		return t, nil

	case formNewTask:
		maxCount, _ := strconv.Atoi(*t.taskMax)
		task := todo.NewTask(todo.TaskInput{
			Title:    strings.TrimSpace(*t.taskTitle),
			Period:   todo.Period(*t.taskPeriod),
			CellType: todo.CellType(*t.taskType),
			Max:      maxCount,
			Section:  strings.TrimSpace(*t.taskSection),
		})
		errText := t.h.mutate(todo.AddTask(t.h.state, task))
		return t, report(errText, "Task added")

	case formTextCell:
		task, ch, ok := t.current()
		if !ok {
			return t, nil
		}
		next := todo.CellValue{Type: todo.CellText, Text: *t.textValue}
		errText := t.h.mutate(todo.SetCell(t.h.state, tbl.ID, task.ID, ch.ID, next))
		return t, report(errText, "")

	case formBuff:
		_, ch, ok := t.current()
		if !ok {
			return t, nil
		}
		hours, err := strconv.Atoi(strings.TrimSpace(*t.buffHours))
		if err != nil || hours <= 0 {
			errText := t.h.mutate(todo.SetCharacterBuff(t.h.state, tbl.ID, ch.ID, false, time.Time{}))
			return t, report(errText, "Buff cleared")
		}
		expiry := time.Now().Add(time.Duration(hours) * time.Hour)
		errText := t.h.mutate(todo.SetCharacterBuff(t.h.state, tbl.ID, ch.ID, true, expiry))
		return t, report(errText, fmt.Sprintf("Buff until %s", expiry.Format("Jan 02 15:04")))

	case formRenameRoster:
		name := strings.TrimSpace(*t.rosterName)
		if name == "" {
			return t, nil
		}
		errText := t.h.mutate(todo.RenameTable(t.h.state, tbl.ID, name))
		return t, report(errText, "Roster renamed")

	case formNewRoster:
		errText := t.h.mutate(todo.AddTable(t.h.state, strings.TrimSpace(*t.rosterName)))
		t.clampCursor()
		return t, report(errText, "Roster added")
	}
	return t, nil
}

func (t trackerModel) applyAction(action string) (trackerModel, tea.Cmd) {
	tbl := todo.ActiveTable(t.h.state)
	task, ch, ok := t.current()

	switch action {
	case "text":
		return t.showTextForm()
	case "edit-char":
		if ok {
			return t.showEditCharacterForm(ch)
		}
	case "buff":
		if ok {
			return t.showBuffForm()
		}
	case "del-task":
		if ok {
			errText := t.h.mutate(todo.DeleteTask(t.h.state, task.ID))
			t.clampCursor()
			return t, report(errText, "Task deleted")
		}
	case "del-char":
		if ok {
			errText := t.h.mutate(todo.DeleteCharacter(t.h.state, tbl.ID, ch.ID))
			t.clampCursor()
			return t, report(errText, "Character deleted")
		}
	case "rename-roster":
		return t.showRosterForm(formRenameRoster)
	case "new-roster":
		return t.showRosterForm(formNewRoster)
	case "del-roster":
		next, err := todo.DeleteTable(t.h.state, tbl.ID)
		if err != nil {
			return t, report(err.Error(), "")
		}
		errText := t.h.mutate(next)
		t.clampCursor()
		return t, report(errText, "Roster deleted")
	}
	return t, nil
}

// ---- View ----

func (t trackerModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		return activePanelStyle.Width(w).Render(t.form.View())
	}

	state := t.h.state
	tbl := todo.ActiveTable(state)
	tasks := sortedTasks(state)

	title := titleStyle.Render(tbl.Name)
	rosterInfo := mutedStyle.Render(fmt.Sprintf("  (%d/%d rosters, ]: switch)", rosterIndex(state)+1, len(state.Tables)))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, title, rosterInfo)

	var rows []string
	rows = append(rows, header, "")

	// Column headers
	head := fmt.Sprintf("  %-24s", "")
	for _, ch := range tbl.Characters {
		name := ch.Name
		if ch.BuffEnabled {
			name += "*"
		}
		head += fmt.Sprintf("%-14s", truncate(name, 13))
	}
	rows = append(rows, mutedStyle.Render(head))

	section := ""
	for i, task := range tasks {
		if task.Section != section {
			section = task.Section
			rows = append(rows, sectionStyle.Render("  "+section))
		}

		line := fmt.Sprintf("  %-24s", truncate(task.Title, 23))
		for j, ch := range tbl.Characters {
			cell, present := todo.Cell(state, tbl.ID, task.ID, ch.ID)
			label := cellLabel(task, cell, present)

			style := normalCellStyle
			if present && isDone(task, cell) {
				style = doneCellStyle
			}
			if i == t.row && j == t.col {
				style = selectedCellStyle
			}
			line += style.Render(fmt.Sprintf("%-14s", label))
		}
		rows = append(rows, line)
	}

	if len(tbl.Characters) == 0 {
		rows = append(rows, "", mutedStyle.Render("  No characters yet. Press n to add one."))
	}

	rows = append(rows, "", mutedStyle.Render("  space: toggle  +/-: count  e: actions  n: character  t: task  r: reset"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func rosterIndex(state todo.State) int {
	for i, tbl := range state.Tables {
		if tbl.ID == state.ActiveTableID {
			return i
		}
	}
	return 0
}

// cellLabel renders one grid cell.
func cellLabel(task todo.Task, cell todo.CellValue, present bool) string {
	switch task.CellType {
	case todo.CellCheck:
		if present && cell.Checked {
			return "[x]"
		}
		return "[ ]"
	case todo.CellCounter:
		n := 0
		if present {
			n = cell.Count
		}
		if task.Max > 0 {
			return fmt.Sprintf("%d/%d", n, task.Max)
		}
		return strconv.Itoa(n)
	case todo.CellSelect:
		if present && cell.Value != "" {
			return truncate(cell.Value, 13)
		}
		return "-"
	default:
		if present && cell.Text != "" {
			return truncate(cell.Text, 13)
		}
		return "-"
	}
}

func isDone(task todo.Task, cell todo.CellValue) bool {
	switch task.CellType {
	case todo.CellCheck:
		return cell.Checked
	case todo.CellCounter:
		return task.Max > 0 && cell.Count >= task.Max
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
