package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dhkang92/lodo/internal/gems"
)

// gemsModel is the expedition gem inventory: counts per level and
// column, prices per level, value totals derived live.
type gemsModel struct {
	h      *holder
	width  int
	height int

	sheet gems.Sheet
	row   int // indexes gems.Levels
	col   int // indexes sheet.Columns

	formActive bool
	form       *huh.Form
	formKind   gemsForm

	action  *string
	number  *string
	colName *string

	renamingCol string
}

type gemsForm int

const (
	gemsFormNone gemsForm = iota
	gemsFormAction
	gemsFormCount
	gemsFormPrice
	gemsFormAddColumn
	gemsFormRenameColumn
)

func newGemsModel(h *holder, sheet gems.Sheet) gemsModel {
	action, number, colName := "", "", ""
	return gemsModel{
		h:       h,
		sheet:   sheet,
		action:  &action,
		number:  &number,
		colName: &colName,
	}
}

func (g *gemsModel) setSize(w, h int) {
	g.width = w
	g.height = h
}

func (g *gemsModel) clampCursor() {
	g.row = clampInt(g.row, 0, len(gems.Levels)-1)
	g.col = clampInt(g.col, 0, max(0, len(g.sheet.Columns)-1))
}

func (g *gemsModel) level() int     { return gems.Levels[g.row] }
func (g *gemsModel) column() string { return g.sheet.Columns[g.col] }

// mutateSheet swaps the sheet in and persists it.
func (g *gemsModel) mutateSheet(next gems.Sheet) string {
	g.sheet = next
	data, err := gems.EncodeSheet(next)
	if err != nil {
		return "Save failed: " + err.Error()
	}
	if err := g.h.store.SaveGems(data); err != nil {
		return "Save failed: " + err.Error()
	}
	return ""
}

func (g gemsModel) update(msg tea.Msg) (gemsModel, tea.Cmd) {
	if g.formActive && g.form != nil {
		return g.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return g, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		g.row--
		g.clampCursor()
	case key.Matches(keyMsg, keys.Down):
		g.row++
		g.clampCursor()
	case key.Matches(keyMsg, keys.Left):
		g.col--
		g.clampCursor()
	case key.Matches(keyMsg, keys.Right):
		g.col++
		g.clampCursor()

	case key.Matches(keyMsg, keys.Increment):
		return g.bump(1)
	case key.Matches(keyMsg, keys.Decrement):
		return g.bump(-1)
	case key.Matches(keyMsg, keys.Toggle), key.Matches(keyMsg, keys.Enter):
		return g.showNumberForm(gemsFormCount)
	case keyMsg.String() == "p":
		return g.showNumberForm(gemsFormPrice)

	case key.Matches(keyMsg, keys.New):
		return g.showColumnForm(gemsFormAddColumn, "")
	case key.Matches(keyMsg, keys.Edit), key.Matches(keyMsg, keys.Delete):
		return g.showActionMenu()
	}
	return g, nil
}

func (g gemsModel) bump(delta int) (gemsModel, tea.Cmd) {
	if len(g.sheet.Columns) == 0 {
		return g, nil
	}
	g.clampCursor()
	n := gems.Count(g.sheet, g.level(), g.column()) + delta
	errText := g.mutateSheet(gems.SetCount(g.sheet, g.level(), g.column(), n))
	return g, report(errText, "")
}

func (g gemsModel) showNumberForm(kind gemsForm) (gemsModel, tea.Cmd) {
	if len(g.sheet.Columns) == 0 {
		return g, nil
	}
	g.clampCursor()

	title := fmt.Sprintf("Level %d count: %s", g.level(), g.column())
	*g.number = strconv.Itoa(gems.Count(g.sheet, g.level(), g.column()))
	if kind == gemsFormPrice {
		title = fmt.Sprintf("Level %d price", g.level())
		*g.number = strconv.FormatFloat(gems.Price(g.sheet, g.level()), 'f', -1, 64)
	}

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(title).Value(g.number).Validate(validAmount),
		),
	).WithShowHelp(true).WithShowErrors(true)
	g.formKind = kind
	g.formActive = true
	return g, g.form.Init()
}

func validAmount(s string) error {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || n < 0 {
		return fmt.Errorf("enter a non-negative number")
	}
	return nil
}

func (g gemsModel) showColumnForm(kind gemsForm, current string) (gemsModel, tea.Cmd) {
	*g.colName = current
	title := "New column"
	if kind == gemsFormRenameColumn {
		title = "Rename column"
	}
	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(title).Value(g.colName).Validate(required),
		),
	).WithShowHelp(true).WithShowErrors(true)
	g.formKind = kind
	g.formActive = true
	return g, g.form.Init()
}

func (g gemsModel) showActionMenu() (gemsModel, tea.Cmd) {
	opts := []huh.Option[string]{}
	if len(g.sheet.Columns) > 0 {
		g.clampCursor()
		opts = append(opts,
			huh.NewOption("Rename column: "+g.column(), "rename-col"),
			huh.NewOption("Delete column: "+g.column(), "del-col"),
		)
	}
	opts = append(opts,
		huh.NewOption("Clear all counts and prices", "reset"),
		huh.NewOption("Cancel", "cancel"),
	)

	*g.action = "cancel"
	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Action").Options(opts...).Value(g.action),
		),
	).WithShowHelp(true)
	g.formKind = gemsFormAction
	g.formActive = true
	return g, g.form.Init()
}

func (g gemsModel) updateForm(msg tea.Msg) (gemsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		g.formActive = false
		g.form = nil
		g.formKind = gemsFormNone
		return g, nil
	}

	form, cmd := g.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		g.form = f
	}

	if g.form.State != huh.StateCompleted {
		return g, cmd
	}

	kind := g.formKind
	g.formActive = false
	g.form = nil
	g.formKind = gemsFormNone
	return g.applyForm(kind)
}

func (g gemsModel) applyForm(kind gemsForm) (gemsModel, tea.Cmd) {
	switch kind {
	case gemsFormAction:
		switch *g.action {
		case "rename-col":
			g.renamingCol = g.column()
			return g.showColumnForm(gemsFormRenameColumn, g.renamingCol)
		case "del-col":
			errText := g.mutateSheet(gems.DeleteColumn(g.sheet, g.column()))
			g.clampCursor()
			return g, report(errText, "Column deleted")
		case "reset":
			errText := g.mutateSheet(gems.ResetCounts(g.sheet))
			return g, report(errText, "Gem counts cleared")
		}
		return g, nil

	case gemsFormCount:
		f, _ := strconv.ParseFloat(strings.TrimSpace(*g.number), 64)
		errText := g.mutateSheet(gems.SetCount(g.sheet, g.level(), g.column(), int(f)))
		return g, report(errText, "")

	case gemsFormPrice:
		p, _ := strconv.ParseFloat(strings.TrimSpace(*g.number), 64)
		errText := g.mutateSheet(gems.SetPrice(g.sheet, g.level(), p))
		return g, report(errText, "")

	case gemsFormAddColumn:
		next, err := gems.AddColumn(g.sheet, *g.colName)
		if err != nil {
			return g, report(err.Error(), "")
		}
		return g, report(g.mutateSheet(next), "Column added")

	case gemsFormRenameColumn:
		next, err := gems.RenameColumn(g.sheet, g.renamingCol, *g.colName)
		if err != nil {
			return g, report(err.Error(), "")
		}
		return g, report(g.mutateSheet(next), "Column renamed")
	}
	return g, nil
}

// ---- View ----

const gemColWidth = 10

func (g gemsModel) view() string {
	w := g.width - 4

	if g.formActive && g.form != nil {
		return activePanelStyle.Width(w).Render(g.form.View())
	}

	title := titleStyle.Render("Gem inventory")
	var rows []string
	rows = append(rows, title, "")

	head := fmt.Sprintf("  %-8s", "")
	for _, col := range g.sheet.Columns {
		head += fmt.Sprintf("%-*s", gemColWidth, truncate(col, gemColWidth-1))
	}
	rows = append(rows, mutedStyle.Render(head))

	for i, lvl := range gems.Levels {
		line := fmt.Sprintf("  %-8s", fmt.Sprintf("Lv %d", lvl))
		for j, col := range g.sheet.Columns {
			label := "·"
			if n := gems.Count(g.sheet, lvl, col); n > 0 {
				label = strconv.Itoa(n)
			}
			style := normalCellStyle
			if i == g.row && j == g.col {
				style = selectedCellStyle
			}
			line += style.Render(fmt.Sprintf("%-*s", gemColWidth, label))
		}
		rows = append(rows, line)
	}

	rows = append(rows, "")
	rows = append(rows, sectionStyle.Render("  Totals"))
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-8s %10s %12s %14s", "", "Sum", "Price", "Value")))
	for _, lvl := range gems.Levels {
		rows = append(rows, fmt.Sprintf("  %-8s %10d %12s %14s",
			fmt.Sprintf("Lv %d", lvl),
			gems.SumByLevel(g.sheet, lvl),
			formatAmount(gems.Price(g.sheet, lvl)),
			formatAmount(gems.ValueByLevel(g.sheet, lvl)),
		))
	}
	rows = append(rows, fmt.Sprintf("  %-8s %10d %12s %s", "Total",
		gems.TotalCount(g.sheet), "",
		highlightStyle.Render(fmt.Sprintf("%14s", formatAmount(gems.TotalValue(g.sheet)))),
	))

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  +/-: count  enter: set count  p: set price  n: column  e: actions"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// formatAmount renders a price or value with thousands separators and
// at most two decimals.
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")

	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	var parts []string
	for len(intPart) > 3 {
		parts = append([]string{intPart[len(intPart)-3:]}, parts...)
		intPart = intPart[:len(intPart)-3]
	}
	parts = append([]string{intPart}, parts...)
	out := strings.Join(parts, ",")
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
