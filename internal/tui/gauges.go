package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dhkang92/lodo/internal/todo"
)

// gaugesModel charts every character's rest gauges for the active
// roster and lets the user correct them by hand.
type gaugesModel struct {
	h      *holder
	width  int
	height int

	cursor int

	chart barchart.Model
}

func newGaugesModel(h *holder) gaugesModel {
	return gaugesModel{
		h:     h,
		chart: barchart.New(60, 12),
	}
}

func (g *gaugesModel) setSize(w, h int) {
	g.width = w
	g.height = h
}

func (g *gaugesModel) clampCursor() {
	chars := todo.ActiveTable(g.h.state).Characters
	g.cursor = clampInt(g.cursor, 0, max(0, len(chars)-1))
}

func (g gaugesModel) update(msg tea.Msg) (gaugesModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return g, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		g.cursor--
		g.clampCursor()
	case key.Matches(keyMsg, keys.Down):
		g.cursor++
		g.clampCursor()
	case key.Matches(keyMsg, keys.Right), key.Matches(keyMsg, keys.Increment):
		return g.adjust(todo.ChaosGaugeCredit, 0)
	case key.Matches(keyMsg, keys.Left), key.Matches(keyMsg, keys.Decrement):
		return g.adjust(-todo.ChaosGaugeCredit, 0)
	case keyMsg.String() == "g":
		return g.adjust(0, todo.GuardianGaugeCredit)
	case keyMsg.String() == "G":
		return g.adjust(0, -todo.GuardianGaugeCredit)
	}
	return g, nil
}

// adjust nudges the selected character's gauges by one credit step.
func (g gaugesModel) adjust(dChaos, dGuardian int) (gaugesModel, tea.Cmd) {
	tbl := todo.ActiveTable(g.h.state)
	if len(tbl.Characters) == 0 {
		return g, nil
	}
	g.clampCursor()
	ch := tbl.Characters[g.cursor]
	cur := tbl.RestGauges[ch.ID]

	errText := g.h.mutate(todo.SetRestGauge(
		g.h.state, tbl.ID, ch.ID, cur.Chaos+dChaos, cur.Guardian+dGuardian,
	))
	return g, report(errText, "")
}

func (g *gaugesModel) buildChart() {
	chartWidth := g.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if g.height > 30 {
		chartHeight = 16
	}

	g.chart = barchart.New(chartWidth, chartHeight)

	tbl := todo.ActiveTable(g.h.state)
	var bars []barchart.BarData
	for _, ch := range tbl.Characters {
		gauge := tbl.RestGauges[ch.ID]
		bars = append(bars, barchart.BarData{
			Label: truncate(ch.Name, 8),
			Values: []barchart.BarValue{
				{
					Name:  "Chaos",
					Value: float64(gauge.Chaos),
					Style: lipgloss.NewStyle().Foreground(colorChaos),
				},
				{
					Name:  "Guardian",
					Value: float64(gauge.Guardian),
					Style: lipgloss.NewStyle().Foreground(colorGuardian),
				},
			},
		})
	}
	if len(bars) == 0 {
		bars = []barchart.BarData{{
			Label:  "",
			Values: []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}},
		}}
	}

	g.chart.PushAll(bars)
	g.chart.Draw()
}

func (g gaugesModel) view() string {
	w := g.width - 4

	g.buildChart()

	title := titleStyle.Render("Rest gauges")
	rosterLabel := mutedStyle.Render("  " + todo.ActiveTable(g.h.state).Name)
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, title, rosterLabel)

	chartView := g.chart.View()

	legend := fmt.Sprintf("  %s Chaos (max %d)  %s Guardian (max %d)",
		lipgloss.NewStyle().Foreground(colorChaos).Render("●"), todo.ChaosGaugeMax,
		lipgloss.NewStyle().Foreground(colorGuardian).Render("●"), todo.GuardianGaugeMax,
	)

	tableView := g.renderTable(w)
	nav := mutedStyle.Render("  ↑/↓: select  ←/→: chaos ±20  g/G: guardian ±10")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", legend, "", tableView, "", nav,
		),
	)
}

func (g gaugesModel) renderTable(w int) string {
	tbl := todo.ActiveTable(g.h.state)
	if len(tbl.Characters) == 0 {
		return mutedStyle.Render("  No characters in this roster")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-20s %10s %10s", "Character", "Chaos", "Guardian")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 44))))

	for i, ch := range tbl.Characters {
		gauge := tbl.RestGauges[ch.ID]
		line := fmt.Sprintf("  %-20s %6d/%d %6d/%d",
			truncate(ch.Name, 19), gauge.Chaos, todo.ChaosGaugeMax, gauge.Guardian, todo.GuardianGaugeMax,
		)
		if i == g.cursor {
			line = selectedItemStyle.Render(line)
		}
		rows = append(rows, line)
	}
	return strings.Join(rows, "\n")
}
