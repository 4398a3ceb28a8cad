package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dhkang92/lodo/internal/client"
	"github.com/dhkang92/lodo/internal/export"
	"github.com/dhkang92/lodo/internal/gems"
	"github.com/dhkang92/lodo/internal/store"
	"github.com/dhkang92/lodo/internal/todo"
)

// autoResetEvery is how many ticks pass between reset sweeps. The sweep
// is cheap but there is no point running it every second.
const autoResetEvery = 60

// App is the root Bubble Tea model.
type App struct {
	h      *holder
	api    *client.Client
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	ticks         int

	tracker  trackerModel
	gauges   gaugesModel
	gems     gemsModel
	bid      bidModel
	friends  friendsModel
	settings settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(s *store.Store, state todo.State) App {
	hp := help.New()
	hp.ShowAll = false

	h := &holder{store: s, state: state}
	api, err := buildClient(s)

	a := App{
		h:          h,
		api:        api,
		activeView: viewTracker,
		tracker:    newTrackerModel(h),
		gauges:     newGaugesModel(h),
		gems:       newGemsModel(h, loadGemSheet(s)),
		bid:        newBidModel(h),
		friends:    newFriendsModel(h, api),
		settings:   newSettingsModel(h),
		help:       hp,
	}
	if err != nil {
		a.status = "Service settings unavailable: " + err.Error()
		a.statusErr = true
	}
	return a
}

// buildClient returns a nil client until both service URL and friend
// code have been configured. A read error leaves the client nil too,
// so the caller can show why friends features are offline.
func buildClient(s *store.Store) (*client.Client, error) {
	url, err := s.GetSetting(store.SettingServiceURL)
	if err != nil {
		return nil, err
	}
	code, err := s.GetSetting(store.SettingFriendCode)
	if err != nil {
		return nil, err
	}
	if url == "" || code == "" {
		return nil, nil
	}
	nickname, err := s.GetSetting(store.SettingNickname)
	if err != nil {
		return nil, err
	}
	return client.New(url, code, nickname), nil
}

// loadGemSheet pulls the saved gem inventory, falling back to an empty
// default sheet when nothing usable is stored.
func loadGemSheet(s *store.Store) gems.Sheet {
	data, err := s.LoadGems()
	if err != nil {
		return gems.DefaultSheet()
	}
	sheet, err := gems.DecodeSheet(data)
	if err != nil {
		return gems.DefaultSheet()
	}
	return sheet
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.settings.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.tracker.setSize(a.width, contentHeight)
		a.gauges.setSize(a.width, contentHeight)
		a.gems.setSize(a.width, contentHeight)
		a.bid.setSize(a.width, contentHeight)
		a.friends.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTracker
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewGauges
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewGems
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewBid
			return a, nil
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewFriends
			return a, a.friends.refresh()
		case key.Matches(msg, keys.Tab6):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 6
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		a.ticks++
		var cmd tea.Cmd
		if a.ticks%autoResetEvery == 0 {
			cmd = a.sweepResets(time.Time(msg))
		}
		return a, tea.Batch(tickCmd(), cmd)

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case settingsSavedMsg:
		api, err := buildClient(a.h.store)
		if err != nil {
			a.status = "Service settings unavailable: " + err.Error()
			a.statusErr = true
			return a, nil
		}
		a.api = api
		a.friends.api = a.api
		return a, a.pushProfile()

	case restoreMsg:
		state, err := todo.DecodeState([]byte(msg.stateJSON))
		if err != nil {
			a.status = "Restore failed: " + err.Error()
			a.statusErr = true
			return a, nil
		}
		if errText := a.h.mutate(state); errText != "" {
			a.status = errText
			a.statusErr = true
			return a, nil
		}
		a.status = "Backup from " + msg.updatedAt.Local().Format("Jan 02 15:04") + " restored"
		a.statusErr = false
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// sweepResets replays any reset boundaries crossed since the last sweep
// and drops expired buffs. Saves only when something changed.
func (a *App) sweepResets(now time.Time) tea.Cmd {
	prev := a.h.state
	next := todo.ApplyAutoResetAt(prev, now)

	changed := next.Reset != prev.Reset
	if exp, ok := todo.NextBuffExpiry(next, now); ok && !exp.After(now) {
		next = todo.ClearExpiredBuffs(next, now)
		changed = true
	}
	if !changed {
		return nil
	}
	if errText := a.h.mutate(next); errText != "" {
		return report(errText, "")
	}
	if next.Reset.LastDailyResetAt != prev.Reset.LastDailyResetAt {
		return report("", "Daily reset applied")
	}
	return nil
}

// pushProfile mirrors the local nickname and share mode to the service.
func (a App) pushProfile() tea.Cmd {
	if a.api == nil {
		return nil
	}
	api := a.api
	nickname, _ := a.h.store.GetSetting(store.SettingNickname)
	mode, _ := a.h.store.GetSetting(store.SettingShareMode)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if nickname != "" {
			if err := api.SetNickname(ctx, nickname); err != nil {
				return syncDoneMsg{err: err}
			}
		}
		if mode != "" {
			if err := api.SetShareMode(ctx, mode); err != nil {
				return syncDoneMsg{err: err}
			}
		}
		return syncDoneMsg{text: "Profile synced"}
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTracker:
		a.tracker, cmd = a.tracker.update(msg)
	case viewGauges:
		a.gauges, cmd = a.gauges.update(msg)
	case viewGems:
		a.gems, cmd = a.gems.update(msg)
	case viewBid:
		a.bid, cmd = a.bid.update(msg)
	case viewFriends:
		a.friends, cmd = a.friends.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTracker:
		return a.tracker.formActive
	case viewGems:
		return a.gems.formActive
	case viewBid:
		return a.bid.formActive
	case viewFriends:
		return a.friends.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewFriends:
		return a.friends.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTracker:
		content = a.tracker.view()
	case viewGauges:
		content = a.gauges.view()
	case viewGems:
		content = a.gems.view()
	case viewBid:
		content = a.bid.view()
	case viewFriends:
		content = a.friends.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker(contentHeight)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("lodo")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	// Next buff expiry in footer
	buffInfo := ""
	if exp, ok := todo.NextBuffExpiry(a.h.state, time.Now()); ok {
		buffInfo = warningStyle.Render(" ● buff " + formatCountdown(time.Until(exp)))
	}

	left := footerStyle.Render(helpView)
	right := buffInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

// formatCountdown renders a duration as "1h23m" or "45m".
func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func (a App) renderExportPicker(_ int) string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV (active roster)", "JSON (full state)"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	state := a.h.state
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("lodo-export-%s.csv", dateStr))
			if err := export.ToCSV(state, state.ActiveTableID, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("lodo-export-%s.json", dateStr))
			if err := export.ToJSON(state, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
