package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dhkang92/lodo/internal/store"
)

type settingsModel struct {
	h      *holder
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	resetHour  *string
	resetDay   *string
	serviceURL *string
	friendCode *string
	nickname   *string
	shareMode  *string
}

func newSettingsModel(h *holder) settingsModel {
	rh, rd := "", ""
	su, fc, nn, sm := "", "", "", ""
	return settingsModel{
		h:          h,
		resetHour:  &rh,
		resetDay:   &rd,
		serviceURL: &su,
		friendCode: &fc,
		nickname:   &nn,
		shareMode:  &sm,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

// settingsSavedMsg tells the root model to rebuild the service client
// and push nickname/share mode changes upstream.
type settingsSavedMsg struct{}

func (s settingsModel) refresh() tea.Cmd {
	st := s.h.store
	return func() tea.Msg {
		settings, _ := st.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	// Load current values
	*s.resetHour = strconv.Itoa(s.h.state.Reset.DailyResetHour)
	*s.resetDay = strconv.Itoa(s.h.state.Reset.WeeklyResetWeekday)
	*s.serviceURL = s.getVal(store.SettingServiceURL)
	*s.friendCode = s.getVal(store.SettingFriendCode)
	*s.nickname = s.getVal(store.SettingNickname)
	*s.shareMode = s.getVal(store.SettingShareMode)
	if *s.shareMode == "" {
		*s.shareMode = "PRIVATE"
	}

	weekdayOptions := make([]huh.Option[string], len(weekdayNames))
	for i, name := range weekdayNames {
		weekdayOptions[i] = huh.NewOption(name, strconv.Itoa(i))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Daily reset hour (0-23)").Value(s.resetHour).Validate(validHour),
			huh.NewSelect[string]().Title("Weekly reset day").
				Options(weekdayOptions...).Value(s.resetDay),
		).Title("Resets"),
		huh.NewGroup(
			huh.NewInput().Title("Service URL").Value(s.serviceURL),
			huh.NewInput().Title("Friend code").Value(s.friendCode),
			huh.NewInput().Title("Nickname").Value(s.nickname),
			huh.NewSelect[string]().Title("Snapshot sharing").
				Options(
					huh.NewOption("Private (friends only)", "PRIVATE"),
					huh.NewOption("Public", "PUBLIC"),
				).Value(s.shareMode),
		).Title("Sync service"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func validHour(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 || n > 23 {
		return fmt.Errorf("enter an hour between 0 and 23")
	}
	return nil
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if errText := s.saveSettings(); errText != "" {
			return s, tea.Batch(report(errText, ""), s.refresh())
		}
		return s, tea.Batch(
			s.refresh(),
			func() tea.Msg { return settingsSavedMsg{} },
			report("", "Settings saved"),
		)
	}

	return s, cmd
}

func (s settingsModel) saveSettings() string {
	hour, _ := strconv.Atoi(strings.TrimSpace(*s.resetHour))
	day, _ := strconv.Atoi(*s.resetDay)

	next := s.h.state
	next.Reset.DailyResetHour = clampInt(hour, 0, 23)
	next.Reset.WeeklyResetWeekday = clampInt(day, 0, 6)
	if errText := s.h.mutate(next); errText != "" {
		return errText
	}

	st := s.h.store
	pairs := []struct{ key, value string }{
		{store.SettingServiceURL, strings.TrimSpace(*s.serviceURL)},
		{store.SettingFriendCode, strings.TrimSpace(*s.friendCode)},
		{store.SettingNickname, strings.TrimSpace(*s.nickname)},
		{store.SettingShareMode, *s.shareMode},
	}
	for _, p := range pairs {
		if err := st.SetSetting(p.key, p.value); err != nil {
			return "Save failed: " + err.Error()
		}
	}
	return ""
}

func (s settingsModel) getVal(k string) string {
	v, _ := s.h.store.GetSetting(k)
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	rows = append(rows, settingRow("daily_reset_hour", fmt.Sprintf("%02d:00", s.h.state.Reset.DailyResetHour)))
	rows = append(rows, settingRow("weekly_reset_day", weekdayName(s.h.state.Reset.WeeklyResetWeekday)))

	for _, setting := range s.settings {
		value := setting.Value
		if value == "" {
			value = "(unset)"
		}
		rows = append(rows, settingRow(setting.Key, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingRow(key, value string) string {
	label := lipgloss.NewStyle().Width(24).Render(key)
	return fmt.Sprintf("  %s %s", label, highlightStyle.Render(value))
}
