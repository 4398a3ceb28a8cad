package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dhkang92/lodo/internal/bid"
)

// bidModel is the loot-auction calculator: enter an item price and a
// party size, read off the break-even and opening bids.
type bidModel struct {
	h      *holder
	width  int
	height int

	quote      bid.Quote
	haveQuote  bool
	formActive bool
	form       *huh.Form

	price *string
	party *string
}

func newBidModel(h *holder) bidModel {
	price, party := "", "8"
	return bidModel{
		h:     h,
		price: &price,
		party: &party,
	}
}

func (b *bidModel) setSize(w, h int) {
	b.width = w
	b.height = h
}

func (b bidModel) update(msg tea.Msg) (bidModel, tea.Cmd) {
	if b.formActive && b.form != nil {
		return b.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, keys.Enter), key.Matches(keyMsg, keys.New):
			return b.showForm()
		}
	}
	return b, nil
}

func (b bidModel) showForm() (bidModel, tea.Cmd) {
	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Item price (gold)").Value(b.price).Validate(validPrice),
			huh.NewSelect[string]().Title("Party size").
				Options(
					huh.NewOption("4", "4"),
					huh.NewOption("8", "8"),
					huh.NewOption("16", "16"),
				).Value(b.party),
		).Title("Bid calculator"),
	).WithShowHelp(true).WithShowErrors(true)
	b.formActive = true
	return b, b.form.Init()
}

func validPrice(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("enter a non-negative whole number")
	}
	return nil
}

func (b bidModel) updateForm(msg tea.Msg) (bidModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		b.formActive = false
		b.form = nil
		return b, nil
	}

	form, cmd := b.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		b.form = f
	}

	if b.form.State == huh.StateCompleted {
		b.formActive = false
		b.form = nil
		price, _ := strconv.Atoi(strings.TrimSpace(*b.price))
		party, _ := strconv.Atoi(*b.party)
		b.quote = bid.Calculate(price, party)
		b.haveQuote = true
		return b, nil
	}
	return b, cmd
}

func (b bidModel) view() string {
	w := b.width - 4

	if b.formActive && b.form != nil {
		return activePanelStyle.Width(w).Render(b.form.View())
	}

	title := titleStyle.Render("Bid calculator")
	var rows []string
	rows = append(rows, title, "")

	if !b.haveQuote {
		rows = append(rows, mutedStyle.Render("  Press enter to price an item"))
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	q := b.quote
	rows = append(rows, fmt.Sprintf("  %-22s %s", "Item price", highlightStyle.Render(formatGold(q.Price))))
	rows = append(rows, fmt.Sprintf("  %-22s %s", "Party size", highlightStyle.Render(strconv.Itoa(q.PartySize))))
	rows = append(rows, fmt.Sprintf("  %-22s %s", "Auction fee (5%)", mutedStyle.Render(formatGold(q.Fee))))
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-22s %10s %10s", "", "Bid", "Margin")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 44))))
	rows = append(rows, fmt.Sprintf("  %-22s %10s %10s", "Direct use", formatGold(q.DirectUse), formatGold(q.BreakEven-q.DirectUse)))
	rows = append(rows, fmt.Sprintf("  %-22s %10s %10s", "Break-even", successStyle.Render(formatGold(q.BreakEven)), formatGold(0)))
	for _, tier := range q.Tiers {
		label := fmt.Sprintf("%.0f%% margin", tier.Ratio*100)
		rows = append(rows, fmt.Sprintf("  %-22s %10s %10s", label, formatGold(tier.Bid), formatGold(tier.Margin)))
	}
	rows = append(rows, fmt.Sprintf("  %-22s %10s %10s", "Opening (preempt)", warningStyle.Render(formatGold(q.Preempt)), formatGold(q.BreakEven-q.Preempt)))
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: new calculation"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatGold(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out + "g"
}
