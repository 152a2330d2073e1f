package help

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/projectpulse/internal/keys"
	"github.com/nhle/projectpulse/internal/rules"
	"github.com/nhle/projectpulse/internal/theme"
)

// Model is the help overlay view. Besides the shortcuts it lists the
// rule parameters the checks run with.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	rules  rules.Options
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, opts rules.Options, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		rules:  opts,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		titleStyle.Render("Checks"),
		theme.HelpStyle.Render(m.rulesSummary()),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

func (m Model) rulesSummary() string {
	return fmt.Sprintf(
		"deadline reminder %d days ahead\ninactive after %d days\nbudget warning at %.0f%%",
		m.rules.UpcomingDays, m.rules.InactiveDays, m.rules.BudgetThreshold*100,
	)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
