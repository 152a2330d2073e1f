// Package app is the root Bubble Tea model of the notification inbox.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/projectpulse/internal/keys"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/rules"
	"github.com/nhle/projectpulse/internal/scheduler"
	"github.com/nhle/projectpulse/internal/ui"
	"github.com/nhle/projectpulse/internal/ui/command"
	"github.com/nhle/projectpulse/internal/ui/detail"
	helpview "github.com/nhle/projectpulse/internal/ui/help"
	"github.com/nhle/projectpulse/internal/ui/inbox"
)

// Notifications is the notification service the inbox acts through.
type Notifications interface {
	inbox.Lister
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
	DeleteAllRead(ctx context.Context) (int64, error)
	UnreadCount(ctx context.Context, userID *int64) (int, error)
}

// Checks runs the rules in the background and reports each run.
type Checks interface {
	Start(ctx context.Context) tea.Cmd
	Trigger()
	Stop()
	Status() scheduler.Status
	WaitForNextResult() tea.Cmd
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewConfirm
)

// Config bundles what New needs.
type Config struct {
	Notifications Notifications

	// Checks is optional; without it the inbox only shows stored
	// notifications.
	Checks Checks

	Rules  rules.Options
	UserID *int64
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the background checks.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	svc          Notifications
	checks       Checks
	userID       *int64
	keys         *keys.KeyMap
	inbox        inbox.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	confirm      *huh.Form
	confirmed    *bool
	ready        bool
	unreadCount  int
	flash        string
}

// New creates the root model.
func New(cfg Config) Model {
	k := keys.DefaultKeyMap()
	return Model{
		currentView: ViewList,
		svc:         cfg.Notifications,
		checks:      cfg.Checks,
		userID:      cfg.UserID,
		keys:        k,
		inbox:       inbox.New(cfg.Notifications, k, cfg.UserID, 80, 24),
		detail:      detail.New(k, 80, 24),
		helpView:    helpview.New(k, cfg.Rules, 80, 24),
		commandView: command.New(80, 24),
		confirmed:   new(bool),
	}
}

// Init loads the inbox and starts the background checks.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.inbox.Init(), m.fetchUnreadCount()}
	if m.checks != nil {
		cmds = append(cmds, m.checks.Start(context.Background()))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.inbox.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		return m.updateActiveView(msg)

	case scheduler.CheckResultMsg:
		m.flash = summarize(msg.Result)
		return m, tea.Batch(m.inbox.Load(), m.fetchUnreadCount(), m.checks.WaitForNextResult())

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case actionDoneMsg:
		m.flash = msg.text
		if msg.err != nil {
			m.flash = "error: " + msg.err.Error()
		}
		if n := m.detail.Notification(); m.currentView == ViewDetail && n != nil && n.ID == msg.id {
			switch msg.action {
			case "delete":
				if msg.err == nil {
					m.currentView = ViewList
				}
			case "read":
				read := *n
				read.IsRead = msg.err == nil || read.IsRead
				m.detail.SetNotification(&read)
			}
		}
		return m, tea.Batch(m.inbox.Load(), m.fetchUnreadCount())

	case inbox.NotificationsLoadedMsg:
		var cmd tea.Cmd
		m.inbox, cmd = m.inbox.Update(msg)
		return m, cmd

	case inbox.SelectedNotificationMsg:
		n := msg.Notification
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetNotification(&n)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.ActionMsg:
		switch msg.Action {
		case "read":
			return m, m.markRead(msg.ID)
		case "delete":
			return m, m.deleteNotification(msg.ID)
		}
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.currentView == ViewConfirm {
			if key.Matches(msg, m.keys.Back) {
				m.currentView = ViewList
				m.confirm = nil
				return m, nil
			}
			return m.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Help) && m.currentView != ViewCommand:
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Command) && m.currentView != ViewCommand:
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()

		case key.Matches(msg, m.keys.Back) && (m.currentView == ViewHelp || m.currentView == ViewCommand):
			m.currentView = m.previousView
			return m, nil
		}

		if m.currentView == ViewList {
			if cmd, handled := m.handleListKeys(msg); handled {
				return m, cmd
			}
		}
	}

	return m.updateActiveView(msg)
}

// handleListKeys runs the inbox-level actions. handled is false for keys
// the list itself should see.
func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit(), true

	case key.Matches(msg, m.keys.MarkRead):
		if n, ok := m.inbox.Selected(); ok && !n.IsRead {
			return m.markRead(n.ID), true
		}
		return nil, true

	case key.Matches(msg, m.keys.MarkAllRead):
		return m.markAllRead(), true

	case key.Matches(msg, m.keys.Delete):
		if n, ok := m.inbox.Selected(); ok {
			return m.deleteNotification(n.ID), true
		}
		return nil, true

	case key.Matches(msg, m.keys.PurgeRead):
		return m.askPurge(), true

	case key.Matches(msg, m.keys.RunChecks):
		return m.runChecks(), true

	case key.Matches(msg, m.keys.Refresh):
		return tea.Batch(m.inbox.Load(), m.fetchUnreadCount()), true
	}
	return nil, false
}

// askPurge opens the confirmation form for deleting read notifications.
func (m *Model) askPurge() tea.Cmd {
	*m.confirmed = false
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete all read notifications?").
				Affirmative("Delete").
				Negative("Keep").
				Value(m.confirmed),
		),
	).WithShowHelp(false)
	m.previousView = m.currentView
	m.currentView = ViewConfirm
	return m.confirm.Init()
}

func (m *Model) runChecks() tea.Cmd {
	if m.checks == nil {
		m.flash = "checks are disabled"
		return nil
	}
	m.checks.Trigger()
	m.flash = "running checks..."
	return nil
}

func (m *Model) quit() tea.Cmd {
	if m.checks != nil {
		m.checks.Stop()
	}
	return tea.Quit
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.inbox, cmd = m.inbox.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewConfirm:
		return m.updateConfirm(msg)
	}

	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.confirm == nil {
		m.currentView = ViewList
		return m, nil
	}
	form, cmd := m.confirm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		m.currentView = ViewList
		m.confirm = nil
		if *m.confirmed {
			return m, m.purgeRead()
		}
		return m, nil
	case huh.StateAborted:
		m.currentView = ViewList
		m.confirm = nil
		return m, nil
	}
	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "ProjectPulse"
	if m.unreadCount > 0 {
		title = fmt.Sprintf("ProjectPulse [%d unread]", m.unreadCount)
	}
	header := m.layout.RenderHeader(title, m.checkStatus())
	statusBar := m.layout.RenderStatusBar(m.statusText())

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.inbox.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewConfirm:
		if m.confirm != nil {
			return m.confirm.View()
		}
	}
	return ""
}

// checkStatus describes the background checks for the header.
func (m Model) checkStatus() string {
	if m.checks == nil {
		return "checks off"
	}
	st := m.checks.Status()
	if st.Runs == 0 {
		return "checks: " + st.State.String()
	}
	return fmt.Sprintf("checks: %s, last %s", st.State, st.LastRun.Local().Format("15:04"))
}

// statusText returns the flash message or keyboard hints.
func (m Model) statusText() string {
	if m.flash != "" && m.currentView == ViewList {
		return m.flash
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | m mark read | d delete | j/k scroll"
	case ViewConfirm:
		return "←/→ choose | enter confirm | esc cancel"
	default:
		hints := "q quit | ? help | m read | M read all | d delete | c run checks"
		if m.inbox.OnlyUnread() {
			hints = "unread only | " + hints
		}
		return hints
	}
}

// summarize renders a one-line outcome of a rule run.
func summarize(r rules.Result) string {
	s := fmt.Sprintf("checks done: %d new (overdue %d, upcoming %d, inactive %d, budget %d)",
		r.Total, r.OverdueProjects, r.UpcomingDeadlines, r.InactiveTasks, r.BudgetWarnings)
	if r.Failed() {
		s += fmt.Sprintf(", %d failed", len(r.Errors))
	}
	return s
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "check", "run":
		return m.runChecks()
	case "read-all":
		return m.markAllRead()
	case "purge-read", "purge":
		return m.askPurge()
	case "unread":
		return m.inboxKey(m.keys.ToggleUnread)
	case "reload", "refresh":
		return tea.Batch(m.inbox.Load(), m.fetchUnreadCount())
	case "quit", "q":
		return m.quit()
	default:
		m.flash = fmt.Sprintf("unknown command %q", cmd)
		return nil
	}
}

// inboxKey replays the first key of b on the inbox.
func (m *Model) inboxKey(b key.Binding) tea.Cmd {
	var cmd tea.Cmd
	m.inbox, cmd = m.inbox.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(b.Keys()[0])})
	return cmd
}

// CurrentView reports the active view.
func (m Model) CurrentView() ViewState {
	return m.currentView
}

// Flash returns the last status message.
func (m Model) Flash() string {
	return m.flash
}

// SelectedNotification returns the notification focused in the list.
func (m Model) SelectedNotification() (model.Notification, bool) {
	return m.inbox.Selected()
}
