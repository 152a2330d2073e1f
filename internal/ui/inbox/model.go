// Package inbox is the notification list view.
package inbox

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/projectpulse/internal/keys"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/notify"
	"github.com/nhle/projectpulse/internal/theme"
)

// pageSize bounds how many notifications the view loads at once.
const pageSize = 500

// Lister loads notifications for display.
type Lister interface {
	List(ctx context.Context, f notify.Filter) ([]model.Notification, error)
}

// NotificationsLoadedMsg is sent when notifications have been loaded.
type NotificationsLoadedMsg struct {
	Notifications []model.Notification
	Err           error
}

// SelectedNotificationMsg is sent when the user opens a notification.
type SelectedNotificationMsg struct {
	Notification model.Notification
}

// Model is the notification list view component.
type Model struct {
	list       list.Model
	source     Lister
	keys       *keys.KeyMap
	onlyUnread bool
	userID     *int64
	loadErr    error
	width      int
	height     int
}

// New creates a new inbox model. userID limits the list to notifications
// addressed to that user plus broadcasts; nil shows everything.
func New(src Lister, k *keys.KeyMap, userID *int64, width, height int) Model {
	delegate := ItemDelegate{now: time.Now}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		source: src,
		keys:   k,
		userID: userID,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the notifications.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case NotificationsLoadedMsg:
		m.loadErr = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Notifications))
		for i, n := range msg.Notifications {
			items[i] = NotificationItem{Notification: n}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Select):
			n, ok := m.Selected()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return SelectedNotificationMsg{Notification: n}
			}

		case key.Matches(msg, m.keys.ToggleUnread):
			m.onlyUnread = !m.onlyUnread
			return m, m.Load()
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Selected returns the focused notification, if any.
func (m Model) Selected() (model.Notification, bool) {
	item, ok := m.list.SelectedItem().(NotificationItem)
	if !ok {
		return model.Notification{}, false
	}
	return item.Notification, true
}

// OnlyUnread reports whether read notifications are hidden.
func (m Model) OnlyUnread() bool {
	return m.onlyUnread
}

// Len returns the number of notifications shown.
func (m Model) Len() int {
	return len(m.list.Items())
}

// View renders the inbox.
func (m Model) View() string {
	if m.loadErr != nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(theme.ErrorStyle.Render("Could not load notifications: " + m.loadErr.Error()))
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no notifications are shown.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.onlyUnread {
		return style.Render("No unread notifications.\nPress u to show all.")
	}

	return style.Render(
		"No notifications yet.\n\n" +
			"Press c to run the checks now.",
	)
}

// Load returns a tea.Cmd that queries the notifications with the current
// filter.
func (m Model) Load() tea.Cmd {
	f := notify.Filter{Limit: pageSize, OnlyUnread: m.onlyUnread, UserID: m.userID}
	src := m.source
	return func() tea.Msg {
		list, err := src.List(context.Background(), f)
		return NotificationsLoadedMsg{Notifications: list, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
