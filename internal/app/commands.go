package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// actionDoneMsg reports the outcome of a notification action.
type actionDoneMsg struct {
	action string
	id     int64
	text   string
	err    error
}

// fetchUnreadCount returns a tea.Cmd that counts unread notifications.
func (m Model) fetchUnreadCount() tea.Cmd {
	svc, userID := m.svc, m.userID
	return func() tea.Msg {
		n, err := svc.UnreadCount(context.Background(), userID)
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: n}
	}
}

func (m Model) markRead(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		err := svc.MarkRead(context.Background(), id)
		return actionDoneMsg{action: "read", id: id, text: fmt.Sprintf("notification %d marked read", id), err: err}
	}
}

func (m Model) markAllRead() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		n, err := svc.MarkAllRead(context.Background())
		return actionDoneMsg{action: "read-all", text: fmt.Sprintf("%d notifications marked read", n), err: err}
	}
}

func (m Model) deleteNotification(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		err := svc.Delete(context.Background(), id)
		return actionDoneMsg{action: "delete", id: id, text: fmt.Sprintf("notification %d deleted", id), err: err}
	}
}

func (m Model) purgeRead() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		n, err := svc.DeleteAllRead(context.Background())
		return actionDoneMsg{action: "purge", text: fmt.Sprintf("%d read notifications deleted", n), err: err}
	}
}
