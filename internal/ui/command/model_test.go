package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"check", "check"},
		{"ch", "check"},
		{"pur", "purge-read"},
		{"re", "re"},
		{"rel", "reload"},
		{"read", "read-all"},
		{"u", "unread"},
		{"bogus", "bogus"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Resolve(tt.in), tt.in)
	}
}

func TestUpdate_EnterEmitsResolvedCommand(t *testing.T) {
	m := New(80, 24)
	for _, r := range "PUR" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg("purge-read"), cmd())
	assert.Empty(t, m.input.Value())
}

func TestUpdate_EnterOnEmptyInput(t *testing.T) {
	m := New(80, 24)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestView_ListsCommands(t *testing.T) {
	view := New(80, 24).View()

	assert.Contains(t, view, "Command Palette")
	assert.Contains(t, view, "purge-read")
}
