package help

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/projectpulse/internal/keys"
	"github.com/nhle/projectpulse/internal/rules"
)

func TestView_ShowsShortcutsAndRuleSettings(t *testing.T) {
	m := New(keys.DefaultKeyMap(), rules.Options{UpcomingDays: 3, InactiveDays: 7, BudgetThreshold: 0.8}, 120, 40)

	view := m.View()

	assert.Contains(t, view, "Keyboard Shortcuts")
	assert.Contains(t, view, "mark read")
	assert.Contains(t, view, "deadline reminder 3 days ahead")
	assert.Contains(t, view, "inactive after 7 days")
	assert.Contains(t, view, "budget warning at 80%")
}
