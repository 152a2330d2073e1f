package model

import (
	"strings"
	"time"

	"github.com/nhle/projectpulse/internal/apperr"
)

// Project status labels. Status is free text; these are the values the
// application writes and the rules compare against.
const (
	ProjectStatusInProgress = "in_progress"
	ProjectStatusDone       = "done"
)

// Deadlines further than this from today are rejected on save.
const (
	maxDeadlinePastYears   = 10
	maxDeadlineFutureYears = 20
)

// Project is a client engagement whose tasks are tracked against a deadline
// and a budget.
type Project struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Client    string    `json:"client" db:"client"`
	Deadline  *string   `json:"deadline,omitempty" db:"deadline"`
	Budget    float64   `json:"budget" db:"budget"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsDone reports whether the project has been closed.
func (p Project) IsDone() bool {
	return strings.EqualFold(strings.TrimSpace(p.Status), ProjectStatusDone)
}

// HasDeadline reports whether a deadline is set.
func (p Project) HasDeadline() bool {
	return p.Deadline != nil && strings.TrimSpace(*p.Deadline) != ""
}

// DeadlineDate parses the deadline. It fails when the deadline is missing
// or malformed, which can happen for rows written by older versions.
func (p Project) DeadlineDate() (time.Time, error) {
	if !p.HasDeadline() {
		return time.Time{}, apperr.Validationf("deadline", "project %d has no deadline", p.ID)
	}
	return ParseDate(*p.Deadline)
}

// Validate checks the project invariants relative to now.
func (p Project) Validate(now time.Time) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validationf("name", "project name must not be empty")
	}
	if strings.TrimSpace(p.Client) == "" {
		return apperr.Validationf("client", "project client must not be empty")
	}
	if p.Budget < 0 {
		return apperr.Validationf("budget", "project budget must not be negative")
	}
	if p.HasDeadline() {
		d, err := ParseDate(*p.Deadline)
		if err != nil {
			return apperr.Validationf("deadline", "invalid deadline %q, expected YYYY-MM-DD", *p.Deadline)
		}
		today := DateOf(now)
		if d.Before(today.AddDate(-maxDeadlinePastYears, 0, 0)) {
			return apperr.Validationf("deadline", "deadline %s is more than %d years in the past", *p.Deadline, maxDeadlinePastYears)
		}
		if d.After(today.AddDate(maxDeadlineFutureYears, 0, 0)) {
			return apperr.Validationf("deadline", "deadline %s is more than %d years in the future", *p.Deadline, maxDeadlineFutureYears)
		}
	}
	return nil
}
