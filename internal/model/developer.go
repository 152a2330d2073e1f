package model

import (
	"strings"

	"github.com/nhle/projectpulse/internal/apperr"
)

// Developer positions.
const (
	PositionFrontend  = "frontend"
	PositionBackend   = "backend"
	PositionFullstack = "fullstack"
	PositionDesigner  = "designer"
	PositionTester    = "tester"
	PositionManager   = "manager"
)

// Positions lists the accepted developer positions.
var Positions = []string{
	PositionFrontend,
	PositionBackend,
	PositionFullstack,
	PositionDesigner,
	PositionTester,
	PositionManager,
}

// Developer is a person whose hours are billed against project budgets.
type Developer struct {
	ID         int64   `json:"id" db:"id"`
	FullName   string  `json:"full_name" db:"full_name"`
	Position   string  `json:"position" db:"position"`
	HourlyRate float64 `json:"hourly_rate" db:"hourly_rate"`
}

// Validate checks the developer invariants.
func (d Developer) Validate() error {
	if strings.TrimSpace(d.FullName) == "" {
		return apperr.Validationf("full_name", "developer name must not be empty")
	}
	valid := false
	for _, p := range Positions {
		if d.Position == p {
			valid = true
			break
		}
	}
	if !valid {
		return apperr.Validationf("position", "invalid position %q, expected one of %s",
			d.Position, strings.Join(Positions, ", "))
	}
	if d.HourlyRate <= 0 {
		return apperr.Validationf("hourly_rate", "hourly rate must be positive")
	}
	return nil
}
