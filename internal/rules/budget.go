package rules

import (
	"context"
	"fmt"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
)

// budgetEpsilon absorbs float error so that a cost exactly at the threshold
// still counts as reaching it.
const budgetEpsilon = 1e-9

// CheckBudgetWarnings notifies about projects whose labor cost reached
// threshold (a fraction, 0.8 = 80%) of their budget. Projects at or over
// budget get an error notification instead of a warning.
func (e *Engine) CheckBudgetWarnings(ctx context.Context, threshold float64) (int, error) {
	if threshold <= 0 {
		return 0, apperr.Validationf("threshold", "threshold must be positive, got %g", threshold)
	}
	summaries, err := e.src.GetProjectSummaries(ctx)
	if err != nil {
		return 0, err
	}
	em, err := e.newEmitter(ctx, model.RelatedBudgetWarning)
	if err != nil {
		return 0, err
	}

	for _, s := range summaries {
		if s.Budget <= 0 || em.seen(s.ID) {
			continue
		}
		cost := s.LaborCost
		if cost < s.Budget*threshold-budgetEpsilon*s.Budget {
			continue
		}
		typ := model.NotificationWarning
		if cost >= s.Budget {
			typ = model.NotificationError
		}
		err = em.emit(ctx, s.ID, typ,
			"Budget warning",
			fmt.Sprintf("Project '%s' has used %.1f%% of its budget (%.2f of %.2f).",
				s.Name, cost/s.Budget*100, cost, s.Budget),
		)
		if err != nil {
			return em.created, err
		}
	}
	return em.created, nil
}
