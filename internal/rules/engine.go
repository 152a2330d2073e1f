// Package rules scans projects and tasks for time and budget conditions and
// emits deduplicated notifications.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
)

// Source is the read side of the store the rules consult.
type Source interface {
	GetProjects(ctx context.Context) ([]model.Project, error)
	GetProjectSummaries(ctx context.Context) ([]model.ProjectSummary, error)
	GetTaskActivity(ctx context.Context, onlyOpen bool) ([]model.TaskActivity, error)
	GetNotifiedTargets(ctx context.Context, kind model.RelatedKind) (map[int64]bool, error)
}

// Notifier persists the notifications a rule emits.
type Notifier interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// RunRecorder stores the outcome of each RunAll.
type RunRecorder interface {
	CreateCheckRun(ctx context.Context, run model.CheckRun) error
}

// Defaults used when Options leaves a parameter unset.
const (
	DefaultUpcomingDays    = 3
	DefaultInactiveDays    = 7
	DefaultBudgetThreshold = 0.8
)

// Options parameterizes RunAll.
type Options struct {
	UpcomingDays    int
	InactiveDays    int
	BudgetThreshold float64

	// Now is the clock; nil means time.Now.
	Now func() time.Time

	// Recorder, when set, receives a CheckRun after every RunAll.
	Recorder RunRecorder
}

// DefaultOptions returns the stock rule parameters.
func DefaultOptions() Options {
	return Options{
		UpcomingDays:    DefaultUpcomingDays,
		InactiveDays:    DefaultInactiveDays,
		BudgetThreshold: DefaultBudgetThreshold,
	}
}

// Engine evaluates the notification rules.
type Engine struct {
	src    Source
	notify Notifier
	logger *slog.Logger
	opts   Options
}

// New returns an Engine. A nil logger discards log output.
func New(src Source, notify Notifier, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{src: src, notify: notify, logger: logger, opts: opts}
}

// Options returns the parameters RunAll uses.
func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) today() time.Time {
	return model.DateOf(e.opts.Now())
}

// Result counts the notifications created by one RunAll. Errors holds one
// entry per rule that failed; the other rules still ran.
type Result struct {
	OverdueProjects   int      `json:"overdue_projects"`
	UpcomingDeadlines int      `json:"upcoming_deadlines"`
	InactiveTasks     int      `json:"inactive_tasks"`
	BudgetWarnings    int      `json:"budget_warnings"`
	Total             int      `json:"total"`
	Errors            []string `json:"errors,omitempty"`
	RunID             string   `json:"run_id"`
}

// Failed reports whether any rule failed.
func (r Result) Failed() bool {
	return len(r.Errors) > 0
}

// RunAll runs the overdue, upcoming, inactive and budget rules in that
// order. A failing rule is logged and recorded in Result.Errors without
// stopping the rules after it.
func (e *Engine) RunAll(ctx context.Context) Result {
	started := e.opts.Now()
	res := Result{RunID: uuid.New().String()}

	run := func(name string, count *int, check func() (int, error)) {
		n, err := check()
		*count = n
		if err != nil {
			e.logger.Error("rule failed", "rule", name, "run", res.RunID, "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", name, err))
			return
		}
		e.logger.Debug("rule finished", "rule", name, "run", res.RunID, "created", n)
	}

	run("overdue_projects", &res.OverdueProjects, func() (int, error) {
		return e.CheckOverdueProjects(ctx)
	})
	run("upcoming_deadlines", &res.UpcomingDeadlines, func() (int, error) {
		return e.CheckUpcomingDeadlines(ctx, e.opts.UpcomingDays)
	})
	run("inactive_tasks", &res.InactiveTasks, func() (int, error) {
		return e.CheckInactiveTasks(ctx, e.opts.InactiveDays)
	})
	run("budget_warnings", &res.BudgetWarnings, func() (int, error) {
		return e.CheckBudgetWarnings(ctx, e.opts.BudgetThreshold)
	})

	res.Total = res.OverdueProjects + res.UpcomingDeadlines + res.InactiveTasks + res.BudgetWarnings
	e.logger.Info("checks finished",
		"run", res.RunID,
		"total", res.Total,
		"overdue_projects", res.OverdueProjects,
		"upcoming_deadlines", res.UpcomingDeadlines,
		"inactive_tasks", res.InactiveTasks,
		"budget_warnings", res.BudgetWarnings,
		"errors", len(res.Errors),
	)

	if e.opts.Recorder != nil {
		err := e.opts.Recorder.CreateCheckRun(ctx, model.CheckRun{
			ID:                res.RunID,
			StartedAt:         started,
			FinishedAt:        e.opts.Now(),
			OverdueProjects:   res.OverdueProjects,
			UpcomingDeadlines: res.UpcomingDeadlines,
			InactiveTasks:     res.InactiveTasks,
			BudgetWarnings:    res.BudgetWarnings,
			Total:             res.Total,
			Errors:            res.Errors,
		})
		if err != nil {
			e.logger.Warn("recording check run", "run", res.RunID, "error", err)
		}
	}
	return res
}

// emitter creates notifications of one rule category, skipping targets
// that already have one.
type emitter struct {
	e        *Engine
	kind     model.RelatedKind
	notified map[int64]bool
	created  int
}

func (e *Engine) newEmitter(ctx context.Context, kind model.RelatedKind) (*emitter, error) {
	notified, err := e.src.GetNotifiedTargets(ctx, kind)
	if err != nil {
		return nil, err
	}
	return &emitter{e: e, kind: kind, notified: notified}, nil
}

func (em *emitter) seen(id int64) bool {
	return em.notified[id]
}

func (em *emitter) emit(ctx context.Context, id int64, typ model.NotificationType, title, message string) error {
	if em.notified[id] {
		return nil
	}
	n := &model.Notification{
		Title:   title,
		Message: message,
		Type:    typ,
		Related: &model.Ref{ID: id, Kind: em.kind},
	}
	if err := em.e.notify.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("notifying %s %d: %w", em.kind, id, err)
	}
	em.notified[id] = true
	em.created++
	return nil
}

func validateDays(days int) error {
	if days < 0 {
		return apperr.Validationf("days", "days must not be negative, got %d", days)
	}
	return nil
}
