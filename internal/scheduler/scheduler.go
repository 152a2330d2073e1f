// Package scheduler runs the notification rules periodically and on demand.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/projectpulse/internal/rules"
)

// State is the current state of the scheduler.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Status describes the last run.
type Status struct {
	State      State
	LastRun    time.Time
	LastResult rules.Result
	Runs       int
}

// CheckResultMsg is a tea.Msg sent when a run of all rules completes.
type CheckResultMsg struct {
	Result   rules.Result
	Finished time.Time
}

// Runner runs every rule once.
type Runner interface {
	RunAll(ctx context.Context) rules.Result
}

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = time.Hour

// runTimeout bounds a single run of all rules.
const runTimeout = 2 * time.Minute

// ErrAlreadyRunning is returned by Run when the scheduler is started twice.
var ErrAlreadyRunning = errors.New("scheduler already running")

// Scheduler triggers Runner.RunAll on a ticker and on request.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
	onResult func(CheckResultMsg)

	resultCh  chan CheckResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	stopOnce  sync.Once

	mu      sync.Mutex
	running bool
	status  Status
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// OnResult registers a hook called after every run, on the scheduler
// goroutine.
func OnResult(fn func(CheckResultMsg)) Option {
	return func(s *Scheduler) { s.onResult = fn }
}

// New creates a Scheduler running runner every interval.
func New(runner Runner, interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		runner:    runner,
		interval:  interval,
		logger:    slog.New(slog.DiscardHandler),
		resultCh:  make(chan CheckResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) markRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// Start runs the scheduler loop in the background and returns a tea.Cmd
// that delivers the first CheckResultMsg. It returns nil if the scheduler
// is already running.
func (s *Scheduler) Start(ctx context.Context) tea.Cmd {
	if !s.markRunning() {
		return nil
	}
	go s.loop(ctx)
	return s.waitForResult()
}

// Run runs the scheduler loop on the calling goroutine until ctx is
// cancelled or Stop is called.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.markRunning() {
		return ErrAlreadyRunning
	}
	s.loop(ctx)
	return nil
}

// Stop halts the loop. The scheduler cannot be restarted.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Trigger requests an immediate run. Requests made while one is pending
// are merged.
func (s *Scheduler) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// Results exposes completed runs for consumers outside Bubble Tea.
func (s *Scheduler) Results() <-chan CheckResultMsg {
	return s.resultCh
}

// Status returns the state of the most recent run.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) loop(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "interval", s.interval)
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", "reason", ctx.Err())
			return
		case <-s.stopCh:
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.triggerCh:
			s.runOnce(ctx)
		}
	}
}

// runOnce performs a single run and publishes its result.
func (s *Scheduler) runOnce(ctx context.Context) {
	s.setState(StateRunning)

	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()
	result := s.runner.RunAll(runCtx)

	msg := CheckResultMsg{Result: result, Finished: time.Now()}

	s.mu.Lock()
	s.status.Runs++
	s.status.LastRun = msg.Finished
	s.status.LastResult = result
	s.status.State = StateIdle
	if result.Failed() {
		s.status.State = StateFailed
	}
	s.mu.Unlock()

	if s.onResult != nil {
		s.onResult(msg)
	}
	s.sendResult(msg)
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = state
}

// sendResult sends a CheckResultMsg on the result channel without blocking.
func (s *Scheduler) sendResult(msg CheckResultMsg) {
	select {
	case s.resultCh <- msg:
	default:
		s.logger.Warn("dropping check result, no reader", "run", msg.Result.RunID)
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (s *Scheduler) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-s.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next run.
// Call it after handling a CheckResultMsg to keep listening.
func (s *Scheduler) WaitForNextResult() tea.Cmd {
	return s.waitForResult()
}
