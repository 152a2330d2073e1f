package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/projectpulse/internal/app"
	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/credential"
	"github.com/nhle/projectpulse/internal/digest"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/rules"
	"github.com/nhle/projectpulse/internal/scheduler"
	"github.com/nhle/projectpulse/internal/server"
)

// digestPasswordEnv overrides the keyring entry for the IMAP password.
const digestPasswordEnv = "PULSE_DIGEST_PASSWORD"

func runCheck(ctx context.Context, e *env, args []string) error {
	res := e.rules.RunAll(ctx)

	renderTable(e.out, []string{"Rule", "New notifications"}, [][]string{
		{"overdue projects", fmt.Sprintf("%d", res.OverdueProjects)},
		{"upcoming deadlines", fmt.Sprintf("%d", res.UpcomingDeadlines)},
		{"inactive tasks", fmt.Sprintf("%d", res.InactiveTasks)},
		{"budget warnings", fmt.Sprintf("%d", res.BudgetWarnings)},
		{"total", fmt.Sprintf("%d", res.Total)},
	})

	if res.Failed() {
		for _, msg := range res.Errors {
			fmt.Fprintln(e.errOut, msg)
		}
		return fmt.Errorf("%d rules failed in run %s", len(res.Errors), res.RunID)
	}
	return nil
}

func runSchedule(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("schedule")
	interval := fs.Duration("interval", time.Duration(e.cfg.Scheduler.IntervalSec)*time.Second, "time between runs")
	withDigest := fs.Bool("digest", false, "mail a digest after runs that created notifications")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var digests *digest.Service
	if *withDigest {
		var err error
		if digests, err = e.digestService(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(e.rules, *interval,
		scheduler.WithLogger(e.logger),
		scheduler.OnResult(func(msg scheduler.CheckResultMsg) {
			r := msg.Result
			e.logger.Info("checks finished",
				"run", r.RunID, "total", r.Total, "overdue", r.OverdueProjects,
				"upcoming", r.UpcomingDeadlines, "inactive", r.InactiveTasks,
				"budget", r.BudgetWarnings, "errors", len(r.Errors))
			if digests == nil || r.Total == 0 {
				return
			}
			if _, err := digests.Send(ctx); err != nil {
				e.logger.Error("sending digest", "error", err)
			}
		}),
	)

	// Drain results; nothing reads them outside the TUI.
	go func() {
		for {
			select {
			case <-sched.Results():
			case <-ctx.Done():
				return
			}
		}
	}()

	return sched.Run(ctx)
}

func runInbox(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("inbox")
	user := fs.Int64("user", 0, "show notifications for this user and broadcasts")
	noChecks := fs.Bool("no-checks", false, "do not run the rules in the background")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := e.ruleOptions()
	cfg := app.Config{
		Notifications: e.notify,
		Rules:         opts,
		UserID:        optionalID(*user),
	}
	if !*noChecks {
		// Log output would draw over the alt screen.
		quiet := slog.New(slog.DiscardHandler)
		engine := rules.New(e.store, e.notify, quiet, opts)
		cfg.Checks = scheduler.New(engine, time.Duration(e.cfg.Scheduler.IntervalSec)*time.Second,
			scheduler.WithLogger(quiet))
	}

	p := tea.NewProgram(app.New(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running inbox: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("serve")
	addr := fs.String("addr", e.cfg.Server.Addr, "HTTP listen address")
	withChecks := fs.Bool("schedule", false, "also run the rules periodically")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(e.store, e.notify, e.stats, e.rules, e.logger)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if *withChecks {
		sched := scheduler.New(e.rules, time.Duration(e.cfg.Scheduler.IntervalSec)*time.Second,
			scheduler.WithLogger(e.logger))
		go func() {
			if err := sched.Run(ctx); err != nil {
				e.logger.Error("scheduler stopped", slog.String("error", err.Error()))
			}
		}()
		go func() {
			for {
				select {
				case <-sched.Results():
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	e.logger.Info("server stopped")
	return nil
}

func runDigest(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("digest")
	setPassword := fs.Bool("set-password", false, "store the IMAP password in the system keyring")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *setPassword {
		return e.storeDigestPassword()
	}

	svc, err := e.digestService()
	if err != nil {
		return err
	}
	n, err := svc.Send(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(e.out, "nothing unread, no digest sent")
		return nil
	}
	success(e.out, "digest with %d notifications delivered to %s", n, e.cfg.Digest.To)
	return nil
}

// digestService wires the IMAP mailer with the configured password.
func (e *env) digestService() (*digest.Service, error) {
	cfg := e.cfg.Digest
	if cfg.Host == "" || cfg.Username == "" {
		return nil, apperr.Validationf("digest", "digest.host and digest.username must be configured")
	}

	password := os.Getenv(digestPasswordEnv)
	if password == "" {
		ring, err := e.keyring()
		if err != nil {
			return nil, err
		}
		password, err = ring.Get(credential.DigestKey(cfg.Username, cfg.Host))
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, fmt.Errorf("no IMAP password stored, run 'pulse digest --set-password' or set %s", digestPasswordEnv)
			}
			return nil, err
		}
	}

	return digest.NewService(e.notify, digest.NewIMAPMailer(cfg, password), cfg, e.logger), nil
}

func (e *env) storeDigestPassword() error {
	cfg := e.cfg.Digest
	if cfg.Host == "" || cfg.Username == "" {
		return apperr.Validationf("digest", "digest.host and digest.username must be configured")
	}
	password, err := passwordPrompt(fmt.Sprintf("IMAP password for %s@%s", cfg.Username, cfg.Host))
	if err != nil {
		return err
	}
	if password == "" {
		return apperr.Validationf("password", "password must not be empty")
	}

	ring, err := e.keyring()
	if err != nil {
		return err
	}
	if err := ring.Set(credential.DigestKey(cfg.Username, cfg.Host), password); err != nil {
		return err
	}
	success(e.out, "password stored in the keyring")
	return nil
}

func runConfig(_ context.Context, e *env, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "show":
		c := e.cfg
		renderFields(e.out, [][2]string{
			{"config file", e.cfgPath},
			{"database.path", c.Database.Path},
			{"rules.upcoming_days", fmt.Sprintf("%d", c.Rules.UpcomingDays)},
			{"rules.inactive_days", fmt.Sprintf("%d", c.Rules.InactiveDays)},
			{"rules.budget_threshold", fmt.Sprintf("%g", c.Rules.BudgetThreshold)},
			{"scheduler.interval_sec", fmt.Sprintf("%d", c.Scheduler.IntervalSec)},
			{"server.addr", c.Server.Addr},
			{"log.level", c.Log.Level},
			{"log.format", c.Log.Format},
			{"digest.host", c.Digest.Host + ":" + c.Digest.Port},
			{"digest.to", c.Digest.To},
		})
		return nil

	case "init":
		fs := e.newFlagSet("config init")
		force := fs.Bool("force", false, "overwrite an existing file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if _, err := os.Stat(e.cfgPath); err == nil && !*force {
			return apperr.Conflictf("%s already exists, use --force to overwrite", e.cfgPath)
		}
		if err := model.SaveConfig(e.cfgPath, e.cfg); err != nil {
			return err
		}
		success(e.out, "configuration written to %s", e.cfgPath)
		return nil

	default:
		return fmt.Errorf("unknown config command %q (show, init)", strings.TrimSpace(sub))
	}
}
