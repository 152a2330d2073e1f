// Package cli implements the pulse command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/credential"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/notify"
	"github.com/nhle/projectpulse/internal/rules"
	"github.com/nhle/projectpulse/internal/stats"
	"github.com/nhle/projectpulse/internal/store"
)

// command is one pulse subcommand.
type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
	// noStore commands run without opening the database.
	noStore bool
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"check":         {summary: "run every notification rule once", run: runCheck},
		"schedule":      {summary: "run the rules periodically until interrupted", run: runSchedule},
		"inbox":         {summary: "open the interactive notification inbox", run: runInbox},
		"notifications": {summary: "list, add, read and delete notifications", run: runNotifications},
		"progress":      {summary: "show completion and spend of a project", run: runProgress},
		"cost":          {summary: "show labor cost against a project budget", run: runCost},
		"salary":        {summary: "compute a developer's pay for a period", run: runSalary},
		"report":        {summary: "projects | workload | overdue-tasks | revenue", run: runReport},
		"history":       {summary: "list recent rule runs", run: runHistory},
		"digest":        {summary: "mail a digest of unread notifications", run: runDigest},
		"serve":         {summary: "serve the JSON HTTP API", run: runServe},
		"config":        {summary: "show | init the configuration file", run: runConfig, noStore: true},
	}
}

// Option customizes Run. Tests use them to pin the clock and stub
// interactive or system collaborators.
type Option func(*env)

// WithClock sets the time source of the store, rules and reports.
func WithClock(now func() time.Time) Option {
	return func(e *env) { e.now = now }
}

// WithConfirm replaces the interactive yes/no prompt.
func WithConfirm(fn func(title string) (bool, error)) Option {
	return func(e *env) { e.confirm = fn }
}

// WithKeyring replaces the system keyring used for the digest password.
func WithKeyring(open func() (*credential.Store, error)) Option {
	return func(e *env) { e.keyring = open }
}

// env is the state shared by subcommands.
type env struct {
	out     io.Writer
	errOut  io.Writer
	cfg     *model.AppConfig
	cfgPath string
	logger  *slog.Logger
	now     func() time.Time
	confirm func(title string) (bool, error)
	keyring func() (*credential.Store, error)

	store  *store.SQLiteStore
	notify *notify.Service
	stats  *stats.Engine
	rules  *rules.Engine
}

// Run parses args (without the program name) and executes the selected
// subcommand.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...Option) error {
	e := &env{
		out:     stdout,
		errOut:  stderr,
		now:     time.Now,
		confirm: confirmPrompt,
		keyring: credential.Open,
	}
	for _, opt := range opts {
		opt(e)
	}

	fs := pflag.NewFlagSet("pulse", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.StringVar(&e.cfgPath, "config", model.DefaultConfigPath(), "path to the YAML configuration file")
	fs.String("db", "", "path to the SQLite database (overrides database.path)")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return pflag.ErrHelp
	}

	v := model.NewViper(e.cfgPath)
	if err := bindFlags(v, fs); err != nil {
		return err
	}
	cfg, err := model.LoadConfigFrom(v)
	if err != nil {
		return err
	}
	e.cfg = cfg

	e.logger, err = newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fs.Usage()
		return fmt.Errorf("unknown command %q", name)
	}

	if !cmd.noStore {
		if err := e.open(); err != nil {
			return err
		}
		defer e.store.Close()
	}
	return cmd.run(ctx, e, rest)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, flag := range map[string]string{"database.path": "db", "log.level": "log-level"} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// open creates the database and the services on top of it.
func (e *env) open() error {
	path := e.cfg.Database.Path
	if path != ":memory:" {
		if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	s, err := store.NewSQLiteStore(path, store.WithClock(e.now))
	if err != nil {
		return err
	}
	e.store = s
	e.notify = notify.NewService(s, e.logger)
	e.stats = stats.New(s, e.now)
	e.rules = rules.New(s, e.notify, e.logger, e.ruleOptions())
	e.logger.Debug("database opened", "path", path)
	return nil
}

func (e *env) ruleOptions() rules.Options {
	return rules.Options{
		UpcomingDays:    e.cfg.Rules.UpcomingDays,
		InactiveDays:    e.cfg.Rules.InactiveDays,
		BudgetThreshold: e.cfg.Rules.BudgetThreshold,
		Now:             e.now,
		Recorder:        e.store,
	}
}

func dirOf(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i > 0 {
		return path[:i]
	}
	return "."
}

// newLogger builds the slog logger selected by the log config.
func newLogger(cfg model.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log.level %q: %w", cfg.Level, err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log.format %q, expected text or json", cfg.Format)
	}
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: pulse [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
}

// newFlagSet returns a subcommand flag set writing errors to e.errOut.
func (e *env) newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.errOut)
	return fs
}

// parseID reads a positive integer id argument.
func parseID(args []string, what string) (int64, error) {
	if len(args) != 1 {
		return 0, apperr.Validationf("id", "expected exactly one %s id", what)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validationf("id", "invalid %s id %q", what, args[0])
	}
	return id, nil
}

// parseDateFlag reads an optional YYYY-MM-DD flag value.
func parseDateFlag(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validationf(name, "invalid --%s %q, expected YYYY-MM-DD", name, raw)
	}
	return &d, nil
}

// optionalID turns a zero flag value into nil.
func optionalID(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

// IsHelp reports whether err only signals that usage was printed.
func IsHelp(err error) bool {
	return errors.Is(err, pflag.ErrHelp)
}
