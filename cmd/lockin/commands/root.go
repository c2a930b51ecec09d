// Package commands implements lockin, the command line client for the
// lockin API.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benvon/lockin/internal/cli"
	"github.com/benvon/lockin/internal/client"
	"github.com/benvon/lockin/internal/config"
	"github.com/benvon/lockin/internal/logger"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/store"
	"github.com/benvon/lockin/internal/tracker"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit statuses.
const (
	ExitOK            = 0
	ExitError         = 1
	ExitMissingConfig = 2
)

// annotation keys
const (
	annotationAuth = "lockin/auth"
	authNone       = "none"
)

// reportedError marks a failure that was already shown while the command ran.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

var errSignedOut = errors.New("the API rejected your credential: run \"lockin login\" or update LOCKIN_API_TOKEN")

// Backend is everything the client needs from the API.
type Backend interface {
	store.TaskStore
	store.WorkLogStore
	store.SessionStore
	store.ProfileStore
	store.BlobStore
	store.Identity
	store.HypeSource
}

// BackendFactory builds the Backend for a loaded configuration.
type BackendFactory func(cfg *config.ClientConfig, log *zap.Logger) Backend

func httpBackend(cfg *config.ClientConfig, log *zap.Logger) Backend {
	return client.New(cfg.APIURL, cfg.APIToken,
		client.WithRateLimit(cfg.RequestsPerSecond),
		client.WithLogger(log),
	)
}

// app is the per-invocation state shared by every subcommand.
type app struct {
	newBackend BackendFactory
	now        func() time.Time
	debug      bool

	cfg     *config.ClientConfig
	log     *zap.Logger
	backend Backend
	state   *tracker.AppState
	profile *models.Profile
	tasks   *tracker.TaskAggregator
	logs    *tracker.WorkLogAggregator

	// set by the task OnError hook
	notified bool
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.ErrMissingConfig):
		return ExitMissingConfig
	default:
		return ExitError
	}
}

// ReportError writes the final notice for an Execute error to w. Missing
// configuration and failures already shown by the command print nothing.
func ReportError(w io.Writer, err error) {
	if err == nil || ExitCode(err) == ExitMissingConfig {
		return
	}
	var r reportedError
	if errors.As(err, &r) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// NewRootCmd assembles every lockin subcommand against the HTTP API.
func NewRootCmd() *cobra.Command {
	return newRootCmd(httpBackend, time.Now)
}

func newRootCmd(factory BackendFactory, now func() time.Time) *cobra.Command {
	a := &app{newBackend: factory, now: now}

	root := &cobra.Command{
		Use:           "lockin",
		Short:         "Lock in: tasks, hours and focus sessions from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging on stderr")

	root.AddCommand(newTasksCmd(a))
	root.AddCommand(newLogCmd(a))
	root.AddCommand(newStatsCmd(a))
	root.AddCommand(newHeatmapCmd(a))
	root.AddCommand(newHypeCmd(a))
	root.AddCommand(newFocusCmd(a))
	root.AddCommand(newProfileCmd(a))
	root.AddCommand(newBeatCmd(a))
	root.AddCommand(newThemeCmd(a))
	root.AddCommand(newSettingsCmd(a))
	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newLogoutCmd(a))
	return root
}

// setup loads configuration and resolves the current user. Commands
// annotated with authNone only need the API URL.
func (a *app) setup(cmd *cobra.Command) error {
	log, err := logger.NewCLILogger(a.debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = log

	if cmd.Annotations[annotationAuth] == authNone {
		cfg, err := config.LoadClientForLogin()
		if err != nil {
			return a.missingConfig(cmd, err)
		}
		a.cfg = cfg
		return nil
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return a.missingConfig(cmd, err)
	}
	a.cfg = cfg
	a.backend = a.newBackend(cfg, log)
	a.state = tracker.NewAppState(cfg.Theme)
	a.tasks = tracker.NewTaskAggregator(a.backend, log)
	a.logs = tracker.NewWorkLogAggregator(a.backend, log)
	a.tasks.OnError = func(op string, err error) {
		fmt.Fprintf(cmd.ErrOrStderr(), "! %s failed, local changes reverted: %v\n", op, err)
		a.notified = true
	}
	tracker.Bind(a.state, a.tasks, a.logs)

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()
	me, err := a.state.Refresh(ctx, a.backend)
	if err != nil {
		return err
	}
	if me == nil {
		return errSignedOut
	}
	a.profile = me.Profile
	a.log.Debug("identity_resolved", zap.String("user_id", logger.SanitizeUserID(a.state.Owner())))
	return nil
}

// missingConfig prints the static instructions for ErrMissingConfig and
// passes every error through.
func (a *app) missingConfig(cmd *cobra.Command, err error) error {
	if errors.Is(err, config.ErrMissingConfig) {
		fmt.Fprint(cmd.ErrOrStderr(), cli.MissingConfigMessage)
	}
	return err
}

// reported marks err as shown when the OnError hook already printed it.
func (a *app) reported(err error) error {
	if err == nil || !a.notified {
		return err
	}
	a.notified = false
	return reportedError{err}
}

func (a *app) teardown() {
	if a.state != nil {
		a.state.Close()
	}
	_ = logger.Sync(a.log)
}

func (a *app) owner() string {
	if a.state == nil {
		return ""
	}
	return a.state.Owner()
}

// birth returns the configured birth date, or nil.
func (a *app) birth() *time.Time {
	if b, ok := a.cfg.Settings.Birth(); ok {
		return &b
	}
	return nil
}

func (a *app) today() string {
	return a.now().Format(models.DateLayout)
}

// resolveTask finds a task by its 1-based list position, full id or id
// prefix.
func resolveTask(tasks []*models.Task, ref string) (*models.Task, error) {
	ref = strings.TrimSpace(ref)
	var n int
	if _, err := fmt.Sscanf(ref, "%d", &n); err == nil && fmt.Sprint(n) == ref {
		if n < 1 || n > len(tasks) {
			return nil, fmt.Errorf("%w: no task #%d", tracker.ErrTaskNotFound, n)
		}
		return tasks[n-1], nil
	}
	if id, err := uuid.Parse(ref); err == nil {
		for _, t := range tasks {
			if t.ID == id {
				return t, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", tracker.ErrTaskNotFound, ref)
	}

	var match *models.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID.String(), strings.ToLower(ref)) {
			if match != nil {
				return nil, fmt.Errorf("task reference %q is ambiguous", ref)
			}
			match = t
		}
	}
	if match == nil || len(ref) < 4 {
		return nil, fmt.Errorf("%w: %s", tracker.ErrTaskNotFound, ref)
	}
	return match, nil
}
