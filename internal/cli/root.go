// Package cli implements the formctl commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	formopts "github.com/goliatone/go-form-options"
	"github.com/goliatone/go-form-options/layering"
	"github.com/goliatone/go-form-options/pkg/activity"
	"github.com/goliatone/go-form-options/pkg/activity/usersink"
	"github.com/goliatone/go-form-options/pkg/logging"
	"github.com/goliatone/go-form-options/pkg/state"
	"github.com/goliatone/go-form-options/pkg/transcoder"
	"github.com/spf13/cobra"
)

const activityChannel = "formctl"

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type app struct {
	storePath  string
	sqlitePath string
	domain     string
	scope      string
	actor      string
	format     string
	auditPath  string
	engine     string
	verbose    bool

	logger *log.Logger
	audit  *os.File
	cache  formopts.ProgramCache
}

// NewRootCommand builds the formctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{cache: formopts.NewProgramCache()}
	root := &cobra.Command{
		Use:   "formctl",
		Short: "Inspect and edit video transcoder settings",
		Long: `formctl resolves the video transcoder settings form against a settings
store, reconciling dependent selects the same way a host application would.

Values live in a YAML, JSON or CBOR file (--store) or a SQLite database
(--sqlite). Without either, an in-memory store is used.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.logger = logging.New(cmd.ErrOrStderr(), a.verbose)
			switch a.format {
			case formatText, formatJSON, formatYAML:
			default:
				return fmt.Errorf("unknown format %q (want text, json or yaml)", a.format)
			}
			if a.auditPath == "" {
				return nil
			}
			f, err := os.OpenFile(a.auditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return fmt.Errorf("open audit log: %w", err)
			}
			a.audit = f
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.audit == nil {
				return nil
			}
			return a.audit.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.storePath, "store", "", "settings file (.yaml, .yml, .json, .jsonc, .cbor)")
	flags.StringVar(&a.sqlitePath, "sqlite", "", "settings SQLite database")
	flags.StringVar(&a.domain, "domain", transcoder.Domain, "settings domain")
	flags.StringVar(&a.scope, "scope", "global", "settings scope: global, group.<id> or user.<id>")
	flags.StringVar(&a.actor, "actor", "", "actor recorded on activity events")
	flags.StringVar(&a.auditPath, "audit", "", "append activity records to this JSON lines file")
	flags.StringVarP(&a.format, "format", "o", formatText, "output format: text, json or yaml")
	flags.StringVar(&a.engine, "engine", "expr", "guard expression engine: expr, cel or js")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	root.MarkFlagsMutuallyExclusive("store", "sqlite")

	root.AddCommand(
		newDefaultsCommand(a),
		newResolveCommand(a),
		newSetCommand(a),
		newImportCommand(a),
		newTraceCommand(a),
		newOpenAPICommand(a),
		newEvalCommand(a),
	)
	return root
}

// Execute runs the command tree with the process arguments.
func Execute(stdout, stderr io.Writer) error {
	root := NewRootCommand()
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func (a *app) hooks() activity.Hooks {
	hooks := activity.Hooks{logging.ActivityHook(a.logger)}
	if a.audit != nil {
		hooks = append(hooks, usersink.Hook{Sink: &usersink.JSONLines{W: a.audit}})
	}
	return hooks
}

// evaluator returns the guard engine picked with --engine. expr is returned
// as nil so the registry builds its default.
func (a *app) evaluator() (formopts.Evaluator, error) {
	switch a.engine {
	case "", "expr":
		return nil, nil
	case "cel":
		return formopts.NewCELEvaluator(formopts.CELWithProgramCache(a.cache)), nil
	case "js":
		if !formopts.JSEvaluatorAvailable() {
			return nil, fmt.Errorf("engine js requires a build with the js_eval tag")
		}
		return formopts.NewJSEvaluator(formopts.JSWithProgramCache(a.cache)), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (want expr, cel or js)", a.engine)
	}
}

func (a *app) registry(opts ...formopts.Option) (*formopts.Registry, error) {
	evaluator, err := a.evaluator()
	if err != nil {
		return nil, err
	}
	base := []formopts.Option{
		formopts.WithProgramCache(a.cache),
		formopts.WithEvaluator(evaluator),
		formopts.WithEvaluatorLogger(logging.EvaluatorLogger(a.logger)),
		formopts.WithActivityHooks(a.hooks(), activityChannel),
		formopts.WithMetadata(map[string]any{"domain": a.domain}),
	}
	return transcoder.NewRegistry(append(base, opts...)...)
}

// session is an open settings stack. close must be called once done.
type session struct {
	registry *formopts.Registry
	stack    *layering.Stack
	close    func() error
}

func (a *app) open(opts ...formopts.Option) (*session, error) {
	registry, err := a.registry(opts...)
	if err != nil {
		return nil, err
	}
	store, closeStore, err := a.snapshotStore()
	if err != nil {
		return nil, err
	}

	scope, err := layering.ParseScope(a.scope)
	if err != nil {
		return nil, errors.Join(err, closeStore())
	}
	scopes := []layering.Scope{layering.Global()}
	if scope != layering.Global() {
		scopes = append(scopes, scope)
	}

	defaults := formopts.Values(registry.Defaults())
	layers := make([]layering.Layer, 0, len(scopes))
	for _, sc := range scopes {
		settings, err := state.NewSettings(store, state.Ref{Domain: a.domain, Scope: sc.Name()}, defaults,
			state.WithSettingsActivity(a.hooks(), activityChannel),
			state.WithSettingsActor(a.actor),
		)
		if err != nil {
			return nil, errors.Join(err, closeStore())
		}
		layers = append(layers, layering.Layer{Scope: sc, Source: settings})
	}
	stack, err := layering.NewStack(defaults, layers...)
	if err != nil {
		return nil, errors.Join(err, closeStore())
	}
	a.logger.Debug("settings opened", "domain", a.domain, "scopes", stack.Scopes(), "backend", a.backend())
	return &session{registry: registry, stack: stack, close: closeStore}, nil
}

func (a *app) backend() string {
	switch {
	case a.sqlitePath != "":
		return "sqlite:" + a.sqlitePath
	case a.storePath != "":
		return "file:" + a.storePath
	default:
		return "memory"
	}
}

func (a *app) snapshotStore() (state.Store[formopts.Values], func() error, error) {
	noop := func() error { return nil }
	switch {
	case a.sqlitePath != "":
		store, err := state.OpenSQLiteStore[formopts.Values](a.sqlitePath, state.SQLiteOptions{})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case a.storePath != "":
		store, err := state.NewFileStore[formopts.Values](a.storePath)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	default:
		return state.NewMemoryStore[formopts.Values](), noop, nil
	}
}

func (a *app) withSession(fn func(*session) error, opts ...formopts.Option) (err error) {
	s, err := a.open(opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close())
	}()
	return fn(s)
}
