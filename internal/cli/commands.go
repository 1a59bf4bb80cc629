package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	formopts "github.com/goliatone/go-form-options"
	"github.com/goliatone/go-form-options/internal/hydrate"
	"github.com/goliatone/go-form-options/schema/openapi"
	"github.com/spf13/cobra"
)

func newDefaultsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print every option's default value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			defaults := registry.Defaults()
			return a.render(cmd.OutOrStdout(), defaults, func(w io.Writer) error {
				fmt.Fprintln(w, header("Defaults"))
				for _, key := range registry.Keys() {
					fmt.Fprintf(w, "  %s %s\n", column(keyword(key)), value(display(defaults[key])))
				}
				return nil
			})
		},
	}
}

func newResolveCommand(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "resolve [key...]",
		Short: "Resolve option descriptors, correcting stale dependent values",
		Long: `Resolve computes the descriptor of each key (every option when none is
given) and rewrites stored values that are no longer a valid choice.

Examples:
  formctl resolve --store settings.yaml
  formctl resolve video_encoder --format json
  formctl resolve --dry-run   # describe only, never write`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				keys, err := selectKeys(s.registry, args)
				if err != nil {
					return err
				}
				ctx := cmd.Context()
				descriptors, values, err := resolve(ctx, s, keys, dryRun)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), descriptors, func(w io.Writer) error {
					return printDescriptors(w, descriptors, values)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "describe from stored values without reconciling")
	return cmd
}

func selectKeys(registry *formopts.Registry, args []string) ([]string, error) {
	if len(args) == 0 {
		return registry.Keys(), nil
	}
	for _, key := range args {
		if _, ok := registry.Lookup(key); !ok {
			return nil, fmt.Errorf("%w: %q", formopts.ErrUnknownOption, key)
		}
	}
	return args, nil
}

func resolve(ctx context.Context, s *session, keys []string, dryRun bool) ([]formopts.Descriptor, formopts.Values, error) {
	descriptors := make([]formopts.Descriptor, 0, len(keys))
	if dryRun {
		values, err := s.registry.Snapshot(ctx, s.stack)
		if err != nil {
			return nil, nil, err
		}
		for _, key := range keys {
			descriptors = append(descriptors, s.registry.Describe(key, values))
		}
		return descriptors, values, nil
	}
	for _, key := range keys {
		d, err := s.registry.Resolve(ctx, s.stack, key)
		if err != nil {
			return nil, nil, err
		}
		descriptors = append(descriptors, d)
	}
	values, err := s.registry.Snapshot(ctx, s.stack)
	if err != nil {
		return nil, nil, err
	}
	return descriptors, values, nil
}

func printDescriptors(w io.Writer, descriptors []formopts.Descriptor, values formopts.Values) error {
	section := ""
	for _, d := range descriptors {
		if d.Section != section {
			section = d.Section
			fmt.Fprintln(w, header(section))
		}
		name := d.Key
		if d.SubSetting {
			name = "  " + name
		}
		line := fmt.Sprintf("  %s %s %s", column(keyword(name)), value(display(values[d.Key])), muted(string(d.Widget())))
		if choices, ok := d.Choices(); ok {
			line += " " + muted("["+strings.Join(choices.Values(), ", ")+"]")
		}
		if !d.Visible {
			line += " " + warning("hidden")
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func newSetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value and reconcile the options depending on it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				key := args[0]
				parsed, err := hydrate.NewDecoder(s.registry).Parse(key, args[1])
				if err != nil {
					return err
				}
				ctx := cmd.Context()
				if err := s.stack.Set(ctx, key, parsed); err != nil {
					return err
				}
				if _, err := s.registry.ResolveAll(ctx, s.stack); err != nil {
					return err
				}
				return a.printSaved(cmd.OutOrStdout(), formopts.Values{key: parsed}, []string{key})
			})
		},
	}
}

func newImportCommand(a *app) *cobra.Command {
	var ignoreUnknown bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store every value from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			format := strings.TrimPrefix(filepath.Ext(path), ".")
			return a.withSession(func(s *session) error {
				var opts []hydrate.DecoderOption
				if ignoreUnknown {
					opts = append(opts, hydrate.WithIgnoreUnknown())
				}
				decoded, err := hydrate.NewDecoder(s.registry, opts...).
					DecodeDocument(hydrate.Context{Domain: a.domain, Source: path}, format, data)
				if err != nil {
					return err
				}
				ctx := cmd.Context()
				written := make([]string, 0, len(decoded))
				for _, key := range s.registry.Keys() {
					v, ok := decoded[key]
					if !ok {
						continue
					}
					if err := s.stack.Set(ctx, key, v); err != nil {
						return err
					}
					written = append(written, key)
				}
				if _, err := s.registry.ResolveAll(ctx, s.stack); err != nil {
					return err
				}
				return a.printSaved(cmd.OutOrStdout(), decoded, written)
			})
		},
	}
	cmd.Flags().BoolVar(&ignoreUnknown, "ignore-unknown", false, "skip keys that are not options")
	return cmd
}

func (a *app) printSaved(w io.Writer, values formopts.Values, keys []string) error {
	saved := make(formopts.Values, len(keys))
	for _, key := range keys {
		saved[key] = values[key]
	}
	return a.render(w, saved, func(w io.Writer) error {
		for _, key := range keys {
			fmt.Fprintf(w, "%s %s %s %s\n", success(iconCheck), keyword(key), iconArrow, value(display(values[key])))
		}
		return nil
	})
}

func newTraceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <key>",
		Short: "Show which scope supplies an option's value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				key := args[0]
				if _, ok := s.registry.Lookup(key); !ok {
					return fmt.Errorf("%w: %q", formopts.ErrUnknownOption, key)
				}
				trace, err := s.stack.Trace(cmd.Context(), key)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), trace, func(w io.Writer) error {
					fmt.Fprintf(w, "%s %s\n", header(trace.Key), value(display(trace.Effective)))
					for _, p := range trace.Layers {
						stored := muted("unset")
						if p.Found {
							stored = value(display(p.Value))
						}
						fmt.Fprintf(w, "  %s %s\n", column(keyword(p.Scope.Name())), stored)
					}
					fmt.Fprintf(w, "  %s %s\n", column(keyword("default")), muted(display(trace.Default)))
					return nil
				})
			})
		},
	}
}

func newOpenAPICommand(a *app) *cobra.Command {
	var (
		dryRun    bool
		component string
	)
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Export the resolved form as an OpenAPI document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				generator := openapi.NewGenerator(
					openapi.WithTitle("Video transcoder settings", "1.0.0"),
					openapi.WithDefaults(formopts.Values(s.registry.Defaults())),
					openapi.WithRootComponent(component),
				)
				ctx := cmd.Context()
				descriptors, _, err := resolve(ctx, s, s.registry.Keys(), dryRun)
				if err != nil {
					return err
				}
				doc, err := generator.Generate(formopts.Form{Descriptors: descriptors})
				if err != nil {
					return err
				}
				if a.format == formatText {
					a.format = formatJSON
				}
				return a.render(cmd.OutOrStdout(), doc.Document, nil)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "describe from stored values without reconciling")
	cmd.Flags().StringVar(&component, "component", "", "publish the form schema under this component name")
	return cmd
}

type evalResult struct {
	Engine     string `json:"engine"`
	Expression string `json:"expression"`
	Result     any    `json:"result"`
}

func newEvalCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate a guard expression against the stored values",
		Long: `Eval binds every option's effective value and runs expression with the
engine picked by --engine. key is empty and metadata.domain holds --domain.

Examples:
  formctl eval 'video_codec == "hevc" && !keep_container'
  formctl eval --engine cel 'mode in ["standard", "advanced"]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evaluator, err := a.evaluator()
			if err != nil {
				return err
			}
			if evaluator == nil {
				evaluator = formopts.NewExprEvaluator(formopts.ExprWithProgramCache(a.cache))
			}
			return a.withSession(func(s *session) error {
				values, err := s.registry.Snapshot(cmd.Context(), s.stack)
				if err != nil {
					return err
				}
				rule, err := evaluator.Compile(args[0], formopts.WithVariables(s.registry.Keys()...))
				if err != nil {
					return err
				}
				result, err := rule.Evaluate(formopts.RuleContext{
					Values:   values,
					Metadata: map[string]any{"domain": a.domain},
				})
				if err != nil {
					return err
				}
				out := evalResult{Engine: a.engine, Expression: args[0], Result: result}
				return a.render(cmd.OutOrStdout(), out, func(w io.Writer) error {
					fmt.Fprintf(w, "%s %s %s\n", keyword(out.Expression), iconArrow, value(display(result)))
					return nil
				})
			})
		},
	}
}
