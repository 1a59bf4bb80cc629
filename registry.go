package formopts

import (
	"fmt"
	"sort"
	"strings"
)

// Registry holds the option definitions and resolves their descriptors. It is
// immutable after construction and safe for concurrent use; the only shared
// mutable resource is the Store handed to Resolve.
type Registry struct {
	cfg   registryConfig
	order []string
	defs  map[string]Definition
	deps  map[string][]string
}

// NewRegistry validates defs and builds a registry. Definitions keep their
// declaration order, which is also the order ResolveAll uses.
func NewRegistry(defs []Definition, opts ...Option) (*Registry, error) {
	r := &Registry{
		cfg:  applyOptions(opts),
		defs: make(map[string]Definition, len(defs)),
		deps: make(map[string][]string, len(defs)),
	}
	if err := r.cfg.err(); err != nil {
		return nil, err
	}
	for _, def := range defs {
		if err := validateDefinition(def); err != nil {
			return nil, err
		}
		if _, exists := r.defs[def.Key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateOption, def.Key)
		}
		def.Guards = append([]Guard(nil), def.Guards...)
		r.defs[def.Key] = def
		r.order = append(r.order, def.Key)
		r.deps[def.Key] = collectDependencies(def)
	}
	if err := r.checkDependencies(); err != nil {
		return nil, err
	}
	for _, name := range r.cfg.functions.Names() {
		if _, clash := r.defs[name]; clash {
			return nil, fmt.Errorf("%w: function %q shadows an option key", ErrInvalidDefinition, name)
		}
	}
	if r.cfg.evaluator == nil {
		r.cfg.evaluator = r.defaultEvaluator()
	}
	if r.cfg.logger == nil {
		r.cfg.logger = EvaluatorLoggerFunc(nil)
	}
	return r, nil
}

func validateDefinition(def Definition) error {
	if strings.TrimSpace(def.Key) == "" {
		return fmt.Errorf("%w: key must not be empty", ErrInvalidDefinition)
	}
	if def.Input == nil {
		return fmt.Errorf("%w: option %q has no input", ErrInvalidDefinition, def.Key)
	}
	if err := def.Input.validate(); err != nil {
		return fmt.Errorf("%w: option %q: %v", ErrInvalidDefinition, def.Key, err)
	}
	for _, guard := range def.Guards {
		if err := guard.validate(); err != nil {
			return fmt.Errorf("%w: option %q: %v", ErrInvalidDefinition, def.Key, err)
		}
	}
	return nil
}

func collectDependencies(def Definition) []string {
	seen := map[string]struct{}{}
	add := func(keys []string) {
		for _, key := range keys {
			seen[key] = struct{}{}
		}
	}
	add(def.Input.dependencies())
	for _, guard := range def.Guards {
		add(guard.Keys())
	}
	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) checkDependencies() error {
	for _, key := range r.order {
		for _, dep := range r.deps[key] {
			if dep == key {
				return fmt.Errorf("%w: %s -> %s", ErrDependencyCycle, key, key)
			}
			if _, ok := r.defs[dep]; !ok {
				return fmt.Errorf("%w: option %q reads %q", ErrUnknownDependency, key, dep)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(r.order))
	var path []string
	var visit func(key string) error
	visit = func(key string) error {
		switch state[key] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, k := range path {
				if k == key {
					start = i
					break
				}
			}
			cycle := append(append([]string(nil), path[start:]...), key)
			return fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(cycle, " -> "))
		}
		state[key] = visiting
		path = append(path, key)
		for _, dep := range r.deps[key] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[key] = done
		return nil
	}
	for _, key := range r.order {
		if err := visit(key); err != nil {
			return err
		}
	}
	return nil
}

// Defaults returns a fresh copy of the static default table. Stores call it
// once at initialisation.
func (r *Registry) Defaults() map[string]any {
	out := make(map[string]any, len(r.order))
	for _, key := range r.order {
		out[key] = r.defs[key].Default
	}
	return out
}

// Keys returns option keys in declaration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Lookup returns the definition registered for key.
func (r *Registry) Lookup(key string) (Definition, bool) {
	def, ok := r.defs[key]
	return def, ok
}

// Input derives key's input from values without evaluating guards.
func (r *Registry) Input(key string, values Values) Input {
	def := r.mustDefinition(key)
	if values == nil {
		values = Values{}
	}
	return def.Input.input(values)
}

// Dependencies returns the keys read when computing key's descriptor, sorted.
func (r *Registry) Dependencies(key string) []string {
	r.mustDefinition(key)
	return append([]string(nil), r.deps[key]...)
}

// Sections returns section names in first-seen order.
func (r *Registry) Sections() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, key := range r.order {
		section := r.defs[key].Section
		if section == "" {
			continue
		}
		if _, ok := seen[section]; ok {
			continue
		}
		seen[section] = struct{}{}
		out = append(out, section)
	}
	return out
}

func (r *Registry) mustDefinition(key string) Definition {
	def, ok := r.defs[key]
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrUnknownOption, key))
	}
	return def
}
