package layering

import (
	"fmt"
	"slices"
	"strings"
)

// ScopeLevel identifies the precedence of a settings layer. Higher levels
// override lower levels.
type ScopeLevel int

const (
	ScopeLevelUnknown ScopeLevel = iota
	// ScopeLevelGlobal is the weakest layer, shared by every user.
	ScopeLevelGlobal
	// ScopeLevelGroup is a team or tenant override.
	ScopeLevelGroup
	// ScopeLevelUser is the strongest layer, holding per-user values.
	ScopeLevelUser
)

func (l ScopeLevel) String() string {
	switch l {
	case ScopeLevelGlobal:
		return "global"
	case ScopeLevelGroup:
		return "group"
	case ScopeLevelUser:
		return "user"
	default:
		return "unknown"
	}
}

// ParseScopeLevel converts a level name, case-insensitively. Unrecognised
// values map to ScopeLevelUnknown.
func ParseScopeLevel(value string) ScopeLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "global":
		return ScopeLevelGlobal
	case "group":
		return ScopeLevelGroup
	case "user":
		return ScopeLevelUser
	default:
		return ScopeLevelUnknown
	}
}

// Scope names one layer of a settings stack.
type Scope struct {
	Level ScopeLevel `json:"level"`
	// ID selects the group or user. Ignored for global scopes.
	ID string `json:"id,omitempty"`
}

// Global returns the global scope.
func Global() Scope { return Scope{Level: ScopeLevelGlobal} }

// Group returns the scope for group id.
func Group(id string) Scope { return Scope{Level: ScopeLevelGroup, ID: id} }

// User returns the scope for user id.
func User(id string) Scope { return Scope{Level: ScopeLevelUser, ID: id} }

// ParseScope reads "global", "group.<id>" or "user.<id>".
func ParseScope(value string) (Scope, error) {
	level, id, _ := strings.Cut(strings.TrimSpace(value), ".")
	scope := Scope{Level: ParseScopeLevel(level), ID: id}
	switch {
	case scope.Level == ScopeLevelUnknown:
		return Scope{}, fmt.Errorf("layering: unknown scope %q", value)
	case scope.Level == ScopeLevelGlobal && id != "":
		return Scope{}, fmt.Errorf("layering: global scope takes no id, got %q", value)
	case scope.Level != ScopeLevelGlobal && id == "":
		return Scope{}, fmt.Errorf("layering: scope %q requires an id", value)
	}
	return scope, nil
}

// Name returns the storage scope segment: "global", "group.<id>" or
// "user.<id>".
func (s Scope) Name() string {
	if s.Level == ScopeLevelGlobal || s.ID == "" {
		return s.Level.String()
	}
	return s.Level.String() + "." + s.ID
}

func (s Scope) String() string { return s.Name() }

// ScopeChain is a layering sequence ordered from strongest to weakest.
type ScopeChain struct {
	ordered []Scope
}

// NewScopeChain drops unknown and duplicate scopes and orders the rest with
// stronger levels first, keeping the relative order of peers.
func NewScopeChain(scopes ...Scope) ScopeChain {
	filtered := make([]Scope, 0, len(scopes))
	seen := map[string]struct{}{}

	for _, scope := range scopes {
		if scope.Level == ScopeLevelUnknown {
			continue
		}
		name := scope.Name()
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		filtered = append(filtered, scope)
	}

	slices.SortStableFunc(filtered, func(a, b Scope) int {
		return int(b.Level) - int(a.Level)
	})

	return ScopeChain{ordered: filtered}
}

// Ordered returns the scopes from strongest (index 0) to weakest.
func (c ScopeChain) Ordered() []Scope {
	out := make([]Scope, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Strongest returns the first scope in the chain (zero scope if empty).
func (c ScopeChain) Strongest() Scope {
	if len(c.ordered) == 0 {
		return Scope{}
	}
	return c.ordered[0]
}

// Weakest returns the final scope in the chain (zero scope if empty).
func (c ScopeChain) Weakest() Scope {
	if len(c.ordered) == 0 {
		return Scope{}
	}
	return c.ordered[len(c.ordered)-1]
}
