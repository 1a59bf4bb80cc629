package formopts

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type guardOp int

const (
	guardEquals guardOp = iota + 1
	guardIn
	guardTruthy
	guardFalsy
	guardExpr
)

// Guard gates an option's visibility on the current value of other options.
// Every guard declares the keys it reads so the registry can check the
// dependency graph for cycles.
type Guard struct {
	op         guardOp
	key        string
	values     []any
	expression string
	keys       []string
}

// Equals is satisfied when key currently holds value.
func Equals(key string, value any) Guard {
	return Guard{op: guardEquals, key: key, values: []any{value}}
}

// In is satisfied when key currently holds one of values.
func In(key string, values ...any) Guard {
	return Guard{op: guardIn, key: key, values: append([]any(nil), values...)}
}

// IsTrue is satisfied when key holds true, a non-zero number or a string
// strconv.ParseBool reads as true. Any other string counts as false.
func IsTrue(key string) Guard {
	return Guard{op: guardTruthy, key: key}
}

// IsFalse is the complement of IsTrue. It gates override settings whose parent
// option means "use the default instead".
func IsFalse(key string) Guard {
	return Guard{op: guardFalsy, key: key}
}

// Expr is satisfied when expression evaluates to true. keys lists every option
// the expression reads; only those values are bound into the evaluation.
func Expr(expression string, keys ...string) Guard {
	return Guard{op: guardExpr, expression: expression, keys: append([]string(nil), keys...)}
}

// Keys returns the option keys the guard reads.
func (g Guard) Keys() []string {
	if g.op == guardExpr {
		return append([]string(nil), g.keys...)
	}
	if g.key == "" {
		return nil
	}
	return []string{g.key}
}

func (g Guard) String() string {
	switch g.op {
	case guardEquals:
		return fmt.Sprintf("%s == %v", g.key, g.values[0])
	case guardIn:
		parts := make([]string, len(g.values))
		for i, v := range g.values {
			parts[i] = fmt.Sprint(v)
		}
		return fmt.Sprintf("%s in [%s]", g.key, strings.Join(parts, ", "))
	case guardTruthy:
		return g.key
	case guardFalsy:
		return "!" + g.key
	case guardExpr:
		return g.expression
	default:
		return "<invalid guard>"
	}
}

func (g Guard) validate() error {
	switch g.op {
	case guardEquals, guardIn, guardTruthy, guardFalsy:
		if g.key == "" {
			return fmt.Errorf("guard %s: key must not be empty", g)
		}
	case guardExpr:
		if strings.TrimSpace(g.expression) == "" {
			return fmt.Errorf("guard expression must not be empty")
		}
	default:
		return fmt.Errorf("guard is not initialised")
	}
	return nil
}

// allow evaluates the guard. Expression failures are returned so the caller
// can log them; the guard is then treated as unsatisfied.
func (g Guard) allow(values Values, expr func(Guard, Values) (bool, error)) (bool, error) {
	switch g.op {
	case guardEquals:
		return sameValue(values[g.key], g.values[0]), nil
	case guardIn:
		current := values[g.key]
		for _, candidate := range g.values {
			if sameValue(current, candidate) {
				return true, nil
			}
		}
		return false, nil
	case guardTruthy:
		return truthy(values[g.key]), nil
	case guardFalsy:
		return !truthy(values[g.key]), nil
	case guardExpr:
		return expr(g, values)
	default:
		return false, nil
	}
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta.Comparable() && tb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && parsed
	default:
		if f, ok := asFloat(t); ok {
			return f != 0
		}
		return true
	}
}
