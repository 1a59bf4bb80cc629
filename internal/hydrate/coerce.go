package hydrate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	formopts "github.com/goliatone/go-form-options"
)

// Coerce converts raw into the Go type stored for input: bool for
// checkboxes, int for sliders and string otherwise. Strings are parsed, and
// numeric types from JSON, YAML or CBOR decoders are narrowed to int.
// Slider values outside the bounds are rejected, as are select values missing
// from a non-empty choice set. An empty set, a SelectBy whose discriminator is
// unknown, accepts any string and leaves it to reconciliation.
func Coerce(input formopts.Input, raw any) (any, error) {
	switch in := input.(type) {
	case formopts.BooleanInput:
		return coerceBool(raw)
	case formopts.RangeInput:
		n, err := coerceInt(raw)
		if err != nil {
			return nil, err
		}
		if n < in.Min || n > in.Max {
			return nil, fmt.Errorf("%d outside [%d, %d]", n, in.Min, in.Max)
		}
		return n, nil
	case formopts.SelectInput:
		s, err := coerceString(raw)
		if err != nil {
			return nil, err
		}
		if len(in.Choices) > 0 && !in.Choices.Contains(s) {
			return nil, fmt.Errorf("%q is not one of [%s]", s, strings.Join(in.Choices.Values(), ", "))
		}
		return s, nil
	default:
		return coerceString(raw)
	}
}

func coerceBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("expected a boolean, got %q", v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected a boolean, got %T", raw)
	}
}

func coerceInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		if v > math.MaxInt {
			return 0, fmt.Errorf("%d overflows int", v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expected an integer, got %v", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", raw)
	}
}

func coerceString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", raw)
	}
}
