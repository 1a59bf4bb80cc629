package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// render writes v in the selected format. text is used for the text format.
func (a *app) render(w io.Writer, v any, text func(io.Writer) error) error {
	switch a.format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		plain, err := plainValue(v)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(plain)
		if err != nil {
			return fmt.Errorf("format yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return text(w)
	}
}

// plainValue round-trips v through JSON so YAML output honours MarshalJSON
// and json tags.
func plainValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("format yaml: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("format yaml: %w", err)
	}
	return out, nil
}

func display(v any) string {
	switch v := v.(type) {
	case nil:
		return `""`
	case string:
		if v == "" {
			return `""`
		}
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprint(v)
	}
}
