package openapi

import (
	"fmt"

	formopts "github.com/goliatone/go-form-options"
)

type generator struct {
	config config
}

// NewGenerator constructs a generator that renders a resolved form as an
// OpenAPI document describing the settings update request.
func NewGenerator(opts ...GeneratorOption) formopts.SchemaGenerator {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

// Option returns a registry option that wires the OpenAPI generator in.
func Option(opts ...GeneratorOption) formopts.Option {
	return formopts.WithSchemaGenerator(NewGenerator(opts...))
}

func (g generator) Generate(form formopts.Form) (formopts.SchemaDocument, error) {
	if err := g.config.validate(); err != nil {
		return formopts.SchemaDocument{}, err
	}
	root, err := g.formSchema(form)
	if err != nil {
		return formopts.SchemaDocument{}, err
	}
	return formopts.SchemaDocument{
		Format:   formopts.SchemaFormatOpenAPI,
		Document: g.config.document(root),
	}, nil
}

func (g generator) formSchema(form formopts.Form) (map[string]any, error) {
	properties := make(map[string]any, len(form.Descriptors))
	order := make([]string, 0, len(form.Descriptors))
	sections := make([]string, 0)
	seenSection := map[string]struct{}{}

	for i, d := range form.Descriptors {
		if d.Key == "" {
			return nil, fmt.Errorf("openapi: descriptor %d has no key", i)
		}
		if _, dup := properties[d.Key]; dup {
			return nil, fmt.Errorf("openapi: duplicate descriptor %q", d.Key)
		}
		if !d.Visible && !g.config.hidden {
			continue
		}
		properties[d.Key] = g.propertySchema(d, len(order))
		order = append(order, d.Key)
		if d.Section == "" {
			continue
		}
		if _, ok := seenSection[d.Section]; !ok {
			seenSection[d.Section] = struct{}{}
			sections = append(sections, d.Section)
		}
	}

	formgen := map[string]any{"order": order}
	if len(sections) > 0 {
		formgen["sections"] = sections
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
		"x-formgen":            formgen,
	}, nil
}

func (g generator) propertySchema(d formopts.Descriptor, position int) map[string]any {
	schema := map[string]any{}
	switch input := d.Input.(type) {
	case formopts.BooleanInput:
		schema["type"] = "boolean"
	case formopts.SelectInput:
		schema["type"] = "string"
		// Empty choice sets carry no enum.
		if values := input.Choices.Values(); len(values) > 0 {
			schema["enum"] = values
		}
	case formopts.RangeInput:
		schema["type"] = "integer"
		schema["minimum"] = input.Min
		schema["maximum"] = input.Max
	default:
		schema["type"] = "string"
	}
	if d.Label != "" {
		schema["title"] = d.Label
	}
	if d.Description != "" {
		schema["description"] = d.Description
	}
	if value, ok := g.config.defaults[d.Key]; ok {
		schema["default"] = value
	}
	schema["x-formgen"] = formgenExtension(d, position)
	return schema
}

func formgenExtension(d formopts.Descriptor, position int) map[string]any {
	ext := map[string]any{
		"widget": string(d.Widget()),
		"order":  position,
	}
	if d.Section != "" {
		ext["section"] = d.Section
	}
	if d.SubSetting {
		ext["sub_setting"] = true
	}
	if d.Tooltip != "" {
		ext["tooltip"] = d.Tooltip
	}
	if !d.Visible {
		ext["display"] = "hidden"
	}
	if choices, ok := d.Choices(); ok {
		labelled := make([]map[string]any, 0, len(choices))
		for _, choice := range choices {
			labelled = append(labelled, map[string]any{
				"value": choice.Value,
				"label": choice.Label,
			})
		}
		ext["options"] = labelled
	}
	return ext
}
