package formopts

import (
	"encoding/json"
	"fmt"
)

// Kind classifies the value an option holds.
type Kind string

const (
	KindBoolean          Kind = "boolean"
	KindEnumeratedString Kind = "enumerated-string"
	KindIntegerRange     Kind = "integer-range"
	KindFreeText         Kind = "free-text"
)

// Widget is the presentation hint handed to renderers.
type Widget string

const (
	WidgetCheckbox Widget = "checkbox"
	WidgetSelect   Widget = "select"
	WidgetSlider   Widget = "slider"
	WidgetText     Widget = "text"
	WidgetTextArea Widget = "textarea"
)

// Choice is one selectable value and its display label.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ChoiceSet is an ordered list of choices. Declaration order is the priority
// order used when a fallback value has to be picked.
type ChoiceSet []Choice

// Values returns the choice values in declaration order.
func (c ChoiceSet) Values() []string {
	out := make([]string, 0, len(c))
	for _, choice := range c {
		out = append(out, choice.Value)
	}
	return out
}

// Contains reports whether value is a string equal to one of the choice values.
func (c ChoiceSet) Contains(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	for _, choice := range c {
		if choice.Value == s {
			return true
		}
	}
	return false
}

func (c ChoiceSet) clone() ChoiceSet {
	if c == nil {
		return ChoiceSet{}
	}
	out := make(ChoiceSet, len(c))
	copy(out, c)
	return out
}

func (c ChoiceSet) validate() error {
	seen := make(map[string]struct{}, len(c))
	for _, choice := range c {
		if _, ok := seen[choice.Value]; ok {
			return fmt.Errorf("duplicate choice value %q", choice.Value)
		}
		seen[choice.Value] = struct{}{}
	}
	return nil
}

// Input is the closed set of computed input shapes. Only the types declared in
// this package implement it.
type Input interface {
	Kind() Kind
	Widget() Widget
	sealedInput()
}

// BooleanInput renders as a checkbox and never carries choices.
type BooleanInput struct{}

func (BooleanInput) Kind() Kind     { return KindBoolean }
func (BooleanInput) Widget() Widget { return WidgetCheckbox }
func (BooleanInput) sealedInput()   {}

// SelectInput offers a (possibly empty) set of choices.
type SelectInput struct {
	Choices ChoiceSet
}

func (SelectInput) Kind() Kind     { return KindEnumeratedString }
func (SelectInput) Widget() Widget { return WidgetSelect }
func (SelectInput) sealedInput()   {}

// RangeInput is an integer slider bounded by Min and Max.
type RangeInput struct {
	Min int
	Max int
}

func (RangeInput) Kind() Kind     { return KindIntegerRange }
func (RangeInput) Widget() Widget { return WidgetSlider }
func (RangeInput) sealedInput()   {}

// TextInput is free text, single or multi line.
type TextInput struct {
	Multiline bool
}

func (TextInput) Kind() Kind { return KindFreeText }

func (t TextInput) Widget() Widget {
	if t.Multiline {
		return WidgetTextArea
	}
	return WidgetText
}

func (TextInput) sealedInput() {}

// Descriptor is the computed form metadata for one option at one point in
// time. Descriptors are built fresh on every call and carry no identity.
type Descriptor struct {
	Key         string
	Label       string
	Description string
	Tooltip     string
	Section     string
	SubSetting  bool
	Visible     bool
	Input       Input
}

// Kind mirrors the input kind, defaulting to free text when Input is unset.
func (d Descriptor) Kind() Kind {
	if d.Input == nil {
		return KindFreeText
	}
	return d.Input.Kind()
}

// Widget mirrors the input widget.
func (d Descriptor) Widget() Widget {
	if d.Input == nil {
		return WidgetText
	}
	return d.Input.Widget()
}

// Choices returns the choice set for select inputs. The boolean reports
// whether the input kind carries choices at all; an empty set with true means
// the option currently has no valid selection.
func (d Descriptor) Choices() (ChoiceSet, bool) {
	sel, ok := d.Input.(SelectInput)
	if !ok {
		return nil, false
	}
	return sel.Choices, true
}

type sliderOptions struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type descriptorJSON struct {
	Key           string         `json:"key"`
	Label         string         `json:"label"`
	Description   string         `json:"description,omitempty"`
	Tooltip       string         `json:"tooltip,omitempty"`
	Section       string         `json:"section,omitempty"`
	SubSetting    bool           `json:"sub_setting,omitempty"`
	InputType     Widget         `json:"input_type"`
	SelectOptions *ChoiceSet     `json:"select_options,omitempty"`
	SliderOptions *sliderOptions `json:"slider_options,omitempty"`
	Display       string         `json:"display,omitempty"`
}

// MarshalJSON emits the form shape consumed by hosts. Hidden descriptors carry
// `"display": "hidden"`; select inputs always carry `select_options`, even
// when empty.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	out := descriptorJSON{
		Key:         d.Key,
		Label:       d.Label,
		Description: d.Description,
		Tooltip:     d.Tooltip,
		Section:     d.Section,
		SubSetting:  d.SubSetting,
		InputType:   d.Widget(),
	}
	switch input := d.Input.(type) {
	case SelectInput:
		choices := input.Choices.clone()
		out.SelectOptions = &choices
	case RangeInput:
		out.SliderOptions = &sliderOptions{Min: input.Min, Max: input.Max}
	}
	if !d.Visible {
		out.Display = "hidden"
	}
	return json.Marshal(out)
}

// Form is the ordered result of resolving every registered option.
type Form struct {
	Descriptors []Descriptor `json:"descriptors"`
}

// Lookup returns the descriptor for key.
func (f Form) Lookup(key string) (Descriptor, bool) {
	for _, d := range f.Descriptors {
		if d.Key == key {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Section returns the descriptors declared under name, in order.
func (f Form) Section(name string) []Descriptor {
	var out []Descriptor
	for _, d := range f.Descriptors {
		if d.Section == name {
			out = append(out, d)
		}
	}
	return out
}

// Visible returns only the descriptors currently visible.
func (f Form) Visible() []Descriptor {
	var out []Descriptor
	for _, d := range f.Descriptors {
		if d.Visible {
			out = append(out, d)
		}
	}
	return out
}
