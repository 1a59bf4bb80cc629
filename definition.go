package formopts

import "fmt"

// Definition declares one option: its default value, static display metadata,
// how its input is derived and which guards gate its visibility.
type Definition struct {
	Key         string
	Default     any
	Label       string
	Description string
	Tooltip     string
	Section     string
	SubSetting  bool
	Input       InputSpec
	// Guards are AND-combined. An option without guards is always visible.
	Guards []Guard
}

// InputSpec derives an Input from the current values of the option's
// dependencies. The set of implementations is closed.
type InputSpec interface {
	input(values Values) Input
	dependencies() []string
	validate() error
	sealedInputSpec()
}

// Values is a read-only snapshot of stored values keyed by option key.
type Values map[string]any

type staticSpec struct {
	in Input
}

func (s staticSpec) input(Values) Input {
	if sel, ok := s.in.(SelectInput); ok {
		return SelectInput{Choices: sel.Choices.clone()}
	}
	return s.in
}

func (staticSpec) dependencies() []string { return nil }

func (s staticSpec) validate() error {
	switch in := s.in.(type) {
	case SelectInput:
		return in.Choices.validate()
	case RangeInput:
		if in.Min > in.Max {
			return fmt.Errorf("slider min %d exceeds max %d", in.Min, in.Max)
		}
	}
	return nil
}

func (staticSpec) sealedInputSpec() {}

// Checkbox declares a boolean option.
func Checkbox() InputSpec { return staticSpec{in: BooleanInput{}} }

// Select declares an option with a fixed choice set.
func Select(choices ...Choice) InputSpec {
	return staticSpec{in: SelectInput{Choices: ChoiceSet(choices).clone()}}
}

// Slider declares an integer option bounded by min and max.
func Slider(min, max int) InputSpec { return staticSpec{in: RangeInput{Min: min, Max: max}} }

// Text declares a single line free-text option.
func Text() InputSpec { return staticSpec{in: TextInput{}} }

// TextArea declares a multi line free-text option.
func TextArea() InputSpec { return staticSpec{in: TextInput{Multiline: true}} }

// Case pairs a discriminator value with the choices it enables.
type Case struct {
	When    string
	Choices ChoiceSet
}

// When builds a Case for SelectBy.
func When(value string, choices ...Choice) Case {
	return Case{When: value, Choices: ChoiceSet(choices).clone()}
}

type switchSpec struct {
	discriminator string
	cases         []Case
}

// SelectBy declares a select whose choice set is picked by the current value
// of discriminator. A value matching no case yields an empty choice set.
// Options declared this way have their stored value reconciled against the
// computed choices.
func SelectBy(discriminator string, cases ...Case) InputSpec {
	copied := make([]Case, len(cases))
	for i, c := range cases {
		copied[i] = Case{When: c.When, Choices: c.Choices.clone()}
	}
	return switchSpec{discriminator: discriminator, cases: copied}
}

func (s switchSpec) input(values Values) Input {
	current, ok := values[s.discriminator].(string)
	if ok {
		for _, c := range s.cases {
			if c.When == current {
				return SelectInput{Choices: c.Choices.clone()}
			}
		}
	}
	return SelectInput{Choices: ChoiceSet{}}
}

func (s switchSpec) dependencies() []string { return []string{s.discriminator} }

func (s switchSpec) validate() error {
	if s.discriminator == "" {
		return fmt.Errorf("select-by discriminator must not be empty")
	}
	seen := make(map[string]struct{}, len(s.cases))
	for _, c := range s.cases {
		if _, ok := seen[c.When]; ok {
			return fmt.Errorf("duplicate case %q for discriminator %q", c.When, s.discriminator)
		}
		seen[c.When] = struct{}{}
		if err := c.Choices.validate(); err != nil {
			return fmt.Errorf("case %q: %w", c.When, err)
		}
	}
	return nil
}

func (switchSpec) sealedInputSpec() {}

func isReconciled(spec InputSpec) bool {
	_, ok := spec.(switchSpec)
	return ok
}
