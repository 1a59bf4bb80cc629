package formopts

// FieldDescriptor is the flattened, renderer-agnostic view of one descriptor.
type FieldDescriptor struct {
	Key     string   `json:"key"`
	Kind    Kind     `json:"kind"`
	Widget  Widget   `json:"widget"`
	Section string   `json:"section,omitempty"`
	Visible bool     `json:"visible"`
	Choices []string `json:"choices,omitempty"`
}

// DefaultSchemaGenerator returns the built-in descriptor-based schema generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(form Form) (SchemaDocument, error) {
	fields := make([]FieldDescriptor, 0, len(form.Descriptors))
	for _, d := range form.Descriptors {
		field := FieldDescriptor{
			Key:     d.Key,
			Kind:    d.Kind(),
			Widget:  d.Widget(),
			Section: d.Section,
			Visible: d.Visible,
		}
		if choices, ok := d.Choices(); ok {
			field.Choices = choices.Values()
		}
		fields = append(fields, field)
	}
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: fields,
	}, nil
}
