package openapi

import (
	"fmt"
	"slices"
	"strings"

	formopts "github.com/goliatone/go-form-options"
)

// Endpoint is the operation that accepts the settings form. Empty fields keep
// the defaults: PUT /settings with operationId updateSettings.
type Endpoint struct {
	Method      string
	Path        string
	OperationID string
	Summary     string
}

type config struct {
	openapi     string
	title       string
	version     string
	description string
	endpoint    Endpoint
	contentType string
	// responses maps status codes to descriptions.
	responses map[string]string
	component string
	defaults  formopts.Values
	hidden    bool
}

func defaultConfig() config {
	return config{
		openapi: "3.0.3",
		title:   "Settings",
		version: "1.0.0",
		endpoint: Endpoint{
			Method:      "put",
			Path:        "/settings",
			OperationID: "updateSettings",
		},
		contentType: "application/json",
		responses:   map[string]string{"204": "Settings saved"},
		hidden:      true,
	}
}

var methods = []string{"post", "put", "patch"}

func (c config) validate() error {
	switch {
	case c.title == "":
		return fmt.Errorf("openapi: title must be set")
	case c.version == "":
		return fmt.Errorf("openapi: version must be set")
	case !strings.HasPrefix(c.endpoint.Path, "/"):
		return fmt.Errorf("openapi: path %q must start with /", c.endpoint.Path)
	case !slices.Contains(methods, c.endpoint.Method):
		return fmt.Errorf("openapi: method %q cannot carry a request body", c.endpoint.Method)
	case len(c.responses) == 0:
		return fmt.Errorf("openapi: at least one response is required")
	}
	return nil
}

// GeneratorOption configures the OpenAPI generator.
type GeneratorOption func(*config)

// WithOpenAPIVersion sets the document's openapi field.
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(c *config) {
		if version != "" {
			c.openapi = version
		}
	}
}

// WithTitle sets info.title and info.version. Empty values keep the defaults.
func WithTitle(title, version string) GeneratorOption {
	return func(c *config) {
		if title != "" {
			c.title = title
		}
		if version != "" {
			c.version = version
		}
	}
}

func WithDescription(description string) GeneratorOption {
	return func(c *config) {
		c.description = description
	}
}

// WithEndpoint overrides the non-empty fields of the settings operation.
func WithEndpoint(e Endpoint) GeneratorOption {
	return func(c *config) {
		if e.Method != "" {
			c.endpoint.Method = strings.ToLower(e.Method)
		}
		if e.Path != "" {
			c.endpoint.Path = e.Path
		}
		if e.OperationID != "" {
			c.endpoint.OperationID = e.OperationID
		}
		if e.Summary != "" {
			c.endpoint.Summary = e.Summary
		}
	}
}

// WithContentType sets the request body media type.
func WithContentType(contentType string) GeneratorOption {
	return func(c *config) {
		if contentType != "" {
			c.contentType = contentType
		}
	}
}

// WithResponse adds or replaces the response for status.
func WithResponse(status, description string) GeneratorOption {
	return func(c *config) {
		if status == "" {
			return
		}
		c.responses[status] = description
	}
}

// WithRootComponent publishes the form schema as components.schemas.<name>
// and references it from the request body.
func WithRootComponent(name string) GeneratorOption {
	return func(c *config) {
		c.component = componentName(name)
	}
}

// WithDefaults emits each option's default as the JSON Schema default.
func WithDefaults(defaults formopts.Values) GeneratorOption {
	return func(c *config) {
		c.defaults = defaults
	}
}

// WithHiddenProperties controls whether hidden options are emitted at all.
// They are by default, flagged with x-formgen.display.
func WithHiddenProperties(include bool) GeneratorOption {
	return func(c *config) {
		c.hidden = include
	}
}

// componentName maps name onto the characters OpenAPI allows in component
// keys.
func componentName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(name))
}
