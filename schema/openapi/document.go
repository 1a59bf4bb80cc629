package openapi

import (
	"maps"
	"slices"
)

// document wraps the form schema in an OpenAPI document with a single
// operation whose request body is the form.
func (c config) document(form map[string]any) map[string]any {
	doc := map[string]any{
		"openapi": c.openapi,
		"info":    c.info(),
		"paths": map[string]any{
			c.endpoint.Path: map[string]any{
				c.endpoint.Method: c.operation(form),
			},
		},
	}
	if c.component != "" {
		doc["components"] = map[string]any{
			"schemas": map[string]any{c.component: form},
		}
	}
	return doc
}

func (c config) info() map[string]any {
	info := map[string]any{"title": c.title, "version": c.version}
	if c.description != "" {
		info["description"] = c.description
	}
	return info
}

func (c config) operation(form map[string]any) map[string]any {
	body := form
	if c.component != "" {
		body = map[string]any{"$ref": "#/components/schemas/" + c.component}
	}
	responses := make(map[string]any, len(c.responses))
	for _, status := range slices.Sorted(maps.Keys(c.responses)) {
		responses[status] = map[string]any{"description": c.responses[status]}
	}
	op := map[string]any{
		"operationId": c.endpoint.OperationID,
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				c.contentType: map[string]any{"schema": body},
			},
		},
		"responses": responses,
	}
	if c.endpoint.Summary != "" {
		op["summary"] = c.endpoint.Summary
	}
	return op
}
