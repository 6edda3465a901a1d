// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// taskRequestSchema describes the inbound task-request body. Round is
// restricted to 1 or 2; anything else is rejected before any work is
// scheduled.
var taskRequestSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"secret": map[string]interface{}{"type": "string"},
		"task": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
			"pattern":   `^[A-Za-z0-9._-]+$`,
		},
		"brief": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"checks": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"attachments": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{"type": "string"},
					"url":  map[string]interface{}{"type": "string"},
				},
				"required": []interface{}{"name", "url"},
			},
		},
		"round": map[string]interface{}{
			"type": "integer",
			"enum": []interface{}{1, 2},
		},
		"email": map[string]interface{}{"type": "string"},
		"nonce": map[string]interface{}{"type": "string"},
		"evaluation_url": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
	},
	"required": []interface{}{"task", "brief", "round", "email", "nonce", "evaluation_url"},
}

// ValidateTaskRequest validates a decoded request body against the task
// request schema and returns a single descriptive error.
func ValidateTaskRequest(body map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(taskRequestSchema)
	documentLoader := gojsonschema.NewGoLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("invalid task request: %s", strings.Join(msgs, "; "))
	}

	return nil
}
