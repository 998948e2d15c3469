package api

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const missingFieldsMessage = "Missing required fields: encryptedResponses, publicKey"

const assessSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["encryptedResponses", "publicKey"],
	"properties": {
		"encryptedResponses": {
			"type": "array",
			"items": {"type": "string"}
		},
		"encryptedMetadata": {
			"type": "object",
			"properties": {
				"timestamp": {"type": "string"},
				"questionCount": {"type": "string"}
			}
		},
		"publicKey": {"type": "string", "minLength": 1}
	}
}`

var assessRequestSchema = jsonschema.MustCompileString("assess-request.schema.json", assessSchema)

// missingRequired reports whether the decoded body lacks one of the fields
// every assessment needs. Null and empty strings count as missing.
func missingRequired(body interface{}) bool {
	obj, ok := body.(map[string]interface{})
	if !ok {
		return false
	}
	for _, field := range []string{"encryptedResponses", "publicKey"} {
		v, present := obj[field]
		if !present || v == nil {
			return true
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}
