package td

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
)

// tdDocumentSchema covers the parts of a TD document a consumer depends on
const tdDocumentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "anyOf": [{"required": ["title"]}, {"required": ["name"]}],
  "properties": {
    "id": {"type": "string"},
    "title": {"type": "string"},
    "name": {"type": "string"},
    "base": {"type": "string"},
    "links": {"type": "array"},
    "forms": {"$ref": "#/definitions/forms"},
    "security": {
      "oneOf": [
        {"type": "string"},
        {"type": "object"},
        {"type": "array", "items": {"type": ["string", "object"]}}
      ]
    },
    "securityDefinitions": {
      "type": "object",
      "additionalProperties": {"type": "object", "required": ["scheme"]}
    },
    "properties": {"$ref": "#/definitions/affordances"},
    "actions": {"$ref": "#/definitions/affordances"},
    "events": {"$ref": "#/definitions/affordances"}
  },
  "definitions": {
    "forms": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["href"],
        "properties": {
          "href": {"type": "string"},
          "contentType": {"type": "string"},
          "op": {"type": ["string", "array"]}
        }
      }
    },
    "affordances": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {"forms": {"$ref": "#/definitions/forms"}}
      }
    }
  }
}`

var tdSchema *gojsonschema.Schema
var tdSchemaOnce sync.Once

// ValidateTD validates a JSON encoded TD document against the TD document schema
// Returns ErrInvalidTD with the validation errors if the document doesn't comply
func ValidateTD(doc string) error {
	tdSchemaOnce.Do(func() {
		var err error
		tdSchema, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(tdDocumentSchema))
		if err != nil {
			logrus.Panicf("ValidateTD: TD document schema does not compile: %s", err)
		}
	})
	result, err := tdSchema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		logrus.Errorf("ValidateTD: Unable to validate TD: %s", err)
		return fmt.Errorf("%w: %s", ErrInvalidTD, err)
	}
	if !result.Valid() {
		details := resultDetails(result)
		logrus.Errorf("ValidateTD: TD is not valid: %s", details)
		return fmt.Errorf("%w: %s", ErrInvalidTD, details)
	}
	return nil
}

// ValidateValue validates a value against a data schema from the TD.
// An empty schema accepts any value.
//  schema of a property, action input or event data
//  value to validate
// Returns ErrSchemaValidation with the validation errors if the value doesn't match
func ValidateValue(schema DataSchema, value interface{}) error {
	if len(schema) == 0 {
		return nil
	}
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("%w: invalid schema: %s", ErrSchemaValidation, err)
	}
	valueBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: value is not JSON serializable: %s", ErrSchemaValidation, err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(valueBytes))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSchemaValidation, err)
	}
	if !result.Valid() {
		return fmt.Errorf("%w: %s", ErrSchemaValidation, resultDetails(result))
	}
	return nil
}

func resultDetails(result *gojsonschema.Result) string {
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return strings.Join(details, "; ")
}
