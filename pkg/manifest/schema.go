package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

const packageListSchemaURL = "depot.schema.json"

const packageListSchemaText = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["packages"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "packages": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name", "build_command"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "version": {"type": ["string", "number"]},
          "pkg_file": {"type": "string"},
          "http_download_url": {"type": "string"},
          "git_source_url": {"type": "string"},
          "build_command": {"type": "string", "minLength": 1},
          "check_files": {"type": "array", "items": {"type": "string"}},
          "digest": {"type": "string", "pattern": "^[A-Za-z0-9]+:[0-9A-Fa-f]+$"},
          "signature_url": {"type": "string"},
          "signing_key": {"type": "string"}
        }
      }
    }
  }
}`

var packageListSchema = jsonschema.MustCompileString(packageListSchemaURL, packageListSchemaText)

// ValidateDocument checks raw depot.yaml content against the package list schema.
func ValidateDocument(content []byte) error {
	doc, err := yaml.YAMLToJSON(content)
	if err != nil {
		return fmt.Errorf("parse package list: %w", err)
	}
	var value interface{}
	if err := json.Unmarshal(doc, &value); err != nil {
		return fmt.Errorf("parse package list: %w", err)
	}
	if err := packageListSchema.Validate(value); err != nil {
		return fmt.Errorf("package list does not match schema: %w", err)
	}
	return nil
}
