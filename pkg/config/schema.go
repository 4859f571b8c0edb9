package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema/srcprune-config.schema.json
var schemaV1 []byte

// SchemaVersion is the configuration schema version this build validates
const SchemaVersion = "1.0.0"

// ValidateConfig validates configuration data, YAML or JSON, against the
// embedded schema.
func ValidateConfig(configData []byte) error {
	doc, err := toJSON(configData)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaV1), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %v", err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

// toJSON re-encodes YAML (a superset of JSON) as JSON for the validator
func toJSON(data []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert config to JSON: %v", err)
	}
	return out, nil
}

// Schema returns the embedded JSON schema
func Schema() []byte {
	return append([]byte(nil), schemaV1...)
}
