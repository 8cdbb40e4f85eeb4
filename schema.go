package lamini

import (
	"strings"

	"github.com/zoobzio/sentinel"
)

// OutputType builds the platform's structured-output schema from a Go
// struct type. Each exported field becomes a key mapped to the platform's
// type name ("str", "int", "float", "bool"). Field names honor json tags;
// fields tagged json:"-" are skipped.
//
//	type Answer struct {
//	    Verdict    bool   `json:"verdict"`
//	    Reasoning  string `json:"reasoning"`
//	}
//	req := lamini.CompletionRequest{Prompt: "...", OutputType: lamini.OutputType[Answer]()}
func OutputType[T any]() map[string]any {
	metadata := sentinel.Inspect[T]()

	schema := make(map[string]any, len(metadata.Fields))
	for _, field := range metadata.Fields {
		name := jsonFieldName(field)
		if name == "-" {
			continue
		}
		schema[name] = platformTypeName(field.Type)
	}
	return schema
}

// jsonFieldName extracts the serialized field name from metadata.
func jsonFieldName(field sentinel.FieldMetadata) string {
	if jsonTag, ok := field.Tags["json"]; ok {
		// Handle "name,omitempty" format
		parts := strings.Split(jsonTag, ",")
		if len(parts) > 0 && parts[0] != "" {
			return parts[0]
		}
	}

	// Default to lowercase field name
	return strings.ToLower(field.Name[:1]) + field.Name[1:]
}

// platformTypeName maps Go types to the platform's output_type names.
// Anything without a scalar mapping is requested as a string.
func platformTypeName(goType string) string {
	switch {
	case strings.HasPrefix(goType, "int"), strings.HasPrefix(goType, "uint"):
		return "int"
	case strings.HasPrefix(goType, "float"):
		return "float"
	case strings.HasPrefix(goType, "bool"):
		return "bool"
	default:
		return "str"
	}
}
