package utils

import (
	"encoding/json"
	"fmt"

	hjson "github.com/hjson/hjson-go/v4"
)

// ParseHJSON parses Human-friendly JSON (Hjson) and returns standard JSON.
// Hjson supports:
// - Comments (# // /* */)
// - Unquoted keys
// - Unquoted strings
// - Optional commas
// - Multiline strings
//
// Operator-written configuration files use this format.
func ParseHJSON(hjsonData string) (string, error) {
	var result interface{}
	err := hjson.Unmarshal([]byte(hjsonData), &result)
	if err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}

	return string(jsonBytes), nil
}

// ParseHJSONToStruct parses Hjson directly into a Go struct.
// This is the recommended method when you have a known schema.
// Fields absent from the input keep whatever values the struct already holds.
func ParseHJSONToStruct(hjsonData string, schema interface{}) error {
	err := hjson.Unmarshal([]byte(hjsonData), schema)
	if err != nil {
		return fmt.Errorf("HJSON_UNMARSHAL_ERROR: %v", err)
	}
	return nil
}
