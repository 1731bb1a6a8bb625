package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeHistory renders the list as an indented JSON array of strings.
func EncodeHistory(cities []string) ([]byte, error) {
	if cities == nil {
		cities = []string{}
	}
	data, err := json.MarshalIndent(cities, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeHistory parses a JSON array of strings. Empty input and null decode
// to an empty list.
func DecodeHistory(data []byte) ([]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []string{}, nil
	}
	var cities []string
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	if cities == nil {
		cities = []string{}
	}
	return cities, nil
}
