package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies a document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks the encoding from a file extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode unmarshals data in the given format into v.
func Decode(data []byte, f Format, v any) error {
	switch f {
	case FormatYAML:
		if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	}
	return nil
}

// DecodeProject parses a project document.
func DecodeProject(data []byte, f Format) (*Project, error) {
	var p Project
	if err := Decode(data, f, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProject reads a project file, choosing the decoder from its extension.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	p, err := DecodeProject(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
