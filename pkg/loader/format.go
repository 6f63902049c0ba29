// Package loader reads schema, instance and preset documents from YAML,
// JSON or TOML and adapts them to the inspector's host interfaces.
package loader

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

const (
	FormatAuto Format = ""
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ParseFormat normalizes a format name. Empty means auto-detect.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("invalid format %q: valid values are yaml, json, toml", s)
}

// FormatForPath picks a format from the file extension, or FormatAuto.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	}
	return FormatAuto
}

var (
	// TOML section headers: [section], [[array]], ["quoted"], [a.b]
	tomlSection = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// TOML key = value, as opposed to YAML key: value
	tomlKeyValue = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// DetectFormat guesses the encoding of data. TOML is checked before JSON
// because a [section] header also starts with a bracket.
func DetectFormat(data []byte) Format {
	input := strings.TrimSpace(string(data))
	if isLikelyTOML(input) {
		return FormatTOML
	}
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		return FormatJSON
	}
	return FormatYAML
}

func isLikelyTOML(input string) bool {
	sections, keyValues, nonEmpty := 0, 0, 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSection.MatchString(line) {
			sections++
		}
		if tomlKeyValue.MatchString(line) {
			keyValues++
		}
	}
	return sections > 0 || (nonEmpty > 0 && keyValues > nonEmpty/2)
}

// decode parses data in the given format and maps it onto out through a
// JSON round trip, so every format shares the json struct tags of the
// document types.
func decode(data []byte, format Format, out any) error {
	if format == FormatAuto {
		format = DetectFormat(data)
	}
	var generic any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		return nil
	case FormatYAML:
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("invalid YAML: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("invalid TOML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if generic == nil {
		return fmt.Errorf("empty %s document", format)
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("normalize %s document: %w", format, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid %s document: %w", format, err)
	}
	return nil
}

// Encode renders v in the given format. FormatAuto renders YAML.
func Encode(v any, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(v, "", "  ")
	case FormatYAML, FormatAuto:
		return yaml.Marshal(v)
	case FormatTOML:
		return toml.Marshal(v)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
