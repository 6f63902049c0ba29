package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oakwood-commons/propinspect/pkg/directive"
	"github.com/oakwood-commons/propinspect/pkg/instance"
	"github.com/oakwood-commons/propinspect/pkg/schema"
	"github.com/oakwood-commons/propinspect/pkg/value"
)

// PropertyDocument declares one property in a schema document.
type PropertyDocument struct {
	Name        string                `json:"name" yaml:"name" toml:"name"`
	DisplayName string                `json:"displayName,omitempty" yaml:"displayName,omitempty" toml:"displayName,omitempty"`
	Type        string                `json:"type" yaml:"type" toml:"type"`
	Default     any                   `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	Directives  []directive.Directive `json:"directives,omitempty" yaml:"directives,omitempty" toml:"directives,omitempty"`
}

// PresetDocument is one named bundle of overrides.
type PresetDocument struct {
	Name   string         `json:"name" yaml:"name" toml:"name"`
	Values map[string]any `json:"values" yaml:"values" toml:"values"`
}

// SchemaDocument is the on-disk form of a schema.
//
//	id: lit
//	properties:
//	  - name: _Surface
//	    type: float
//	    directives:
//	      - {kind: main, group: Surface, expanded: true}
//	presets:
//	  Surfaces:
//	    - {name: Opaque, values: {_ZWrite: 1}}
type SchemaDocument struct {
	ID         string                      `json:"id" yaml:"id" toml:"id"`
	Properties []PropertyDocument          `json:"properties" yaml:"properties" toml:"properties"`
	Presets    map[string][]PresetDocument `json:"presets,omitempty" yaml:"presets,omitempty" toml:"presets,omitempty"`
}

// Schema is a loaded schema document. It implements inspector.SchemaSource.
type Schema struct {
	id       string
	path     string
	props    []schema.Property
	modified time.Time
	presets  *PresetStore
}

// ID returns the schema id.
func (s *Schema) ID() string { return s.id }

// Path returns the file the schema was loaded from, if any.
func (s *Schema) Path() string { return s.path }

// Properties returns the declared properties in order.
func (s *Schema) Properties() []schema.Property { return s.props }

// SourceLastModified returns the file's modification time.
func (s *Schema) SourceLastModified() time.Time { return s.modified }

// Presets returns the schema's preset sets.
func (s *Schema) Presets() *PresetStore { return s.presets }

// Property returns the named declaration.
func (s *Schema) Property(name string) (schema.Property, bool) {
	for _, p := range s.props {
		if p.Name == name {
			return p, true
		}
	}
	return schema.Property{}, false
}

// LoadSchema reads a schema document from path. The id defaults to the file
// name without extension.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseSchema(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.id == "" {
		s.id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	s.path = path
	s.modified = info.ModTime()
	return s, nil
}

// ParseSchema decodes a schema document.
func ParseSchema(data []byte, format Format) (*Schema, error) {
	var doc SchemaDocument
	if err := decode(data, format, &doc); err != nil {
		return nil, err
	}
	return NewSchema(doc)
}

// NewSchema converts a decoded document. Declared defaults and preset values
// are checked against each property's type; every problem is reported.
func NewSchema(doc SchemaDocument) (*Schema, error) {
	s := &Schema{id: doc.ID}
	types := make(map[string]value.Type, len(doc.Properties))
	var errs []error
	for i, pd := range doc.Properties {
		if pd.Name == "" {
			errs = append(errs, fmt.Errorf("property %d: name is required", i))
			continue
		}
		t, err := value.ParseType(pd.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("property %s: %w", pd.Name, err))
			continue
		}
		def := value.Zero(t)
		if pd.Default != nil {
			if def, err = value.FromAny(t, pd.Default); err != nil {
				errs = append(errs, fmt.Errorf("property %s default: %w", pd.Name, err))
				continue
			}
		}
		types[pd.Name] = t
		s.props = append(s.props, schema.Property{
			Name:        pd.Name,
			DisplayName: pd.DisplayName,
			Type:        t,
			Default:     def,
			Directives:  pd.Directives,
		})
	}

	s.presets = NewPresetStore()
	for ref, set := range doc.Presets {
		presets := make([]instance.Preset, 0, len(set))
		for _, pd := range set {
			p := instance.Preset{Name: pd.Name, Values: make(map[string]value.Value, len(pd.Values))}
			for name, raw := range pd.Values {
				t, ok := types[name]
				if !ok {
					// kept untyped; the instance builder reports undeclared targets
					t = value.Float
				}
				v, err := value.FromAny(t, raw)
				if err != nil {
					errs = append(errs, fmt.Errorf("preset %s/%s value %s: %w", ref, pd.Name, name, err))
					continue
				}
				p.Values[name] = v
			}
			presets = append(presets, p)
		}
		s.presets.Add(ref, presets...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return s, nil
}
