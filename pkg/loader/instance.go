package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oakwood-commons/propinspect/pkg/value"
)

// InstanceDocument is the on-disk form of an instance. Properties it does
// not set take the schema's declared default. Values naming properties the
// schema does not declare are carried as extra properties, which the
// instance builder reports as a schema mismatch.
type InstanceDocument struct {
	ID       string         `json:"id" yaml:"id" toml:"id"`
	Schema   string         `json:"schema,omitempty" yaml:"schema,omitempty" toml:"schema,omitempty"`
	Keywords []string       `json:"keywords,omitempty" yaml:"keywords,omitempty" toml:"keywords,omitempty"`
	Values   map[string]any `json:"values,omitempty" yaml:"values,omitempty" toml:"values,omitempty"`
}

// Instance is a loaded instance bound to a schema. It implements
// instance.Host. It is not safe for concurrent mutation.
type Instance struct {
	id       string
	path     string
	schemaID string
	names    []string
	values   map[string]value.Value
	keywords []string
}

// ID returns the instance id.
func (i *Instance) ID() string { return i.id }

// Path returns the file the instance was loaded from, if any.
func (i *Instance) Path() string { return i.path }

// PropertyNames lists the instance's properties, schema order first.
func (i *Instance) PropertyNames() []string { return i.names }

// Value returns the named value.
func (i *Instance) Value(name string) (value.Value, bool) {
	v, ok := i.values[name]
	return v, ok
}

// SetValue replaces the named value. The type must not change.
func (i *Instance) SetValue(name string, v value.Value) error {
	cur, ok := i.values[name]
	if !ok {
		return fmt.Errorf("instance %s has no property %q", i.id, name)
	}
	if cur.Type != v.Type {
		return fmt.Errorf("property %s is %s, cannot assign %s", name, cur.Type, v.Type)
	}
	i.values[name] = v
	return nil
}

// ActiveKeywords returns the enabled keywords.
func (i *Instance) ActiveKeywords() []string { return i.keywords }

// SetKeywords replaces the enabled keywords.
func (i *Instance) SetKeywords(kws []string) { i.keywords = kws }

// Document converts the instance back into document form, listing every
// value explicitly.
func (i *Instance) Document() InstanceDocument {
	doc := InstanceDocument{
		ID:       i.id,
		Schema:   i.schemaID,
		Keywords: i.keywords,
		Values:   make(map[string]any, len(i.values)),
	}
	for name, v := range i.values {
		doc.Values[name] = v.Native()
	}
	return doc
}

// LoadInstance reads an instance document from path and binds it to s.
// The id defaults to the file name without extension.
func LoadInstance(path string, s *Schema) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	inst, err := ParseInstance(data, FormatForPath(path), s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if inst.id == "" {
		inst.id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	inst.path = path
	return inst, nil
}

// ParseInstance decodes an instance document and binds it to s.
func ParseInstance(data []byte, format Format, s *Schema) (*Instance, error) {
	var doc InstanceDocument
	if err := decode(data, format, &doc); err != nil {
		return nil, err
	}
	return NewInstance(doc, s)
}

// NewInstance binds a decoded instance document to s.
func NewInstance(doc InstanceDocument, s *Schema) (*Instance, error) {
	if doc.Schema != "" && doc.Schema != s.ID() {
		return nil, fmt.Errorf("instance %s targets schema %q, not %q", doc.ID, doc.Schema, s.ID())
	}
	inst := &Instance{
		id:       doc.ID,
		schemaID: s.ID(),
		values:   make(map[string]value.Value, len(s.props)),
		keywords: doc.Keywords,
	}
	var errs []error
	for _, p := range s.props {
		inst.names = append(inst.names, p.Name)
		v := p.Default
		if raw, ok := doc.Values[p.Name]; ok {
			parsed, err := value.FromAny(p.Type, raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("value %s: %w", p.Name, err))
				continue
			}
			v = parsed
		}
		inst.values[p.Name] = v
	}

	var extras []string
	for name := range doc.Values {
		if _, ok := inst.values[name]; !ok {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		inst.names = append(inst.names, name)
		inst.values[name] = value.FloatValue(0)
		if v, err := value.FromAny(value.Float, doc.Values[name]); err == nil {
			inst.values[name] = v
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return inst, nil
}
