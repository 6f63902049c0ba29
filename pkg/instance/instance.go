// Package instance computes per-instance dynamic data for a built schema:
// the default baseline after preset overlays, modification flags, default
// descriptions and ShowIf results.
package instance

import (
	"errors"

	"github.com/oakwood-commons/propinspect/pkg/schema"
	"github.com/oakwood-commons/propinspect/pkg/value"
)

// ErrSchemaMismatch reports that the live instance does not carry the
// schema's property set. The cached schema must be discarded.
var ErrSchemaMismatch = errors.New("instance does not match schema")

// Host is the live instance owned by the host application.
type Host interface {
	ID() string
	// PropertyNames lists every property the instance carries.
	PropertyNames() []string
	Value(name string) (value.Value, bool)
	// SetValue is used only by revert and preset application.
	SetValue(name string, v value.Value) error
	ActiveKeywords() []string
}

// Preset is a named bundle of property overrides.
type Preset struct {
	Name   string
	Values map[string]value.Value
}

// PresetStore resolves the preset selected by a selector property's value.
type PresetStore interface {
	// ResolveActivePreset returns the preset that selector selects in the
	// preset set ref, and false when the selection is not a valid index.
	ResolveActivePreset(ref string, selector value.Value) (Preset, bool)
}

// PropertyData is the dynamic state of one property.
type PropertyData struct {
	Default             value.Value
	DefaultDescription  string
	HasModified         bool
	HasChildrenModified bool
	IsShowing           bool
}

// Data is the dynamic state of one instance against one schema. It is
// rebuilt wholesale whenever the instance is marked dirty.
type Data struct {
	SchemaID   string
	InstanceID string

	// Props is indexed by schema node index.
	Props []PropertyData
	// Current holds the live values read during the build.
	Current []value.Value
	// Keywords is the active keyword set captured during the build.
	Keywords map[string]struct{}
	// ActivePresets maps a selector property to the preset it applies.
	ActivePresets map[string]string

	Diagnostics []schema.Diagnostic
}

// Prop returns the dynamic state of node i.
func (d *Data) Prop(i int) *PropertyData { return &d.Props[i] }

// HasKeyword reports whether kw is active on the instance.
func (d *Data) HasKeyword(kw string) bool {
	_, ok := d.Keywords[kw]
	return ok
}

// ModifiedCount returns how many properties differ from their default.
func (d *Data) ModifiedCount() int {
	n := 0
	for i := range d.Props {
		if d.Props[i].HasModified {
			n++
		}
	}
	return n
}
