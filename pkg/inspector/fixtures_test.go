package inspector

import (
	"fmt"
	"time"

	"github.com/oakwood-commons/propinspect/pkg/directive"
	"github.com/oakwood-commons/propinspect/pkg/schema"
	"github.com/oakwood-commons/propinspect/pkg/value"
)

type fakeSource struct {
	id       string
	props    []schema.Property
	modified time.Time
}

func newSource(id string, props ...schema.Property) *fakeSource {
	return &fakeSource{id: id, props: props, modified: time.Unix(1700000000, 0)}
}

func (s *fakeSource) ID() string                    { return s.id }
func (s *fakeSource) Properties() []schema.Property { return s.props }
func (s *fakeSource) SourceLastModified() time.Time { return s.modified }

func (s *fakeSource) touch() { s.modified = s.modified.Add(time.Second) }

type fakeHost struct {
	id       string
	names    []string
	values   map[string]value.Value
	keywords []string
	sets     int
}

func newHost(id string, src *fakeSource) *fakeHost {
	h := &fakeHost{id: id, values: make(map[string]value.Value)}
	for _, p := range src.props {
		h.names = append(h.names, p.Name)
		h.values[p.Name] = p.Default
	}
	return h
}

func (h *fakeHost) ID() string               { return h.id }
func (h *fakeHost) PropertyNames() []string  { return h.names }
func (h *fakeHost) ActiveKeywords() []string { return h.keywords }

func (h *fakeHost) Value(name string) (value.Value, bool) {
	v, ok := h.values[name]
	return v, ok
}

func (h *fakeHost) SetValue(name string, v value.Value) error {
	if _, ok := h.values[name]; !ok {
		return fmt.Errorf("no property %q", name)
	}
	h.values[name] = v
	h.sets++
	return nil
}

func prop(name string, v value.Value, ds ...directive.Directive) schema.Property {
	return schema.Property{Name: name, Type: v.Type, Default: v, Directives: ds}
}

// surfaceSource is a small material: one expandable group with a keyword
// sub, an advanced block, a hidden property and a ShowIf.
func surfaceSource() *fakeSource {
	return newSource("surface",
		prop("_Surface", value.FloatValue(0), directive.MainExpanded("Surface")),
		prop("_BaseColor", value.ColorValue(1, 1, 1, 1), directive.Sub("Surface")),
		prop("_Emission", value.ColorValue(0, 0, 0, 1), directive.Sub("Surface_EMISSION")),
		prop("_Cutoff", value.FloatValue(0.5), directive.Sub("Surface"), directive.Advanced("")),
		prop("_Fresnel", value.FloatValue(0), directive.Sub("Surface"), directive.Advanced("")),
		prop("_Quality", value.IntValue(1)),
		prop("_Detail", value.FloatValue(1), directive.ShowIf("_Quality", "GE", 2)),
		prop("_Internal", value.FloatValue(0), directive.Hidden()),
	)
}

func schemaProp(name, display string, v value.Value, ds ...directive.Directive) schema.Property {
	p := prop(name, v, ds...)
	p.DisplayName = display
	return p
}
