package instance

import (
	"fmt"

	"github.com/oakwood-commons/propinspect/pkg/directive"
	"github.com/oakwood-commons/propinspect/pkg/schema"
	"github.com/oakwood-commons/propinspect/pkg/value"
)

type fakeHost struct {
	id       string
	names    []string
	values   map[string]value.Value
	keywords []string
}

func newFakeHost(s *schema.Data) *fakeHost {
	h := &fakeHost{id: "mat", values: make(map[string]value.Value)}
	for i := 0; i < s.Len(); i++ {
		n := s.Node(i)
		h.names = append(h.names, n.Name)
		h.values[n.Name] = n.Default
	}
	return h
}

func (h *fakeHost) ID() string              { return h.id }
func (h *fakeHost) PropertyNames() []string { return h.names }
func (h *fakeHost) ActiveKeywords() []string {
	return h.keywords
}

func (h *fakeHost) Value(name string) (value.Value, bool) {
	v, ok := h.values[name]
	return v, ok
}

func (h *fakeHost) SetValue(name string, v value.Value) error {
	if _, ok := h.values[name]; !ok {
		return fmt.Errorf("no property %q", name)
	}
	h.values[name] = v
	return nil
}

type fakePresets map[string][]Preset

func (f fakePresets) ResolveActivePreset(ref string, selector value.Value) (Preset, bool) {
	set := f[ref]
	idx := int(selector.Number())
	if idx < 0 || idx >= len(set) {
		return Preset{}, false
	}
	return set[idx], true
}

func prop(name string, v value.Value, ds ...directive.Directive) schema.Property {
	return schema.Property{Name: name, Type: v.Type, Default: v, Directives: ds}
}

func mustBuildSchema(props ...schema.Property) *schema.Data {
	s, err := schema.Build("test", props)
	if err != nil {
		panic(err)
	}
	return s
}
