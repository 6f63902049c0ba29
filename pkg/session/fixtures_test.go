package session

import (
	"fmt"

	"github.com/oakwood-commons/propinspect/pkg/directive"
	"github.com/oakwood-commons/propinspect/pkg/instance"
	"github.com/oakwood-commons/propinspect/pkg/schema"
	"github.com/oakwood-commons/propinspect/pkg/value"
)

type fakeHost struct {
	names  []string
	values map[string]value.Value
}

func newFakeHost(s *schema.Data) *fakeHost {
	h := &fakeHost{values: make(map[string]value.Value)}
	for i := 0; i < s.Len(); i++ {
		n := s.Node(i)
		h.names = append(h.names, n.Name)
		h.values[n.Name] = n.Default
	}
	return h
}

func (h *fakeHost) ID() string               { return "mat" }
func (h *fakeHost) PropertyNames() []string  { return h.names }
func (h *fakeHost) ActiveKeywords() []string { return nil }

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

func prop(name string, v value.Value, ds ...directive.Directive) schema.Property {
	return schema.Property{Name: name, Type: v.Type, Default: v, Directives: ds}
}

func mustBuild(props ...schema.Property) (*schema.Data, *fakeHost) {
	s, err := schema.Build("test", props)
	if err != nil {
		panic(err)
	}
	return s, newFakeHost(s)
}

func mustInstance(s *schema.Data, h *fakeHost) *instance.Data {
	d, err := instance.Build(s, h)
	if err != nil {
		panic(err)
	}
	return d
}
