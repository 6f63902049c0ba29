package instance

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/propinspect/pkg/directive"
	"github.com/oakwood-commons/propinspect/pkg/schema"
	"github.com/oakwood-commons/propinspect/pkg/value"
)

// Option configures Build.
type Option func(*builder)

// WithLogger sets the logger used for diff diagnostics.
func WithLogger(l logr.Logger) Option {
	return func(b *builder) { b.log = l }
}

// WithPresets sets the store that resolves preset overlays.
func WithPresets(p PresetStore) Option {
	return func(b *builder) { b.presets = p }
}

type builder struct {
	log     logr.Logger
	presets PresetStore
	schema  *schema.Data
	data    *Data
}

// Build diffs host against the schema's default baseline. Every pass runs
// over all properties before the next starts: own modification first, then
// extra-property binding, then propagation to parent and grandparent.
func Build(s *schema.Data, host Host, opts ...Option) (*Data, error) {
	b := &builder{log: logr.Discard(), schema: s}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithValues("schema", s.ID, "instance", host.ID())

	current, err := readValues(s, host)
	if err != nil {
		return nil, err
	}

	b.data = &Data{
		SchemaID:      s.ID,
		InstanceID:    host.ID(),
		Props:         make([]PropertyData, s.Len()),
		Current:       current,
		Keywords:      make(map[string]struct{}),
		ActivePresets: make(map[string]string),
	}
	for _, kw := range host.ActiveKeywords() {
		b.data.Keywords[kw] = struct{}{}
	}

	b.computeDefaults()
	b.computeModified()
	b.describeDefaults()
	b.evaluateShowIf()

	b.log.V(2).Info("instance diff built", "modified", b.data.ModifiedCount())
	return b.data, nil
}

// readValues snapshots the live values in schema order and verifies that
// the instance carries exactly the schema's properties.
func readValues(s *schema.Data, host Host) ([]value.Value, error) {
	if n := len(host.PropertyNames()); n != s.Len() {
		return nil, fmt.Errorf("%w: schema %q has %d properties, instance %q has %d",
			ErrSchemaMismatch, s.ID, s.Len(), host.ID(), n)
	}
	current := make([]value.Value, s.Len())
	for i := 0; i < s.Len(); i++ {
		name := s.Node(i).Name
		v, ok := host.Value(name)
		if !ok {
			return nil, fmt.Errorf("%w: instance %q has no property %q", ErrSchemaMismatch, host.ID(), name)
		}
		current[i] = v
	}
	return current, nil
}

// computeDefaults starts from the schema's pristine defaults and applies
// every active preset overlay in property order.
func (b *builder) computeDefaults() {
	for i := 0; i < b.schema.Len(); i++ {
		b.data.Props[i].Default = b.schema.Node(i).Default
	}
	if b.presets == nil {
		return
	}
	for i := 0; i < b.schema.Len(); i++ {
		n := b.schema.Node(i)
		if n.PresetRef == "" {
			continue
		}
		preset, ok := b.presets.ResolveActivePreset(n.PresetRef, b.data.Current[i])
		if !ok {
			continue
		}
		b.data.ActivePresets[n.Name] = preset.Name
		for _, name := range slices.Sorted(maps.Keys(preset.Values)) {
			v := preset.Values[name]
			j, ok := b.schema.Lookup(name)
			if !ok {
				b.warn(n.Name, fmt.Sprintf("preset %q overrides undeclared property %q, ignored", preset.Name, name))
				continue
			}
			if v.Type != b.schema.Node(j).Type {
				b.warn(n.Name, fmt.Sprintf("preset %q value type does not match property %q, ignored", preset.Name, name))
				continue
			}
			b.data.Props[j].Default = v
		}
	}
}

func (b *builder) computeModified() {
	own := make([]bool, b.schema.Len())
	for i := range own {
		own[i] = !b.data.Current[i].Equal(b.data.Props[i].Default)
	}
	for i := range own {
		modified := own[i]
		for _, extra := range b.schema.Node(i).ExtraProperties {
			if j, ok := b.schema.Lookup(extra); ok && own[j] {
				modified = true
			}
		}
		b.data.Props[i].HasModified = modified
	}
	for i := range own {
		if !b.data.Props[i].HasModified {
			continue
		}
		for _, a := range b.schema.Ancestors(i) {
			b.data.Props[a].HasChildrenModified = true
		}
	}
}

// describeDefaults asks each describer directive in declaration order; the
// first non-empty answer wins, else the value is stringified.
func (b *builder) describeDefaults() {
	for i := 0; i < b.schema.Len(); i++ {
		n := b.schema.Node(i)
		def := b.data.Props[i].Default
		desc := ""
		for _, d := range n.Directives {
			if desc = b.describe(n, d, def); desc != "" {
				break
			}
		}
		if desc == "" {
			desc = def.String()
		}
		b.data.Props[i].DefaultDescription = desc
	}
}

func (b *builder) describe(n *schema.Node, d directive.Directive, def value.Value) string {
	switch d.Kind {
	case directive.KindToggle:
		if def.Number() != 0 {
			return "On"
		}
		return "Off"
	case directive.KindEnum:
		for _, opt := range d.Options {
			if opt.Value == def.Number() {
				return opt.Name
			}
		}
	case directive.KindPreset:
		if b.presets == nil {
			return ""
		}
		if p, ok := b.presets.ResolveActivePreset(n.PresetRef, def); ok {
			return p.Name
		}
	}
	return ""
}

// evaluateShowIf folds each node's conditions left to right starting from
// true. A condition that fails to evaluate counts as false.
func (b *builder) evaluateShowIf() {
	vars := make(map[string]any, b.schema.Len())
	for i := 0; i < b.schema.Len(); i++ {
		vars[b.schema.Node(i).Name] = b.data.Current[i].Number()
	}
	for i := 0; i < b.schema.Len(); i++ {
		n := b.schema.Node(i)
		result := true
		for _, c := range n.ShowIf {
			ok, err := c.Eval(vars)
			if err != nil {
				b.warn(n.Name, "showIf evaluation failed, condition treated as false", "error", err.Error())
				ok = false
			}
			result = c.Logic.Fold(result, ok)
		}
		b.data.Props[i].IsShowing = result
	}
}

func (b *builder) warn(prop, msg string, kv ...any) {
	b.data.Diagnostics = append(b.data.Diagnostics, schema.Diagnostic{
		Severity: schema.SeverityWarning,
		Property: prop,
		Message:  msg,
	})
	b.log.V(1).Info(msg, append([]any{"property", prop}, kv...)...)
}
