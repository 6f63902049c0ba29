package loader

import (
	"math"
	"sort"

	"github.com/oakwood-commons/propinspect/pkg/instance"
	"github.com/oakwood-commons/propinspect/pkg/value"
)

// PresetStore holds preset sets by reference name. It implements
// instance.PresetStore.
type PresetStore struct {
	sets map[string][]instance.Preset
}

// NewPresetStore returns an empty store.
func NewPresetStore() *PresetStore {
	return &PresetStore{sets: make(map[string][]instance.Preset)}
}

// Add appends presets to the set named ref.
func (p *PresetStore) Add(ref string, presets ...instance.Preset) {
	p.sets[ref] = append(p.sets[ref], presets...)
}

// Refs returns the set names in sorted order.
func (p *PresetStore) Refs() []string {
	refs := make([]string, 0, len(p.sets))
	for ref := range p.sets {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Set returns the presets of ref in declaration order.
func (p *PresetStore) Set(ref string) []instance.Preset { return p.sets[ref] }

// ResolveActivePreset selects by the selector's numeric value used as an
// index into the set. Fractional or out-of-range selectors select nothing.
func (p *PresetStore) ResolveActivePreset(ref string, selector value.Value) (instance.Preset, bool) {
	set := p.sets[ref]
	n := selector.Number()
	// Compared as floats so huge, infinite or NaN selectors never reach the
	// int conversion.
	if math.IsNaN(n) || n != math.Trunc(n) || n < 0 || n >= float64(len(set)) {
		return instance.Preset{}, false
	}
	return set[int(n)], true
}
