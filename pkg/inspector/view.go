package inspector

import (
	"errors"
	"fmt"

	"github.com/oakwood-commons/propinspect/pkg/instance"
	"github.com/oakwood-commons/propinspect/pkg/schema"
	"github.com/oakwood-commons/propinspect/pkg/session"
	"github.com/oakwood-commons/propinspect/pkg/value"
	"github.com/oakwood-commons/propinspect/pkg/visibility"
)

// ErrInstanceEvicted is returned by View mutators after the view's instance
// was closed, evicted or rebuilt from a newer schema pass.
var ErrInstanceEvicted = errors.New("instance is no longer cached")

// View is the result of one GetOrBuild query. Schema, Instance and Session
// keep their identity across queries until the tier they belong to is
// rebuilt.
type View struct {
	cache *Cache
	host  instance.Host

	Schema   *schema.Data
	Instance *instance.Data
	Session  *session.State

	// Rebuilt lists the tiers this query rebuilt.
	Rebuilt Tiers
	// RevertedSinceLastQuery lists properties reverted since the previous
	// query on this instance. It is reported exactly once.
	RevertedSinceLastQuery []string
}

// Row is one visible line in paint order.
type Row struct {
	Name        string `json:"name" yaml:"name"`
	Label       string `json:"label" yaml:"label"`
	IndentLevel int    `json:"indentLevel" yaml:"indentLevel"`
	IsHeader    bool   `json:"isHeader" yaml:"isHeader"`
	IsExpanded  bool   `json:"isExpanded" yaml:"isExpanded"`
}

// PropertyState is what the drawing layer needs to paint one field.
type PropertyState struct {
	Name                string      `json:"name" yaml:"name"`
	DisplayLabel        string      `json:"displayLabel" yaml:"displayLabel"`
	Tooltip             string      `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	Helpbox             string      `json:"helpbox,omitempty" yaml:"helpbox,omitempty"`
	IsReadOnly          bool        `json:"isReadOnly" yaml:"isReadOnly"`
	HasModified         bool        `json:"hasModified" yaml:"hasModified"`
	HasChildrenModified bool        `json:"hasChildrenModified" yaml:"hasChildrenModified"`
	DefaultDescription  string      `json:"defaultDescription" yaml:"defaultDescription"`
	Value               value.Value `json:"-" yaml:"-"`
	Default             value.Value `json:"-" yaml:"-"`
	Visible             bool        `json:"visible" yaml:"visible"`
	HiddenBy            string      `json:"hiddenBy,omitempty" yaml:"hiddenBy,omitempty"`
}

// Counts feeds the summary badges.
type Counts struct {
	schema.DisplayModeStaticData `yaml:",inline"`
	Modified                     int `json:"modifiedCount" yaml:"modifiedCount"`
	Visible                      int `json:"visibleCount" yaml:"visibleCount"`
}

// VisibleProperties walks the tree in declaration order and returns the rows
// to paint. Children are emitted only under a visible, expanded parent.
func (v *View) VisibleProperties() []Row {
	v.cache.mu.Lock()
	defer v.cache.mu.Unlock()
	return v.visibleRows()
}

func (v *View) visibleRows() []Row {
	ctx := visibility.NewContext(v.Schema, v.Instance, v.Session)
	var rows []Row
	var walk func(i, depth int)
	walk = func(i, depth int) {
		if !visibility.Resolve(ctx, i) {
			return
		}
		n := v.Schema.Node(i)
		expanded := v.isExpanded(n)
		rows = append(rows, Row{
			Name:        n.Name,
			Label:       n.DisplayName,
			IndentLevel: depth,
			IsHeader:    n.IsGroupHeader(),
			IsExpanded:  expanded,
		})
		if !expanded {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, r := range v.Schema.Roots() {
		walk(r, 0)
	}
	return rows
}

func (v *View) isExpanded(n *schema.Node) bool {
	if len(n.Children) == 0 && !n.IsGroupHeader() {
		return false
	}
	if len(session.Tokenize(v.Session.SearchText())) > 0 {
		return true
	}
	if n.IsAdvancedHeader && v.Session.DisplayMode().ShowAdvanced {
		return true
	}
	return v.Session.IsExpanded(n.Name)
}

// PropertyState returns the paint state of the named property.
func (v *View) PropertyState(name string) (PropertyState, error) {
	v.cache.mu.Lock()
	defer v.cache.mu.Unlock()
	i, ok := v.Schema.Lookup(name)
	if !ok {
		return PropertyState{}, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	n := v.Schema.Node(i)
	p := v.Instance.Prop(i)
	visible, gate := visibility.Explain(visibility.NewContext(v.Schema, v.Instance, v.Session), i)
	return PropertyState{
		Name:                n.Name,
		DisplayLabel:        n.DisplayName,
		Tooltip:             n.Tooltip,
		Helpbox:             n.Helpbox,
		IsReadOnly:          n.IsReadOnly,
		HasModified:         p.HasModified,
		HasChildrenModified: p.HasChildrenModified,
		DefaultDescription:  p.DefaultDescription,
		Value:               v.Instance.Current[i],
		Default:             p.Default,
		Visible:             visible,
		HiddenBy:            string(gate),
	}, nil
}

// Revert writes the default snapshot back into the named property and its
// bound extras. The instance is rebuilt on the next query, which reports the
// reverted names once.
func (v *View) Revert(name string) ([]string, error) {
	v.cache.mu.Lock()
	defer v.cache.mu.Unlock()
	i, ok := v.Schema.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	return v.revert([]int{i})
}

// RevertGroup reverts the named property, its descendants and every bound
// extra of those.
func (v *View) RevertGroup(name string) ([]string, error) {
	v.cache.mu.Lock()
	defer v.cache.mu.Unlock()
	i, ok := v.Schema.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	return v.revert(append([]int{i}, v.Schema.Descendants(i)...))
}

func (v *View) revert(targets []int) ([]string, error) {
	// Node indices are only meaningful against the build this view was
	// taken from.
	ie, ok := v.cache.instances[v.host.ID()]
	if !ok || ie.data == nil || ie.data != v.Instance {
		return nil, fmt.Errorf("%w: %s", ErrInstanceEvicted, v.host.ID())
	}

	seen := make(map[int]bool)
	var order []int
	for _, i := range targets {
		if !seen[i] {
			seen[i] = true
			order = append(order, i)
		}
		for _, extra := range v.Schema.Node(i).ExtraProperties {
			if j, ok := v.Schema.Lookup(extra); ok && !seen[j] {
				seen[j] = true
				order = append(order, j)
			}
		}
	}

	var reverted []string
	for _, i := range order {
		n := v.Schema.Node(i)
		def := ie.data.Prop(i).Default
		cur, ok := v.host.Value(n.Name)
		if ok && cur.Equal(def) {
			continue
		}
		if err := v.host.SetValue(n.Name, def); err != nil {
			return reverted, fmt.Errorf("revert %s: %w", n.Name, err)
		}
		reverted = append(reverted, n.Name)
	}
	if len(reverted) > 0 {
		ie.dirty = true
		ie.reverted = append(ie.reverted, reverted...)
		v.cache.log.V(1).Info("reverted properties", "instance", v.host.ID(), "properties", reverted)
	}
	return reverted, nil
}

// SetDisplayMode updates the session's display flags.
func (v *View) SetDisplayMode(m session.DisplayMode) bool {
	v.cache.mu.Lock()
	defer v.cache.mu.Unlock()
	return v.Session.SetDisplayMode(m)
}

// SetSearch updates the session's query.
func (v *View) SetSearch(text string, mode session.SearchMode) bool {
	v.cache.mu.Lock()
	defer v.cache.mu.Unlock()
	return v.Session.SetSearch(text, mode)
}

// ToggleExpand flips a group's expansion and returns the new state.
func (v *View) ToggleExpand(name string) (bool, error) {
	v.cache.mu.Lock()
	defer v.cache.mu.Unlock()
	n := v.Schema.NodeByName(name)
	if n == nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	return v.Session.ToggleExpand(name), nil
}

// SetExpanded sets a group's expansion.
func (v *View) SetExpanded(name string, expanded bool) error {
	v.cache.mu.Lock()
	defer v.cache.mu.Unlock()
	if v.Schema.NodeByName(name) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	v.Session.SetExpanded(name, expanded)
	return nil
}

// Counts returns the summary badge totals for the view.
func (v *View) Counts() Counts {
	v.cache.mu.Lock()
	defer v.cache.mu.Unlock()
	return Counts{
		DisplayModeStaticData: v.Schema.DisplayMode,
		Modified:              v.Instance.ModifiedCount(),
		Visible:               len(v.visibleRows()),
	}
}
