// Package schema builds the immutable per-schema property tree: grouping,
// advanced blocks, decoded display text and ShowIf conditions.
//
// Nodes live in an arena owned by Data and reference each other by index.
// Parent links are plain indices and never imply ownership; children lists
// are owned index slices. The tree is at most three levels deep:
// main -> sub or advanced header -> advanced child.
package schema

import (
	"fmt"

	"github.com/oakwood-commons/propinspect/internal/cel"
	"github.com/oakwood-commons/propinspect/pkg/directive"
	"github.com/oakwood-commons/propinspect/pkg/value"
)

// NoParent marks a root node.
const NoParent = -1

// Property is one declared property as delivered by the asset collaborator.
type Property struct {
	Name        string
	DisplayName string
	Type        value.Type
	Default     value.Value
	Directives  []directive.Directive
}

// Condition is one normalized ShowIf entry.
type Condition struct {
	Logic  directive.LogicalOp
	Target string
	Op     directive.CompareOp
	Value  float64
	Expr   *cel.Predicate
}

// Eval evaluates the comparison (or expression) against property values
// keyed by name. Values are the numbers produced by value.Value.Number.
func (c Condition) Eval(values map[string]any) (bool, error) {
	if c.Expr != nil {
		return c.Expr.Eval(values)
	}
	raw, ok := values[c.Target]
	if !ok {
		return false, fmt.Errorf("showIf target %q has no value", c.Target)
	}
	lhs, ok := raw.(float64)
	if !ok {
		return false, fmt.Errorf("showIf target %q is not numeric", c.Target)
	}
	return c.Op.Compare(lhs, c.Value), nil
}

// Node is the static metadata of one property. Nodes are read-only once the
// owning Data is returned from Build.
type Node struct {
	Index          int
	Name           string
	Type           value.Type
	Default        value.Value
	RawDisplayName string
	DisplayName    string

	// GroupName is the main group key for mains and resolved subs. For a sub
	// it is the matched prefix only; the rest became ConditionalKeyword.
	GroupName          string
	ConditionalKeyword string
	DefaultExpanded    bool

	IsMain           bool
	IsSub            bool
	IsAdvanced       bool
	IsAdvancedHeader bool
	AdvancedTitle    string

	IsHidden   bool
	IsReadOnly bool

	ShowIf          []Condition
	ExtraProperties []string
	Tooltip         string
	Helpbox         string
	PresetRef       string

	// Directives keeps the declared directives in order for describers.
	Directives []directive.Directive

	Parent   int
	Children []int
}

// HasParent reports whether the node is attached to a main or header.
func (n *Node) HasParent() bool { return n.Parent != NoParent }

// IsGroupHeader reports whether the node heads a foldable block.
func (n *Node) IsGroupHeader() bool { return n.IsMain || n.IsAdvancedHeader }

// DisplayModeStaticData holds per-schema totals for summary badges.
type DisplayModeStaticData struct {
	HiddenCount   int `json:"hiddenCount" yaml:"hiddenCount"`
	AdvancedCount int `json:"advancedCount" yaml:"advancedCount"`
}

// Data is the built schema.
type Data struct {
	ID          string
	DisplayMode DisplayModeStaticData
	Diagnostics []Diagnostic

	nodes  []Node
	byName map[string]int
	mains  map[string]int
	roots  []int
}

// Len returns the number of properties.
func (d *Data) Len() int { return len(d.nodes) }

// Node returns the node at index i.
func (d *Data) Node(i int) *Node { return &d.nodes[i] }

// Lookup returns the index of the named property.
func (d *Data) Lookup(name string) (int, bool) {
	i, ok := d.byName[name]
	return i, ok
}

// NodeByName returns the named node or nil.
func (d *Data) NodeByName(name string) *Node {
	if i, ok := d.byName[name]; ok {
		return &d.nodes[i]
	}
	return nil
}

// MainGroup returns the index of the main node owning group key.
func (d *Data) MainGroup(key string) (int, bool) {
	i, ok := d.mains[key]
	return i, ok
}

// Roots returns the indices of parentless nodes in declaration order.
func (d *Data) Roots() []int { return d.roots }

// Depth returns the number of ancestors of node i.
func (d *Data) Depth(i int) int {
	depth := 0
	for p := d.nodes[i].Parent; p != NoParent; p = d.nodes[p].Parent {
		depth++
	}
	return depth
}

// Ancestors returns the parent and, if present, grandparent of node i.
func (d *Data) Ancestors(i int) []int {
	var out []int
	for p := d.nodes[i].Parent; p != NoParent && len(out) < 2; p = d.nodes[p].Parent {
		out = append(out, p)
	}
	return out
}

// GroupOwner returns the nearest main ancestor of node i, or i itself when
// the node is ungrouped.
func (d *Data) GroupOwner(i int) int {
	for p := d.nodes[i].Parent; p != NoParent; p = d.nodes[p].Parent {
		if d.nodes[p].IsMain {
			return p
		}
	}
	return i
}

// Descendants returns children and grandchildren of node i in tree order.
func (d *Data) Descendants(i int) []int {
	var out []int
	for _, c := range d.nodes[i].Children {
		out = append(out, c)
		out = append(out, d.nodes[c].Children...)
	}
	return out
}

// Names returns property names in declaration order.
func (d *Data) Names() []string {
	names := make([]string, len(d.nodes))
	for i := range d.nodes {
		names[i] = d.nodes[i].Name
	}
	return names
}
