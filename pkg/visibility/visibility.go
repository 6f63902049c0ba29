// Package visibility decides whether a single property is visible.
//
// Resolve is a pure per-node function. It does not look at the parent: a
// node under a hidden or collapsed group is filtered by the caller walking
// the tree top-down.
package visibility

import (
	"github.com/oakwood-commons/propinspect/pkg/instance"
	"github.com/oakwood-commons/propinspect/pkg/schema"
	"github.com/oakwood-commons/propinspect/pkg/session"
)

// Gate names the filter that hid a property.
type Gate string

const (
	GateNone     Gate = ""
	GateHidden   Gate = "hidden"
	GateSearch   Gate = "search"
	GateKeyword  Gate = "keyword"
	GateModified Gate = "modified"
	GateShowIf   Gate = "showIf"
)

// Context is everything Resolve reads. Matches and Modified are the
// session's precomputed search matches and modified-name set.
type Context struct {
	Schema   *schema.Data
	Instance *instance.Data
	Display  session.DisplayMode
	Matches  map[string]bool
	Modified map[string]struct{}
}

// NewContext snapshots the session's current filters for one query.
func NewContext(sc *schema.Data, d *instance.Data, st *session.State) Context {
	return Context{
		Schema:   sc,
		Instance: d,
		Display:  st.DisplayMode(),
		Matches:  st.SearchMatches(sc, d),
		Modified: st.ModifiedSet(sc, d),
	}
}

// Resolve reports whether node i is visible.
func Resolve(ctx Context, i int) bool {
	_, gate := Explain(ctx, i)
	return gate == GateNone
}

// Explain is Resolve plus the first gate that rejected the node. Gates run
// in a fixed order and the first rejection wins.
func Explain(ctx Context, i int) (bool, Gate) {
	n := ctx.Schema.Node(i)

	if n.IsHidden && !ctx.Display.ShowHidden {
		return false, GateHidden
	}
	if ctx.Matches != nil && !ctx.Matches[n.Name] {
		return false, GateSearch
	}
	if n.ConditionalKeyword != "" && !ctx.Instance.HasKeyword(n.ConditionalKeyword) {
		return false, GateKeyword
	}
	if ctx.Display.ShowOnlyModified {
		if _, ok := ctx.Modified[n.Name]; !ok {
			return false, GateModified
		}
	}
	if ctx.Display.ShowOnlyModifiedGroups {
		owner := ctx.Schema.Node(ctx.Schema.GroupOwner(i)).Name
		if _, ok := ctx.Modified[owner]; !ok {
			return false, GateModified
		}
	}
	if !ctx.Instance.Prop(i).IsShowing {
		return false, GateShowIf
	}
	return true, GateNone
}
