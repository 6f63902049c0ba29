package formatter

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/propinspect/pkg/schema"
)

// RenderTree prints the visible lines as an ASCII tree rooted at the
// instance. A line with deeper lines after it becomes a branch.
func RenderTree(r Report, color bool) string {
	root := treeprint.NewWithRoot(fmt.Sprintf("%s (%s)", r.Instance, r.Schema))
	stack := []treeprint.Tree{root}
	for i, l := range r.Lines {
		depth := l.Indent
		if depth >= len(stack) {
			depth = len(stack) - 1
		}
		stack = stack[:depth+1]
		parent := stack[depth]

		text := styleLine(l, treeLabel(l), color)
		hasChildren := i+1 < len(r.Lines) && r.Lines[i+1].Indent > l.Indent
		if l.IsHeader || hasChildren {
			stack = append(stack, parent.AddBranch(text))
			continue
		}
		parent.AddNode(text)
	}
	return root.String()
}

func treeLabel(l Line) string {
	var b strings.Builder
	b.WriteString(l.Label)
	if l.IsHeader && !l.IsExpanded {
		b.WriteString(" [+]")
	}
	if l.Value != "" {
		b.WriteString(": ")
		b.WriteString(flatten(l.Value))
	}
	if l.Modified {
		b.WriteString(" *")
	}
	if f := l.Flags(); f != "" && !l.Modified {
		b.WriteString(" (" + f + ")")
	}
	return b.String()
}

// RenderSchemaTree prints the static grouping of a schema with each node's
// role.
func RenderSchemaTree(d *schema.Data) string {
	root := treeprint.NewWithRoot(d.ID)
	var walk func(parent treeprint.Tree, i int)
	walk = func(parent treeprint.Tree, i int) {
		n := d.Node(i)
		text := n.Name
		if n.DisplayName != "" && n.DisplayName != n.Name {
			text += " \"" + n.DisplayName + "\""
		}
		if roles := nodeRoles(n); roles != "" {
			text += " [" + roles + "]"
		}
		if len(n.Children) == 0 {
			parent.AddMetaNode(string(n.Type), text)
			return
		}
		b := parent.AddMetaBranch(string(n.Type), text)
		for _, c := range n.Children {
			walk(b, c)
		}
	}
	for _, r := range d.Roots() {
		walk(root, r)
	}
	return root.String()
}

func nodeRoles(n *schema.Node) string {
	var roles []string
	switch {
	case n.IsMain:
		roles = append(roles, "main")
	case n.IsAdvancedHeader:
		roles = append(roles, "advanced:"+n.AdvancedTitle)
	case n.IsSub:
		roles = append(roles, "sub")
	}
	if n.IsAdvanced && !n.IsAdvancedHeader {
		roles = append(roles, "advanced")
	}
	if n.ConditionalKeyword != "" {
		roles = append(roles, "keyword="+n.ConditionalKeyword)
	}
	if n.IsHidden {
		roles = append(roles, "hidden")
	}
	if n.IsReadOnly {
		roles = append(roles, "read-only")
	}
	if len(n.ShowIf) > 0 {
		roles = append(roles, "showIf")
	}
	return strings.Join(roles, ",")
}
