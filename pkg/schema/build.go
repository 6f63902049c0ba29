package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/propinspect/internal/cel"
	"github.com/oakwood-commons/propinspect/pkg/directive"
)

// Option configures Build.
type Option func(*builder)

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l logr.Logger) Option {
	return func(b *builder) { b.log = l }
}

// WithEvaluator sets the expression compiler used for ShowIf expressions.
// When unset, one is created on first use.
func WithEvaluator(e *cel.Evaluator) Option {
	return func(b *builder) { b.eval = e }
}

type builder struct {
	log  logr.Logger
	eval *cel.Evaluator
	data *Data
	errs []error
}

// Build constructs the static tree for one schema. On configuration errors
// the returned error joins every *ConfigError found and the Data is nil;
// recoverable problems are logged and listed in Data.Diagnostics.
func Build(id string, props []Property, opts ...Option) (*Data, error) {
	b := &builder{log: logr.Discard()}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithValues("schema", id)
	b.data = &Data{
		ID:     id,
		nodes:  make([]Node, len(props)),
		byName: make(map[string]int, len(props)),
		mains:  make(map[string]int),
	}

	for i, p := range props {
		if _, dup := b.data.byName[p.Name]; dup {
			b.fail(p.Name, "", ErrDuplicateProperty, "")
			continue
		}
		b.data.byName[p.Name] = i
	}
	for i, p := range props {
		b.buildNode(i, p)
	}
	b.resolveShowIf()
	b.resolveExtras()
	b.indexMainGroups()
	b.resolveGroups()
	owners := b.groupOwners()
	b.segmentAdvanced(owners)
	b.linkChildren()
	b.countDisplayMode()

	if len(b.errs) > 0 {
		err := errors.Join(b.errs...)
		b.log.Error(err, "schema build failed", "errors", len(b.errs))
		return nil, err
	}
	b.log.V(2).Info("schema built", "properties", len(props), "roots", len(b.data.roots))
	return b.data, nil
}

func (b *builder) fail(prop string, kind directive.Kind, err error, detail string) {
	b.errs = append(b.errs, &ConfigError{Property: prop, Directive: kind, Err: err, Detail: detail})
}

func (b *builder) warn(prop, msg string, kv ...any) {
	b.data.Diagnostics = append(b.data.Diagnostics, Diagnostic{
		Severity: SeverityWarning,
		Property: prop,
		Message:  msg,
	})
	b.log.V(1).Info(msg, append([]any{"property", prop}, kv...)...)
}

// buildNode applies the property's directives in declaration order.
func (b *builder) buildNode(i int, p Property) {
	n := &b.data.nodes[i]
	*n = Node{
		Index:          i,
		Name:           p.Name,
		Type:           p.Type,
		Default:        p.Default,
		RawDisplayName: p.DisplayName,
		Parent:         NoParent,
		Directives:     p.Directives,
	}
	n.DisplayName, n.Tooltip, n.Helpbox = DecodeDisplayName(p.DisplayName)
	if n.DisplayName == "" {
		n.DisplayName = p.Name
	}

	for _, d := range p.Directives {
		if err := d.Validate(); err != nil {
			kind := ErrInvalidDirective
			if d.Kind == directive.KindMain || d.Kind == directive.KindSub {
				kind = ErrMalformedGroup
			}
			b.fail(p.Name, d.Kind, kind, err.Error())
			continue
		}
		b.applyDirective(n, d)
	}
	if n.IsMain && n.IsSub {
		b.fail(p.Name, directive.KindSub, ErrMalformedGroup, "property is both main and sub")
	}
}

func (b *builder) applyDirective(n *Node, d directive.Directive) {
	switch d.Kind {
	case directive.KindMain:
		n.IsMain = true
		n.GroupName = strings.TrimSpace(d.Group)
		n.DefaultExpanded = d.Expanded
	case directive.KindSub:
		n.IsSub = true
		n.GroupName = strings.TrimSpace(d.Group)
	case directive.KindAdvanced:
		n.IsAdvanced = true
		n.AdvancedTitle = advancedTitle(d.Title)
	case directive.KindAdvancedHeader:
		n.IsAdvanced = true
		n.IsAdvancedHeader = true
		n.AdvancedTitle = advancedTitle(d.Title)
	case directive.KindHidden:
		n.IsHidden = true
	case directive.KindReadOnly:
		n.IsReadOnly = true
	case directive.KindShowIf:
		logic, err := directive.ParseLogicalOp(string(d.Logic))
		if err != nil {
			b.fail(n.Name, d.Kind, ErrInvalidOperator, err.Error())
			return
		}
		cond := Condition{Logic: logic, Target: d.Target, Value: d.Value}
		if d.Expr != "" {
			pred, err := b.compile(d.Expr)
			if err != nil {
				b.fail(n.Name, d.Kind, ErrInvalidExpression, err.Error())
				return
			}
			cond.Expr = pred
		} else {
			op, err := directive.ParseCompareOp(string(d.Op))
			if err != nil {
				b.fail(n.Name, d.Kind, ErrInvalidOperator, err.Error())
				return
			}
			cond.Op = op
		}
		n.ShowIf = append(n.ShowIf, cond)
	case directive.KindExtraProperty:
		n.ExtraProperties = append(n.ExtraProperties, d.Properties...)
	case directive.KindPreset:
		n.PresetRef = d.Preset
	case directive.KindTooltip:
		n.Tooltip = appendLine(n.Tooltip, d.Text)
	case directive.KindHelpbox:
		n.Helpbox = appendLine(n.Helpbox, d.Text)
	case directive.KindToggle, directive.KindEnum:
		// describers only; read from Directives when describing defaults
	}
}

func (b *builder) compile(expr string) (*cel.Predicate, error) {
	if b.eval == nil {
		e, err := cel.NewEvaluator()
		if err != nil {
			return nil, err
		}
		b.eval = e
	}
	return b.eval.Compile(expr)
}

func advancedTitle(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return directive.DefaultAdvancedTitle
}

// resolveShowIf rejects conditions that reference undeclared properties.
func (b *builder) resolveShowIf() {
	for i := range b.data.nodes {
		n := &b.data.nodes[i]
		for _, c := range n.ShowIf {
			targets := []string{c.Target}
			if c.Expr != nil {
				targets = c.Expr.References()
			}
			for _, t := range targets {
				if _, ok := b.data.byName[t]; !ok {
					b.fail(n.Name, directive.KindShowIf, ErrMissingShowIfTarget, t)
				}
			}
		}
	}
}

// resolveExtras drops extra-property bindings to undeclared names.
func (b *builder) resolveExtras() {
	for i := range b.data.nodes {
		n := &b.data.nodes[i]
		if len(n.ExtraProperties) == 0 {
			continue
		}
		kept := n.ExtraProperties[:0:0]
		for _, name := range n.ExtraProperties {
			if _, ok := b.data.byName[name]; !ok || name == n.Name {
				b.warn(n.Name, "extra property not found, binding dropped", "extra", name)
				continue
			}
			kept = append(kept, name)
		}
		n.ExtraProperties = kept
	}
}

func (b *builder) indexMainGroups() {
	for i := range b.data.nodes {
		n := &b.data.nodes[i]
		if !n.IsMain || n.GroupName == "" {
			continue
		}
		if prev, dup := b.data.mains[n.GroupName]; dup {
			b.fail(n.Name, directive.KindMain, ErrDuplicateGroup,
				fmt.Sprintf("group %q already owned by %q", n.GroupName, b.data.nodes[prev].Name))
			continue
		}
		b.data.mains[n.GroupName] = i
	}
}

// resolveGroups matches every sub against the longest main key that
// prefixes its group; the remainder becomes the conditional keyword.
func (b *builder) resolveGroups() {
	for i := range b.data.nodes {
		n := &b.data.nodes[i]
		if !n.IsSub || n.IsMain {
			continue
		}
		key := b.longestMainPrefix(n.GroupName)
		if key == "" {
			b.warn(n.Name, "no main group matches sub group, treated as ungrouped", "group", n.GroupName)
			n.IsSub = false
			n.GroupName = ""
			continue
		}
		rest := strings.TrimPrefix(n.GroupName[len(key):], "_")
		n.GroupName = key
		n.ConditionalKeyword = strings.ToUpper(rest)
	}
}

func (b *builder) longestMainPrefix(group string) string {
	best := ""
	for key := range b.data.mains {
		if strings.HasPrefix(group, key) && len(key) > len(best) {
			best = key
		}
	}
	return best
}

// groupOwners maps each node to the main node owning its group, or NoParent.
func (b *builder) groupOwners() []int {
	owners := make([]int, len(b.data.nodes))
	for i := range b.data.nodes {
		n := &b.data.nodes[i]
		owners[i] = NoParent
		if n.IsSub {
			owners[i] = b.data.mains[n.GroupName]
		}
	}
	return owners
}

// segmentAdvanced assigns parents. An advanced node opens a new header unless
// the previous property was advanced, shares its owner and header title, and
// the node is not declared a header itself.
func (b *builder) segmentAdvanced(owners []int) {
	openHeader := NoParent
	prevAdvanced := false
	for i := range b.data.nodes {
		n := &b.data.nodes[i]
		if n.IsMain {
			if n.IsAdvanced {
				b.warn(n.Name, "main property cannot be advanced, advanced directive ignored")
				n.IsAdvanced, n.IsAdvancedHeader, n.AdvancedTitle = false, false, ""
			}
			openHeader, prevAdvanced = NoParent, false
			continue
		}
		if !n.IsAdvanced {
			n.Parent = owners[i]
			openHeader, prevAdvanced = NoParent, false
			continue
		}

		continues := prevAdvanced && openHeader != NoParent && !n.IsAdvancedHeader &&
			owners[openHeader] == owners[i] &&
			b.data.nodes[openHeader].AdvancedTitle == n.AdvancedTitle
		if continues {
			n.Parent = openHeader
		} else {
			n.IsAdvancedHeader = true
			n.Parent = owners[i]
			openHeader = i
		}
		prevAdvanced = true
	}
}

func (b *builder) linkChildren() {
	for i := range b.data.nodes {
		p := b.data.nodes[i].Parent
		if p == NoParent {
			b.data.roots = append(b.data.roots, i)
			continue
		}
		b.data.nodes[p].Children = append(b.data.nodes[p].Children, i)
	}
}

func (b *builder) countDisplayMode() {
	for i := range b.data.nodes {
		n := &b.data.nodes[i]
		if n.IsHidden {
			b.data.DisplayMode.HiddenCount++
		}
		if n.IsAdvanced {
			b.data.DisplayMode.AdvancedCount++
		}
	}
}
