// Package directive defines the fixed vocabulary of per-property annotations
// consumed by the schema builder.
//
// A Directive is a tagged union: Kind selects which of the remaining fields
// are meaningful. The set of kinds is closed; builders dispatch on Kind with
// a single switch per build phase.
//
// Directives can be constructed programmatically:
//
//	props := []schema.Property{{
//		Name:       "_Quality",
//		Type:       value.Int,
//		Directives: []directive.Directive{directive.Sub("Surface")},
//	}}
//
// or decoded from YAML/JSON/TOML documents by package loader.
package directive

import (
	"fmt"
	"strings"
)

// Kind identifies a directive.
type Kind string

const (
	KindMain           Kind = "main"
	KindSub            Kind = "sub"
	KindAdvanced       Kind = "advanced"
	KindAdvancedHeader Kind = "advancedHeader"
	KindHidden         Kind = "hidden"
	KindReadOnly       Kind = "readOnly"
	KindShowIf         Kind = "showIf"
	KindExtraProperty  Kind = "extraProperty"
	KindPreset         Kind = "preset"
	KindTooltip        Kind = "tooltip"
	KindHelpbox        Kind = "helpbox"
	KindToggle         Kind = "toggle"
	KindEnum           Kind = "enum"
)

// Kinds lists every known directive kind in documentation order.
var Kinds = []Kind{
	KindMain, KindSub, KindAdvanced, KindAdvancedHeader, KindHidden, KindReadOnly,
	KindShowIf, KindExtraProperty, KindPreset, KindTooltip, KindHelpbox, KindToggle, KindEnum,
}

// DefaultAdvancedTitle labels advanced blocks declared without a title.
const DefaultAdvancedTitle = "Advanced"

// Directive is one annotation attached to a property.
type Directive struct {
	Kind Kind `json:"kind" yaml:"kind" toml:"kind"`

	// Main, Sub
	Group    string `json:"group,omitempty" yaml:"group,omitempty" toml:"group,omitempty"`
	Expanded bool   `json:"expanded,omitempty" yaml:"expanded,omitempty" toml:"expanded,omitempty"`

	// Advanced, AdvancedHeader
	Title string `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`

	// Tooltip, Helpbox
	Text string `json:"text,omitempty" yaml:"text,omitempty" toml:"text,omitempty"`

	// ShowIf: either Target/Op/Value or Expr.
	Logic  LogicalOp `json:"logic,omitempty" yaml:"logic,omitempty" toml:"logic,omitempty"`
	Target string    `json:"target,omitempty" yaml:"target,omitempty" toml:"target,omitempty"`
	Op     CompareOp `json:"op,omitempty" yaml:"op,omitempty" toml:"op,omitempty"`
	Value  float64   `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	Expr   string    `json:"expr,omitempty" yaml:"expr,omitempty" toml:"expr,omitempty"`

	// ExtraProperty
	Properties []string `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`

	// Preset
	Preset string `json:"preset,omitempty" yaml:"preset,omitempty" toml:"preset,omitempty"`

	// Enum
	Options []EnumOption `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
}

// EnumOption names one value of an enum property.
type EnumOption struct {
	Name  string  `json:"name" yaml:"name" toml:"name"`
	Value float64 `json:"value" yaml:"value" toml:"value"`
}

// Main declares the property as the owner of group.
func Main(group string) Directive { return Directive{Kind: KindMain, Group: group} }

// MainExpanded declares a group owner whose group starts expanded.
func MainExpanded(group string) Directive {
	return Directive{Kind: KindMain, Group: group, Expanded: true}
}

// Sub attaches the property to the main group whose key prefixes group.
func Sub(group string) Directive { return Directive{Kind: KindSub, Group: group} }

// Advanced places the property in an advanced block titled title.
func Advanced(title string) Directive { return Directive{Kind: KindAdvanced, Title: title} }

// AdvancedHeader forces the property to open a new advanced block.
func AdvancedHeader(title string) Directive {
	return Directive{Kind: KindAdvancedHeader, Title: title}
}

// Hidden hides the property unless hidden properties are shown.
func Hidden() Directive { return Directive{Kind: KindHidden} }

// ReadOnly marks the property as not editable.
func ReadOnly() Directive { return Directive{Kind: KindReadOnly} }

// Tooltip appends tooltip text.
func Tooltip(text string) Directive { return Directive{Kind: KindTooltip, Text: text} }

// Helpbox appends helpbox text.
func Helpbox(text string) Directive { return Directive{Kind: KindHelpbox, Text: text} }

// ShowIf narrows visibility with a comparison against another property.
func ShowIf(target string, op CompareOp, v float64) Directive {
	return Directive{Kind: KindShowIf, Logic: And, Target: target, Op: op, Value: v}
}

// OrShowIf widens visibility with a comparison against another property.
func OrShowIf(target string, op CompareOp, v float64) Directive {
	return Directive{Kind: KindShowIf, Logic: Or, Target: target, Op: op, Value: v}
}

// ShowIfExpr narrows visibility with a boolean expression over property values.
func ShowIfExpr(expr string) Directive {
	return Directive{Kind: KindShowIf, Logic: And, Expr: expr}
}

// ExtraProperty binds other properties to this one.
func ExtraProperty(names ...string) Directive {
	return Directive{Kind: KindExtraProperty, Properties: names}
}

// Preset binds the property as the selector of a preset set.
func Preset(ref string) Directive { return Directive{Kind: KindPreset, Preset: ref} }

// Toggle describes the property as an on/off switch.
func Toggle() Directive { return Directive{Kind: KindToggle} }

// Enum describes the property as a named choice.
func Enum(options ...EnumOption) Directive { return Directive{Kind: KindEnum, Options: options} }

// Validate checks that the directive kind is known and its required fields are set.
func (d Directive) Validate() error {
	switch d.Kind {
	case KindMain, KindSub:
		if strings.TrimSpace(d.Group) == "" {
			return fmt.Errorf("%s directive: group is required", d.Kind)
		}
	case KindShowIf:
		if d.Expr != "" {
			if d.Target != "" {
				return fmt.Errorf("showIf directive: expr and target are mutually exclusive")
			}
		} else if d.Target == "" {
			return fmt.Errorf("showIf directive: target or expr is required")
		}
	case KindExtraProperty:
		if len(d.Properties) == 0 {
			return fmt.Errorf("extraProperty directive: properties is required")
		}
	case KindPreset:
		if d.Preset == "" {
			return fmt.Errorf("preset directive: preset is required")
		}
	case KindEnum:
		if len(d.Options) == 0 {
			return fmt.Errorf("enum directive: options is required")
		}
	case KindAdvanced, KindAdvancedHeader, KindHidden, KindReadOnly,
		KindTooltip, KindHelpbox, KindToggle:
		// no required fields
	default:
		return fmt.Errorf("unknown directive kind %q", d.Kind)
	}
	return nil
}
