package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/propinspect/pkg/directive"
	"github.com/oakwood-commons/propinspect/pkg/value"
)

func prop(name string, t value.Type, ds ...directive.Directive) Property {
	return Property{Name: name, Type: t, Default: value.Zero(t), Directives: ds}
}

// ---------------------------------------------------------------------------
// Display name decoding
// ---------------------------------------------------------------------------

func TestDecodeDisplayName(t *testing.T) {
	tests := []struct {
		raw                    string
		label, tooltip, helpbx string
	}{
		{raw: "Size#In meters%Must be >0", label: "Size", tooltip: "In meters", helpbx: "Must be >0"},
		{raw: "Plain", label: "Plain"},
		{raw: "Tint%Only helpbox", label: "Tint", helpbx: "Only helpbox"},
		{raw: "A#one#two", label: "A", tooltip: "one\ntwo"},
		{raw: "B%first#tip%second", label: "B", tooltip: "tip", helpbx: "first\nsecond"},
		{raw: "#only tooltip", label: "", tooltip: "only tooltip"},
		{raw: "C#", label: "C"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			label, tip, help := DecodeDisplayName(tt.raw)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.tooltip, tip)
			assert.Equal(t, tt.helpbx, help)
		})
	}
}

func TestBuild_DisplayNameAndDirectiveTextConcatenate(t *testing.T) {
	p := prop("_Size", value.Float, directive.Tooltip("Directive tip"), directive.Tooltip("Second"), directive.Helpbox("Box"))
	p.DisplayName = "Size#In meters%Must be >0"

	d, err := Build("s", []Property{p})
	require.NoError(t, err)

	n := d.NodeByName("_Size")
	require.NotNil(t, n)
	assert.Equal(t, "Size", n.DisplayName)
	assert.Equal(t, "In meters\nDirective tip\nSecond", n.Tooltip)
	assert.Equal(t, "Must be >0\nBox", n.Helpbox)
}

func TestBuild_EmptyDisplayNameFallsBackToName(t *testing.T) {
	d, err := Build("s", []Property{prop("_Raw", value.Float)})
	require.NoError(t, err)
	assert.Equal(t, "_Raw", d.Node(0).DisplayName)
}

// ---------------------------------------------------------------------------
// Grouping
// ---------------------------------------------------------------------------

func TestBuild_Grouping(t *testing.T) {
	d, err := Build("s", []Property{
		prop("Base", value.Color, directive.Main("G")),
		prop("Tint", value.Color, directive.Sub("G")),
		prop("Foo", value.Float, directive.Sub("G_foo")),
		prop("Other", value.Float),
	})
	require.NoError(t, err)

	base := d.NodeByName("Base")
	tint := d.NodeByName("Tint")
	foo := d.NodeByName("Foo")
	other := d.NodeByName("Other")

	assert.True(t, base.IsMain)
	assert.Equal(t, NoParent, base.Parent)
	assert.Equal(t, []int{tint.Index, foo.Index}, base.Children)

	assert.Equal(t, base.Index, tint.Parent)
	assert.Equal(t, "G", tint.GroupName)
	assert.Empty(t, tint.ConditionalKeyword)

	assert.Equal(t, base.Index, foo.Parent)
	assert.Equal(t, "G", foo.GroupName)
	assert.Equal(t, "FOO", foo.ConditionalKeyword)

	assert.False(t, other.HasParent())
	assert.Equal(t, []int{base.Index, other.Index}, d.Roots())
}

func TestBuild_LongestPrefixWins(t *testing.T) {
	d, err := Build("s", []Property{
		prop("A", value.Float, directive.Main("G")),
		prop("B", value.Float, directive.Main("G2")),
		prop("C", value.Float, directive.Sub("G2_ON")),
	})
	require.NoError(t, err)
	c := d.NodeByName("C")
	assert.Equal(t, "G2", c.GroupName)
	assert.Equal(t, "ON", c.ConditionalKeyword)
	assert.Equal(t, d.NodeByName("B").Index, c.Parent)
}

func TestBuild_SubBeforeMain(t *testing.T) {
	d, err := Build("s", []Property{
		prop("Tint", value.Color, directive.Sub("G")),
		prop("Base", value.Color, directive.Main("G")),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, d.NodeByName("Tint").Parent)
}

func TestBuild_OrphanSubIsRecoverable(t *testing.T) {
	d, err := Build("s", []Property{
		prop("Lonely", value.Float, directive.Sub("Missing")),
	})
	require.NoError(t, err)
	n := d.NodeByName("Lonely")
	assert.False(t, n.HasParent())
	assert.False(t, n.IsSub)
	assert.Empty(t, n.GroupName)
	require.Len(t, d.Diagnostics, 1)
	assert.Equal(t, SeverityWarning, d.Diagnostics[0].Severity)
	assert.Equal(t, "Lonely", d.Diagnostics[0].Property)
}

// ---------------------------------------------------------------------------
// Advanced runs
// ---------------------------------------------------------------------------

func TestBuild_AdvancedRuns(t *testing.T) {
	d, err := Build("s", []Property{
		prop("Main", value.Float, directive.Main("G")),
		prop("A1", value.Float, directive.Sub("G"), directive.Advanced("")),
		prop("A2", value.Float, directive.Sub("G"), directive.Advanced("Advanced")),
		prop("A3", value.Float, directive.Sub("G"), directive.Advanced("Other")),
		prop("A4", value.Float, directive.Sub("G"), directive.Advanced("Other")),
		prop("Plain", value.Float, directive.Sub("G")),
		prop("A5", value.Float, directive.Sub("G"), directive.Advanced("Other")),
		prop("A6", value.Float, directive.Sub("G"), directive.AdvancedHeader("Other")),
	})
	require.NoError(t, err)

	main := d.NodeByName("Main").Index
	a1 := d.NodeByName("A1")
	a2 := d.NodeByName("A2")
	a3 := d.NodeByName("A3")
	a4 := d.NodeByName("A4")
	a5 := d.NodeByName("A5")
	a6 := d.NodeByName("A6")

	// empty title equals the canonical title
	assert.True(t, a1.IsAdvancedHeader)
	assert.Equal(t, main, a1.Parent)
	assert.False(t, a2.IsAdvancedHeader)
	assert.Equal(t, a1.Index, a2.Parent)

	// title change opens a new header
	assert.True(t, a3.IsAdvancedHeader)
	assert.Equal(t, a3.Index, a4.Parent)

	// a non-advanced property closes the run
	assert.True(t, a5.IsAdvancedHeader)
	// explicit header always opens a new block
	assert.True(t, a6.IsAdvancedHeader)
	assert.Equal(t, main, a6.Parent)

	assert.Equal(t, 2, d.Depth(a2.Index))
	assert.Equal(t, []int{a2.Index}, a1.Children)
	assert.Equal(t, []int{a2.Index, a1.Index}, d.Ancestors(a2.Index))
	assert.Equal(t, main, d.GroupOwner(a2.Index))
	assert.Equal(t, 6, d.DisplayMode.AdvancedCount)
}

func TestBuild_AdvancedRunDoesNotCrossGroups(t *testing.T) {
	d, err := Build("s", []Property{
		prop("M1", value.Float, directive.Main("One")),
		prop("M2", value.Float, directive.Main("Two")),
		prop("X", value.Float, directive.Sub("One"), directive.Advanced("")),
		prop("Y", value.Float, directive.Sub("Two"), directive.Advanced("")),
	})
	require.NoError(t, err)
	assert.True(t, d.NodeByName("X").IsAdvancedHeader)
	assert.True(t, d.NodeByName("Y").IsAdvancedHeader)
	assert.Equal(t, d.NodeByName("M2").Index, d.NodeByName("Y").Parent)
}

func TestBuild_UngroupedAdvancedRun(t *testing.T) {
	d, err := Build("s", []Property{
		prop("X", value.Float, directive.Advanced("")),
		prop("Y", value.Float, directive.Advanced("")),
	})
	require.NoError(t, err)
	x := d.NodeByName("X")
	assert.True(t, x.IsAdvancedHeader)
	assert.Equal(t, NoParent, x.Parent)
	assert.Equal(t, x.Index, d.NodeByName("Y").Parent)
	assert.Equal(t, x.Index, d.GroupOwner(x.Index))
}

func TestBuild_HiddenCounts(t *testing.T) {
	d, err := Build("s", []Property{
		prop("H1", value.Float, directive.Hidden()),
		prop("H2", value.Float, directive.Hidden(), directive.ReadOnly()),
		prop("V", value.Float),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, d.DisplayMode.HiddenCount)
	assert.True(t, d.NodeByName("H2").IsReadOnly)
}

// ---------------------------------------------------------------------------
// ShowIf, extras, presets
// ---------------------------------------------------------------------------

func TestBuild_ShowIfNormalized(t *testing.T) {
	d, err := Build("s", []Property{
		prop("Quality", value.Int),
		prop("Mode", value.Float,
			directive.ShowIf("Quality", "GE", 2),
			directive.OrShowIf("Quality", "==", 0),
			directive.ShowIfExpr("props.Quality < 5.0")),
	})
	require.NoError(t, err)
	conds := d.NodeByName("Mode").ShowIf
	require.Len(t, conds, 3)
	assert.Equal(t, directive.GreaterEqual, conds[0].Op)
	assert.Equal(t, directive.And, conds[0].Logic)
	assert.Equal(t, directive.Equal, conds[1].Op)
	assert.Equal(t, directive.Or, conds[1].Logic)
	require.NotNil(t, conds[2].Expr)

	ok, err := conds[0].Eval(map[string]any{"Quality": 2.0})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = conds[2].Eval(map[string]any{"Quality": 7.0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuild_ExtraPropertyMissingIsDropped(t *testing.T) {
	d, err := Build("s", []Property{
		prop("Min", value.Float),
		prop("Range", value.Float, directive.ExtraProperty("Min", "Max")),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Min"}, d.NodeByName("Range").ExtraProperties)
	require.Len(t, d.Diagnostics, 1)
	assert.Contains(t, d.Diagnostics[0].Message, "extra property")
}

func TestBuild_PresetRef(t *testing.T) {
	d, err := Build("s", []Property{prop("Surface", value.Int, directive.Preset("SurfacePresets"))})
	require.NoError(t, err)
	assert.Equal(t, "SurfacePresets", d.Node(0).PresetRef)
}

// ---------------------------------------------------------------------------
// Configuration errors
// ---------------------------------------------------------------------------

func TestBuild_ConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		props []Property
		want  error
	}{
		{
			name:  "missing showIf target",
			props: []Property{prop("Mode", value.Float, directive.ShowIf("Quality", "GE", 2))},
			want:  ErrMissingShowIfTarget,
		},
		{
			name:  "missing showIf expression target",
			props: []Property{prop("Mode", value.Float, directive.ShowIfExpr("props.Quality > 1.0"))},
			want:  ErrMissingShowIfTarget,
		},
		{
			name:  "missing showIf expression target spaced select",
			props: []Property{prop("Mode", value.Float, directive.ShowIfExpr("props . Missing > 1.0"))},
			want:  ErrMissingShowIfTarget,
		},
		{
			name:  "bad comparison",
			props: []Property{prop("Q", value.Float), prop("Mode", value.Float, directive.ShowIf("Q", "about", 2))},
			want:  ErrInvalidOperator,
		},
		{
			name: "bad logic",
			props: []Property{prop("Q", value.Float), prop("Mode", value.Float,
				directive.Directive{Kind: directive.KindShowIf, Target: "Q", Op: "GE", Logic: "xor"})},
			want: ErrInvalidOperator,
		},
		{
			name:  "bad expression",
			props: []Property{prop("Mode", value.Float, directive.ShowIfExpr("props.Mode >"))},
			want:  ErrInvalidExpression,
		},
		{
			name:  "empty group",
			props: []Property{prop("M", value.Float, directive.Main(""))},
			want:  ErrMalformedGroup,
		},
		{
			name:  "main and sub",
			props: []Property{prop("M", value.Float, directive.Main("G"), directive.Sub("G"))},
			want:  ErrMalformedGroup,
		},
		{
			name:  "duplicate group",
			props: []Property{prop("A", value.Float, directive.Main("G")), prop("B", value.Float, directive.Main("G"))},
			want:  ErrDuplicateGroup,
		},
		{
			name:  "duplicate property",
			props: []Property{prop("A", value.Float), prop("A", value.Float)},
			want:  ErrDuplicateProperty,
		},
		{
			name:  "unknown directive",
			props: []Property{prop("A", value.Float, directive.Directive{Kind: "drawer"})},
			want:  ErrInvalidDirective,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Build("s", tt.props)
			require.Error(t, err)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, tt.want)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.NotEmpty(t, cfgErr.Property)
		})
	}
}

func TestBuild_ShowIfExprStringLiteralIsNotATarget(t *testing.T) {
	d, err := Build("s", []Property{
		prop("Quality", value.Float),
		prop("Mode", value.Float, directive.ShowIfExpr("props.Quality > 1.0 || 'props.Ghost' == ''")),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
}

func TestBuild_ReportsAllConfigErrors(t *testing.T) {
	_, err := Build("s", []Property{
		prop("A", value.Float, directive.ShowIf("Nope", "GE", 1)),
		prop("B", value.Float, directive.Main("")),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingShowIfTarget)
	assert.ErrorIs(t, err, ErrMalformedGroup)
}
