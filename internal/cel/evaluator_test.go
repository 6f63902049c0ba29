package cel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAndEval(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name   string
		expr   string
		values map[string]any
		want   bool
	}{
		{
			name:   "double comparison",
			expr:   "props._Quality >= 2.0",
			values: map[string]any{"_Quality": 2.0},
			want:   true,
		},
		{
			name:   "int literal against double",
			expr:   "props._Quality >= 2",
			values: map[string]any{"_Quality": 1.0},
			want:   false,
		},
		{
			name:   "bracket access and or",
			expr:   `props["_Mode"] == 1.0 || props._Blend > 0.5`,
			values: map[string]any{"_Mode": 0.0, "_Blend": 0.75},
			want:   true,
		},
		{
			name:   "math extension",
			expr:   "math.greatest(props.a, props.b) > 3.0",
			values: map[string]any{"a": 1.0, "b": 4.0},
			want:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := e.Compile(tt.expr)
			require.NoError(t, err)
			got, err := p.Eval(tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.expr, p.String())
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)

	_, err = e.Compile("props._Quality >=")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation error")

	_, err = e.Compile(`"text"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must evaluate to bool")
}

func TestEval_NonBoolResult(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)

	p, err := e.Compile("props.a")
	require.NoError(t, err)
	_, err = p.Eval(map[string]any{"a": 1.0})
	assert.Error(t, err)
}

func TestReferences(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"select and index", `props._B > 1.0 && props["_A"] == 2.0 || props._B < 0.0`, []string{"_A", "_B"}},
		{"spaced select", `props . _Missing > 1.0`, []string{"_Missing"}},
		{"string literal is not a reference", `props._Quality > 1.0 || 'props.Ghost' == ''`, []string{"_Quality"}},
		{"presence test", `has(props._A)`, []string{"_A"}},
		{"no props", `true`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := References(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, refs)
		})
	}

	_, err := References("props._A >")
	assert.Error(t, err)
}

func TestCompile_ReferencesFromCheckedExpression(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)
	p, err := e.Compile(`props . _Missing > 1.0 || props["_B"] == 'props._Ghost'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"_B", "_Missing"}, p.References())
}
