package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/oakwood-commons/propinspect/pkg/directive"
	"github.com/oakwood-commons/propinspect/pkg/schema"
	"github.com/oakwood-commons/propinspect/pkg/value"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"base", "color"}, Tokenize("  Base_Color "))
	assert.Equal(t, []string{"a", "b", "c"}, Tokenize("a, b.c"))
	assert.Empty(t, Tokenize(" \t "))
}

func TestComputeSearchMatches(t *testing.T) {
	s, h := mustBuild(
		prop("_Main", value.FloatValue(0), directive.Main("Surface")),
		prop("_Tint", value.ColorValue(1, 1, 1, 1), directive.Sub("Surface")),
		prop("_Gloss", value.FloatValue(0.5)),
		prop("_Named", value.FloatValue(0)),
	)
	s2, err := schema.Build("named", []schema.Property{
		{Name: "_Named", DisplayName: "Rim Light#tip", Type: value.Float, Default: value.FloatValue(0)},
	})
	assert.NoError(t, err)
	d := mustInstance(s, h)

	t.Run("sub match keeps its main", func(t *testing.T) {
		m := ComputeSearchMatches(s, d, "tint", SearchAll)
		assert.True(t, m["_Tint"])
		assert.True(t, m["_Main"])
		assert.False(t, m["_Gloss"])
	})

	t.Run("all tokens must match", func(t *testing.T) {
		m := ComputeSearchMatches(s, d, "gloss tint", SearchAll)
		assert.False(t, m["_Gloss"])
		assert.False(t, m["_Tint"])
	})

	t.Run("matches display name", func(t *testing.T) {
		d2 := mustInstance(s2, newFakeHost(s2))
		m := ComputeSearchMatches(s2, d2, "rim", SearchAll)
		assert.True(t, m["_Named"])
		m = ComputeSearchMatches(s2, d2, "tip", SearchAll)
		assert.False(t, m["_Named"], "tooltip text is not searchable")
	})

	t.Run("modified only", func(t *testing.T) {
		h.values["_Gloss"] = value.FloatValue(0.9)
		d := mustInstance(s, h)
		m := ComputeSearchMatches(s, d, "", SearchModified)
		assert.True(t, m["_Gloss"])
		assert.False(t, m["_Tint"])
		assert.False(t, m["_Main"])
		h.values["_Gloss"] = value.FloatValue(0.5)
	})
}

func TestComputeSearchMatches_ExtraCountsAsModified(t *testing.T) {
	s, h := mustBuild(
		prop("_Range", value.FloatValue(0), directive.ExtraProperty("_Max")),
		prop("_Max", value.FloatValue(1), directive.Hidden()),
	)
	h.values["_Max"] = value.FloatValue(2)
	d := mustInstance(s, h)
	m := ComputeSearchMatches(s, d, "range", SearchModified)
	assert.True(t, m["_Range"])
}

func genSchema(t *rapid.T) (*schema.Data, *fakeHost) {
	n := rapid.IntRange(1, 15).Draw(t, "n")
	props := []schema.Property{prop("_Main", value.FloatValue(0), directive.Main("G"))}
	words := []string{"color", "alpha", "gloss", "tint", "normal"}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("_%s%d", rapid.SampledFrom(words).Draw(t, "word"), i)
		var ds []directive.Directive
		if rapid.Bool().Draw(t, "sub") {
			ds = append(ds, directive.Sub("G"))
		}
		props = append(props, prop(name, value.FloatValue(0), ds...))
	}
	s, err := schema.Build("rapid", props)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	h := newFakeHost(s)
	for _, name := range h.names {
		if rapid.Bool().Draw(t, "modify "+name) {
			h.values[name] = value.FloatValue(1)
		}
	}
	return s, h
}

func TestProperty_EmptyQueryMatchesEverything(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, h := genSchema(t)
		d := mustInstance(s, h)
		m := ComputeSearchMatches(s, d, "", SearchAll)
		for _, name := range s.Names() {
			if !m[name] {
				t.Fatalf("%s did not match the empty query", name)
			}
		}
	})
}

func TestProperty_ModifiedSearchWithinModifiedSet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, h := genSchema(t)
		d := mustInstance(s, h)
		q := rapid.SampledFrom([]string{"", "color", "a", "tint gloss"}).Draw(t, "query")
		st := New("s", "mat", s)
		modified := st.ModifiedSet(s, d)
		for name, ok := range ComputeSearchMatches(s, d, q, SearchModified) {
			if _, in := modified[name]; ok && !in {
				t.Fatalf("%s matched a modified-only search but is not in the modified set", name)
			}
		}
	})
}
