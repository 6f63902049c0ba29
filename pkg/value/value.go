// Package value models the typed property values that a host instance owns.
// The engine reads values and compares them against computed defaults; it only
// writes them back through the host during revert.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type is the declared type of a property.
type Type string

const (
	Float   Type = "float"
	Range   Type = "range"
	Color   Type = "color"
	Vector  Type = "vector"
	Texture Type = "texture"
	Int     Type = "int"
)

// ValidTypes lists every declared property type.
var ValidTypes = []Type{Float, Range, Color, Vector, Texture, Int}

// ParseType normalizes a type name. Matching is case-insensitive.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range ValidTypes {
		if t == valid {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid property type %q: valid values are float, range, color, vector, texture, int", s)
}

// Value is one property value. Float and range store their scalar in Vec[0];
// color stores RGBA and vector XYZW in Vec; Int uses I; Texture names the
// referenced texture (empty = none).
type Value struct {
	Type    Type
	Vec     [4]float64
	I       int64
	Texture string
}

// Scalar returns a float or range value.
func Scalar(t Type, f float64) Value {
	return Value{Type: t, Vec: [4]float64{f}}
}

// FloatValue returns a float value.
func FloatValue(f float64) Value { return Scalar(Float, f) }

// IntValue returns an int value.
func IntValue(i int64) Value { return Value{Type: Int, I: i} }

// ColorValue returns an RGBA color.
func ColorValue(r, g, b, a float64) Value {
	return Value{Type: Color, Vec: [4]float64{r, g, b, a}}
}

// VectorValue returns an XYZW vector.
func VectorValue(x, y, z, w float64) Value {
	return Value{Type: Vector, Vec: [4]float64{x, y, z, w}}
}

// TextureValue returns a texture reference.
func TextureValue(name string) Value { return Value{Type: Texture, Texture: name} }

// Equal compares every representable sub-field. Two values of different types
// are never equal.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type || v.I != o.I || v.Texture != o.Texture {
		return false
	}
	for i := range v.Vec {
		if v.Vec[i] != o.Vec[i] {
			return false
		}
	}
	return true
}

// Number returns the scalar used for numeric comparisons.
func (v Value) Number() float64 {
	switch v.Type {
	case Int:
		return float64(v.I)
	case Texture:
		if v.Texture != "" {
			return 1
		}
		return 0
	default:
		return v.Vec[0]
	}
}

// String renders the value in a human form, e.g. "0.5", "RGBA(1, 0, 0, 1)".
func (v Value) String() string {
	switch v.Type {
	case Int:
		return strconv.FormatInt(v.I, 10)
	case Texture:
		if v.Texture == "" {
			return "None"
		}
		return v.Texture
	case Color:
		return "RGBA(" + joinFloats(v.Vec[:]) + ")"
	case Vector:
		return "(" + joinFloats(v.Vec[:]) + ")"
	default:
		return formatFloat(v.Vec[0])
	}
}

// Native converts the value to a plain Go value suitable for YAML/JSON output
// and expression evaluation.
func (v Value) Native() any {
	switch v.Type {
	case Int:
		return v.I
	case Texture:
		return v.Texture
	case Color, Vector:
		return []float64{v.Vec[0], v.Vec[1], v.Vec[2], v.Vec[3]}
	default:
		return v.Vec[0]
	}
}

// FromAny builds a value of type t from a decoded document value. Numbers
// may arrive as any Go numeric kind depending on the decoder; colors and
// vectors accept 1 to 4 components (missing components are 0, or 1 for alpha).
func FromAny(t Type, raw any) (Value, error) {
	switch t {
	case Float, Range:
		f, ok := toFloat(raw)
		if !ok {
			return Value{}, fmt.Errorf("%s value must be a number, got %T", t, raw)
		}
		return Scalar(t, f), nil
	case Int:
		switch n := raw.(type) {
		case int:
			return IntValue(int64(n)), nil
		case int64:
			return IntValue(n), nil
		}
		f, ok := toFloat(raw)
		if !ok {
			return Value{}, fmt.Errorf("int value must be a number, got %T", raw)
		}
		if f != math.Trunc(f) {
			return Value{}, fmt.Errorf("int value must be integral, got %v", f)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return Value{}, fmt.Errorf("int value out of range, got %v", f)
		}
		return IntValue(int64(f)), nil
	case Texture:
		switch s := raw.(type) {
		case nil:
			return TextureValue(""), nil
		case string:
			return TextureValue(s), nil
		default:
			return Value{}, fmt.Errorf("texture value must be a string, got %T", raw)
		}
	case Color, Vector:
		comps, err := toComponents(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%s value: %w", t, err)
		}
		v := Value{Type: t}
		if t == Color {
			v.Vec[3] = 1
		}
		copy(v.Vec[:], comps)
		return v, nil
	default:
		return Value{}, fmt.Errorf("invalid property type %q", t)
	}
}

// Zero returns the zero value for a type.
func Zero(t Type) Value {
	v := Value{Type: t}
	if t == Color {
		v.Vec[3] = 1
	}
	return v
}

func toComponents(raw any) ([]float64, error) {
	if f, ok := toFloat(raw); ok {
		return []float64{f}, nil
	}
	var items []any
	switch arr := raw.(type) {
	case []any:
		items = arr
	case []float64:
		items = make([]any, len(arr))
		for i, f := range arr {
			items[i] = f
		}
	default:
		return nil, fmt.Errorf("expected a list of up to 4 numbers, got %T", raw)
	}
	if len(items) == 0 || len(items) > 4 {
		return nil, fmt.Errorf("expected 1 to 4 components, got %d", len(items))
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, ok := toFloat(item)
		if !ok {
			return nil, fmt.Errorf("component %d must be a number, got %T", i, item)
		}
		out[i] = f
	}
	return out, nil
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func joinFloats(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = formatFloat(f)
	}
	return strings.Join(parts, ", ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
