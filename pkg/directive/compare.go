package directive

import (
	"fmt"
	"strings"
)

// CompareOp is the comparison applied by a ShowIf condition.
type CompareOp string

const (
	Less         CompareOp = "Less"
	LessEqual    CompareOp = "LessEqual"
	Equal        CompareOp = "Equal"
	NotEqual     CompareOp = "NotEqual"
	Greater      CompareOp = "Greater"
	GreaterEqual CompareOp = "GreaterEqual"
)

var compareAliases = map[string]CompareOp{
	"less": Less, "l": Less, "lt": Less, "<": Less,
	"lessequal": LessEqual, "le": LessEqual, "<=": LessEqual,
	"equal": Equal, "e": Equal, "eq": Equal, "==": Equal, "=": Equal,
	"notequal": NotEqual, "ne": NotEqual, "!=": NotEqual,
	"greater": Greater, "g": Greater, "gt": Greater, ">": Greater,
	"greaterequal": GreaterEqual, "ge": GreaterEqual, ">=": GreaterEqual,
}

// ParseCompareOp accepts the long names, their short forms (L, LE, E, NE,
// G, GE) and the symbolic operators.
func ParseCompareOp(s string) (CompareOp, error) {
	op, ok := compareAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown comparison %q", s)
	}
	return op, nil
}

// Compare applies op to lhs and rhs. op must be normalized.
func (op CompareOp) Compare(lhs, rhs float64) bool {
	switch op {
	case Less:
		return lhs < rhs
	case LessEqual:
		return lhs <= rhs
	case Equal:
		return lhs == rhs
	case NotEqual:
		return lhs != rhs
	case Greater:
		return lhs > rhs
	case GreaterEqual:
		return lhs >= rhs
	}
	return false
}

// LogicalOp combines a condition into the running ShowIf result.
type LogicalOp string

const (
	And LogicalOp = "And"
	Or  LogicalOp = "Or"
)

// ParseLogicalOp normalizes a logical operator. Empty means And.
func ParseLogicalOp(s string) (LogicalOp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "and", "&&":
		return And, nil
	case "or", "||":
		return Or, nil
	}
	return "", fmt.Errorf("unknown logical operator %q", s)
}

// Fold combines result with next. Operators apply strictly left to right.
func (op LogicalOp) Fold(result, next bool) bool {
	if op == Or {
		return result || next
	}
	return result && next
}
