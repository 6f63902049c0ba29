// Package formatter renders inspector views for the terminal and for
// machine consumers.
package formatter

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/propinspect/pkg/inspector"
)

// Line is one visible property with the state needed to print it.
type Line struct {
	Name             string `json:"name" yaml:"name"`
	Label            string `json:"label" yaml:"label"`
	Indent           int    `json:"indent" yaml:"indent"`
	IsHeader         bool   `json:"isHeader,omitempty" yaml:"isHeader,omitempty"`
	IsExpanded       bool   `json:"isExpanded,omitempty" yaml:"isExpanded,omitempty"`
	Value            string `json:"value" yaml:"value"`
	Default          string `json:"default" yaml:"default"`
	Modified         bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
	ChildrenModified bool   `json:"childrenModified,omitempty" yaml:"childrenModified,omitempty"`
	ReadOnly         bool   `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Tooltip          string `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	Helpbox          string `json:"helpbox,omitempty" yaml:"helpbox,omitempty"`
}

// Report is the printable snapshot of a view.
type Report struct {
	Schema   string           `json:"schema" yaml:"schema"`
	Instance string           `json:"instance" yaml:"instance"`
	Counts   inspector.Counts `json:"counts" yaml:"counts"`
	Lines    []Line           `json:"properties" yaml:"properties"`
}

// NewReport collects the visible rows of v with their paint state.
func NewReport(v *inspector.View) (Report, error) {
	r := Report{
		Schema:   v.Schema.ID,
		Instance: v.Instance.InstanceID,
		Counts:   v.Counts(),
	}
	for _, row := range v.VisibleProperties() {
		st, err := v.PropertyState(row.Name)
		if err != nil {
			return r, fmt.Errorf("state of %s: %w", row.Name, err)
		}
		r.Lines = append(r.Lines, Line{
			Name:             row.Name,
			Label:            row.Label,
			Indent:           row.IndentLevel,
			IsHeader:         row.IsHeader,
			IsExpanded:       row.IsExpanded,
			Value:            st.Value.String(),
			Default:          st.DefaultDescription,
			Modified:         st.HasModified,
			ChildrenModified: st.HasChildrenModified,
			ReadOnly:         st.IsReadOnly,
			Tooltip:          st.Tooltip,
			Helpbox:          st.Helpbox,
		})
	}
	return r, nil
}

// Flags returns the short markers shown next to a line.
func (l Line) Flags() string {
	var f []string
	if l.Modified {
		f = append(f, "modified")
	} else if l.ChildrenModified {
		f = append(f, "children-modified")
	}
	if l.ReadOnly {
		f = append(f, "read-only")
	}
	return strings.Join(f, ",")
}

// flatten keeps a cell on one line.
func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\\n")
}
