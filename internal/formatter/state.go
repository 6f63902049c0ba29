package formatter

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/propinspect/pkg/inspector"
)

// State is the printable form of one property's paint state.
type State struct {
	inspector.PropertyState `yaml:",inline"`
	Value                   string `json:"value" yaml:"value"`
	Default                 string `json:"default" yaml:"default"`
}

// NewState stringifies the values of st.
func NewState(st inspector.PropertyState) State {
	return State{PropertyState: st, Value: st.Value.String(), Default: st.Default.String()}
}

// RenderState prints s. Tree and table output fall back to key/value rows.
func RenderState(s State, opts Options) (string, error) {
	switch opts.Format {
	case "yaml":
		return FormatYAML(s)
	case "json":
		return FormatJSON(s)
	case "html":
		return markdownToHTML(stateMarkdown(s)), nil
	case "", "tree", "table":
		return renderStateRows(s, opts.Color), nil
	}
	return "", fmt.Errorf("unknown output format %q (want one of %v)", opts.Format, Formats)
}

func renderStateRows(s State, color bool) string {
	visible := "yes"
	if !s.Visible {
		visible = "no (" + s.HiddenBy + ")"
	}
	line := Line{Modified: s.HasModified, ChildrenModified: s.HasChildrenModified, ReadOnly: s.IsReadOnly}
	rows := [][2]string{
		{"name", s.Name},
		{"label", s.DisplayLabel},
		{"value", s.Value},
		{"default", s.DefaultDescription},
		{"flags", line.Flags()},
		{"visible", visible},
		{"tooltip", s.Tooltip},
		{"helpbox", s.Helpbox},
	}
	var b strings.Builder
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		key := fmt.Sprintf("%-8s", r[0])
		if color {
			key = mutedStyle.Render(key)
		}
		val := flatten(r[1])
		if r[0] == "value" {
			val = styleLine(line, val, color)
		}
		fmt.Fprintf(&b, "%s  %s\n", key, val)
	}
	return b.String()
}

func stateMarkdown(s State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", s.DisplayLabel)
	fmt.Fprintf(&b, "`%s` = `%s` (default %s)\n\n", s.Name, mdCell(s.Value), mdCell(s.DefaultDescription))
	if s.Tooltip != "" {
		b.WriteString(s.Tooltip + "\n\n")
	}
	if s.Helpbox != "" {
		for _, line := range strings.Split(s.Helpbox, "\n") {
			b.WriteString("> " + line + "\n")
		}
	}
	return b.String()
}
