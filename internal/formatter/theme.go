package formatter

import (
	"image/color"
	"os"

	"charm.land/lipgloss/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/propinspect/internal/config"
)

const (
	defaultHeader   = "#7D56F4"
	defaultModified = "#FF875F"
	defaultReadOnly = "#6C6C6C"
	defaultMuted    = "#8A8A8A"
)

var (
	headerStyle   lipgloss.Style
	modifiedStyle lipgloss.Style
	readOnlyStyle lipgloss.Style
	mutedStyle    lipgloss.Style
)

func colorOr(hex, fallback string) color.Color {
	if hex == "" {
		hex = fallback
	}
	return lipgloss.Color(hex)
}

// SetTheme replaces the package styles. Empty colors fall back to the
// built-in palette.
func SetTheme(t config.Theme) {
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorOr(t.Header, defaultHeader))
	modifiedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorOr(t.Modified, defaultModified))
	readOnlyStyle = lipgloss.NewStyle().Faint(true).Foreground(colorOr(t.ReadOnly, defaultReadOnly))
	mutedStyle = lipgloss.NewStyle().Foreground(colorOr(t.Muted, defaultMuted))
}

//nolint:gochecknoinits // default theme for package consumers
func init() {
	SetTheme(config.Theme{})
}

// UseColor resolves an output.color setting against the terminal on f.
func UseColor(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of stdout, or 0 when it is not a terminal.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// styleLine picks the style for a line's label.
func styleLine(l Line, s string, color bool) string {
	if !color {
		return s
	}
	switch {
	case l.IsHeader:
		return headerStyle.Render(s)
	case l.Modified:
		return modifiedStyle.Render(s)
	case l.ReadOnly:
		return readOnlyStyle.Render(s)
	}
	return s
}
