package formatter

import "fmt"

// Formats lists the accepted output formats.
var Formats = []string{"tree", "table", "yaml", "json", "html"}

// Options controls Render.
type Options struct {
	Format string
	Color  bool
	// Width bounds table output; 0 disables fitting.
	Width int
}

// Render prints r in the requested format.
func Render(r Report, opts Options) (string, error) {
	switch opts.Format {
	case "", "tree":
		return RenderTree(r, opts.Color), nil
	case "table":
		return RenderTable(r, opts.Color, opts.Width), nil
	case "yaml":
		return FormatYAML(r)
	case "json":
		return FormatJSON(r)
	case "html":
		return RenderHTML(r), nil
	}
	return "", fmt.Errorf("unknown output format %q (want one of %v)", opts.Format, Formats)
}
