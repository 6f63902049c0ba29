package formatter

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown writes the report as a markdown document: a table of the visible
// properties followed by the tooltips and helpboxes, which are markdown
// themselves.
func Markdown(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Instance)
	fmt.Fprintf(&b, "Schema `%s`: %d visible, %d modified, %d advanced, %d hidden.\n\n",
		r.Schema, r.Counts.Visible, r.Counts.Modified, r.Counts.AdvancedCount, r.Counts.HiddenCount)

	b.WriteString("| Property | Value | Default | Flags |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, l := range r.Lines {
		label := mdCell(l.Label)
		if l.IsHeader {
			label = "**" + label + "**"
		}
		label = strings.Repeat("&nbsp;&nbsp;", l.Indent) + label
		fmt.Fprintf(&b, "| %s | `%s` | %s | %s |\n", label, mdCell(l.Value), mdCell(l.Default), l.Flags())
	}

	for _, l := range r.Lines {
		if l.Tooltip == "" && l.Helpbox == "" {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", l.Label)
		if l.Tooltip != "" {
			b.WriteString(l.Tooltip + "\n\n")
		}
		if l.Helpbox != "" {
			for _, line := range strings.Split(l.Helpbox, "\n") {
				b.WriteString("> " + line + "\n")
			}
		}
	}
	return b.String()
}

func mdCell(s string) string {
	return strings.ReplaceAll(flatten(s), "|", `\|`)
}

// RenderHTML converts the markdown form of the report to an HTML fragment.
func RenderHTML(r Report) string {
	return markdownToHTML(Markdown(r))
}

func markdownToHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(markdown.ToHTML([]byte(md), p, renderer))
}
