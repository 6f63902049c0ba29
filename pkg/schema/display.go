package schema

import "strings"

// Reserved markers inside an encoded display name.
const (
	TooltipMarker = '#'
	HelpboxMarker = '%'
)

// DecodeDisplayName splits an encoded display string into its label and the
// tooltip and helpbox fragments it embeds. Each '#' starts a tooltip fragment
// and each '%' a helpbox fragment; repeated fragments of one kind are joined
// with newlines.
//
//	DecodeDisplayName("Size#In meters%Must be >0") // "Size", "In meters", "Must be >0"
func DecodeDisplayName(raw string) (label, tooltip, helpbox string) {
	i := strings.IndexAny(raw, string([]rune{TooltipMarker, HelpboxMarker}))
	if i < 0 {
		return strings.TrimSpace(raw), "", ""
	}
	label = strings.TrimSpace(raw[:i])

	var tips, helps []string
	rest := raw[i:]
	for rest != "" {
		marker := rest[0]
		body := rest[1:]
		end := strings.IndexAny(body, string([]rune{TooltipMarker, HelpboxMarker}))
		frag := body
		if end >= 0 {
			frag = body[:end]
			rest = body[end:]
		} else {
			rest = ""
		}
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		if marker == TooltipMarker {
			tips = append(tips, frag)
		} else {
			helps = append(helps, frag)
		}
	}
	return label, strings.Join(tips, "\n"), strings.Join(helps, "\n")
}

func appendLine(dst, line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return dst
	}
	if dst == "" {
		return line
	}
	return dst + "\n" + line
}
