package prompts

import (
	"regexp"
	"strings"
)

var (
	// {{product_name}}, {{ .Persona }}
	moustachePattern = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	// [[internal-link]]
	doubleBracketPattern = regexp.MustCompile(`\[\[[^\[\]]*\]\]`)
	htmlCommentPattern   = regexp.MustCompile(`(?s)<!--.*?-->`)
	// Fill-in instructions the model sometimes echoes back, e.g. （ここに料金表を挿入）.
	fillInPattern = regexp.MustCompile(`[（(\[［【]\s*(ここに|TODO|TBD|要確認|プレースホルダ)[^）)\]］】\n]*[）)\]］】]`)
	// A line that is nothing but a bullet or heading marker once placeholders are gone.
	emptyMarkerLinePattern = regexp.MustCompile(`(?m)^[ \t]*(#{1,6}|[-*+]|\d+\.)[ \t]*$`)
	blankRunPattern        = regexp.MustCompile(`\n{3,}`)
	fenceOpenPattern       = regexp.MustCompile("^```[a-zA-Z]*\\s*\n")
	fenceClosePattern      = regexp.MustCompile("\n```\\s*$")
)

// StripPlaceholders removes template artifacts from generated markdown:
// unresolved {{...}} and [[...]] placeholders, HTML comments, fill-in
// instructions, and a code fence wrapping the whole document.
// The result may be empty; callers decide what to do in that case.
func StripPlaceholders(body string) string {
	s := strings.ReplaceAll(body, "\r\n", "\n")
	s = strings.TrimSpace(s)

	if fenceOpenPattern.MatchString(s) && fenceClosePattern.MatchString(s) {
		s = fenceOpenPattern.ReplaceAllString(s, "")
		s = fenceClosePattern.ReplaceAllString(s, "")
	}

	s = htmlCommentPattern.ReplaceAllString(s, "")
	s = moustachePattern.ReplaceAllString(s, "")
	s = doubleBracketPattern.ReplaceAllString(s, "")
	s = fillInPattern.ReplaceAllString(s, "")
	s = emptyMarkerLinePattern.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
