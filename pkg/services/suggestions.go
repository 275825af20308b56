package services

import (
	"github.com/ekaya-inc/ekaya-content/pkg/models"
	"github.com/ekaya-inc/ekaya-content/pkg/seo"
)

var checkSuggestions = []struct {
	check      string
	suggestion string
}{
	{seo.CheckHasHeadings, "H2/H3の見出しを追加して構造化"},
	{seo.CheckHasList, "箇条書きで要点を整理"},
	{seo.CheckHasInternalLinks, "関連記事への内部リンクを追加"},
	{seo.CheckHasFAQ, "FAQを3問追加"},
	{seo.CheckHasCTA, "CTAリンクを本文中に追加"},
	{seo.CheckHasTable, "比較表（表組み）を追加"},
}

// SuggestionsFromChecks returns one improvement hint per failed check, in fixed
// priority order. A check that is missing or not a bool counts as failed.
func SuggestionsFromChecks(checks map[string]any) []string {
	out := make([]string, 0, len(checkSuggestions))
	for _, cs := range checkSuggestions {
		if passed, ok := checks[cs.check].(bool); ok && passed {
			continue
		}
		out = append(out, cs.suggestion)
	}
	if len(out) > models.MaxSuggestions {
		out = out[:models.MaxSuggestions]
	}
	return out
}
