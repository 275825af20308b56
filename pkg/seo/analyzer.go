// Package seo scores blog markdown against a fixed content-quality rubric.
// Scoring is local and deterministic: the same input always yields the same result.
package seo

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Check names reported in Result.Checks.
const (
	CheckHasHeadings      = "hasHeadings"
	CheckHasList          = "hasList"
	CheckHasInternalLinks = "hasInternalLinks"
	CheckHasFAQ           = "hasFAQ"
	CheckHasCTA           = "hasCTA"
	CheckHasTable         = "hasTable"
	CheckTitleLength      = "titleLength"
	CheckCharCount        = "charCount"
	CheckHeadingCount     = "headingCount"
)

// Rubric weights. They sum to 100.
const (
	weightTitle         = 10.0
	weightLength        = 20.0
	weightHeadings      = 15.0
	weightList          = 10.0
	weightInternalLinks = 10.0
	weightFAQ           = 15.0
	weightCTA           = 10.0
	weightTable         = 10.0
)

const (
	minTitleRunes    = 15
	maxTitleRunes    = 60
	targetBodyRunes  = 2000
	minHeadingsCount = 2
)

var (
	// :::cta[label](https://...) renders as a button on the blog.
	ctaDirectivePattern = regexp.MustCompile(`^:::cta\[.+?\]\(https?://[^\s)]+\)$`)
	// :::pain[label](tag) links to the on-site /pain/<tag> page.
	painDirectivePattern = regexp.MustCompile(`^:::pain\[.+?\]\([^)]+\)$`)
	faqHeadingPattern    = regexp.MustCompile(`(?i)(faq|よくある質問|q&a|質問)`)
	ctaTextPattern       = regexp.MustCompile(`(公式|申し込|申込|詳細|今すぐ|チェック|無料)`)
)

// Result is the outcome of scoring one document.
// Checks values are bool or number.
type Result struct {
	Total  float64
	Checks map[string]any
}

// Bool returns the boolean check named key, false if absent or not a bool.
func (r Result) Bool(key string) bool {
	v, ok := r.Checks[key].(bool)
	return ok && v
}

// Analyzer renders markdown to HTML and inspects the result.
// It is safe for concurrent use.
type Analyzer struct {
	md goldmark.Markdown
}

// NewAnalyzer returns an analyzer with GitHub-flavored markdown enabled so tables are recognized.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Score evaluates markdown, which is expected to start with a level-1 title heading.
func (a *Analyzer) Score(markdown string) (Result, error) {
	var buf bytes.Buffer
	if err := a.md.Convert([]byte(markdown), &buf); err != nil {
		return Result{}, fmt.Errorf("failed to render markdown: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse rendered html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	titleRunes := utf8.RuneCountInString(title)

	headings := doc.Find("h2, h3")
	headingCount := headings.Length()

	hasFAQ := false
	headings.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if faqHeadingPattern.MatchString(s.Text()) {
			hasFAQ = true
			return false
		}
		return true
	})

	hasInternalLinks := false
	hasCTA := false
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		switch {
		case isInternalHref(href):
			hasInternalLinks = true
		case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
			if ctaTextPattern.MatchString(s.Text()) {
				hasCTA = true
			}
		}
	})

	// goldmark renders the directive's [label](url) part as a plain link, so match directives on the source lines.
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if ctaDirectivePattern.MatchString(line) {
			hasCTA = true
		}
		if painDirectivePattern.MatchString(line) {
			hasInternalLinks = true
		}
	}

	bodyText := doc.Find("body").Clone()
	bodyText.Find("h1").Remove()
	charCount := countVisibleRunes(bodyText.Text())

	checks := map[string]any{
		CheckHasHeadings:      headingCount >= minHeadingsCount,
		CheckHasList:          doc.Find("ul li, ol li").Length() > 0,
		CheckHasInternalLinks: hasInternalLinks,
		CheckHasFAQ:           hasFAQ,
		CheckHasCTA:           hasCTA,
		CheckHasTable:         doc.Find("table").Length() > 0,
		CheckTitleLength:      titleRunes,
		CheckCharCount:        charCount,
		CheckHeadingCount:     headingCount,
	}

	return Result{
		Total:  total(checks, titleRunes, charCount),
		Checks: checks,
	}, nil
}

func total(checks map[string]any, titleRunes, charCount int) float64 {
	score := 0.0

	switch {
	case titleRunes >= minTitleRunes && titleRunes <= maxTitleRunes:
		score += weightTitle
	case titleRunes > 0:
		score += weightTitle / 2
	}

	score += weightLength * math.Min(float64(charCount)/targetBodyRunes, 1)

	weighted := []struct {
		key    string
		weight float64
	}{
		{CheckHasHeadings, weightHeadings},
		{CheckHasList, weightList},
		{CheckHasInternalLinks, weightInternalLinks},
		{CheckHasFAQ, weightFAQ},
		{CheckHasCTA, weightCTA},
		{CheckHasTable, weightTable},
	}
	for _, w := range weighted {
		if v, ok := checks[w.key].(bool); ok && v {
			score += w.weight
		}
	}

	return math.Round(score*10) / 10
}

func isInternalHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "//") {
		return false
	}
	if strings.HasPrefix(href, "/") {
		return true
	}
	lower := strings.ToLower(href)
	for _, scheme := range []string{"http:", "https:", "mailto:", "tel:", "javascript:"} {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	return true
}

func countVisibleRunes(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
