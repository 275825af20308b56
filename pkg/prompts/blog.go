package prompts

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
)

// BlogPromptData is the data available to blog templates.
type BlogPromptData struct {
	SiteID      string
	SiteName    string
	ProductName string
	OfferID     string
	Tags        []string
	Persona     string
	Pain        string
	Season      SeasonalContext
	// Vars holds free-form per-call variables, e.g. {{ index .Vars "angle" }}.
	Vars map[string]string
}

// TemplateStore loads blog templates from a directory and caches the parsed result.
// Safe for concurrent use.
type TemplateStore struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*template.Template
}

func NewTemplateStore(dir string) *TemplateStore {
	return &TemplateStore{
		dir:   dir,
		cache: make(map[string]*template.Template),
	}
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// Render executes the named template (a file name inside the store's directory).
func (s *TemplateStore) Render(name string, data BlogPromptData) (string, error) {
	tmpl, err := s.load(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *TemplateStore) load(name string) (*template.Template, error) {
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("invalid template name %q", name)
	}

	s.mu.RLock()
	tmpl, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	tmpl, err = template.New(name).Funcs(templateFuncs).Option("missingkey=zero").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	s.mu.Lock()
	s.cache[name] = tmpl
	s.mu.Unlock()

	return tmpl, nil
}

// BlogSystemMessage is the system prompt for blog generation and rewrites.
func BlogSystemMessage() string {
	return `You are an experienced Japanese content writer for an affiliate blog.
Write natural Japanese aimed at the reader described in the request.
Never invent prices, campaign dates or specifications that are not given to you.
Do not leave template placeholders, notes to the editor, or instructions in the output.`
}

// BlogResponseFormat is appended to every rendered template so the model answers with parseable JSON.
const BlogResponseFormat = `

## Response format

Respond with a single JSON object and nothing else:

` + "```json" + `
{
  "title": "記事タイトル (28〜40文字)",
  "body": "Markdown本文。H2/H3見出し、箇条書き、比較表、FAQを含める。H1は含めない。",
  "excerpt": "記事の要約 (120文字以内)",
  "tags": ["タグ1", "タグ2", "タグ3"]
}
` + "```" + `
`
