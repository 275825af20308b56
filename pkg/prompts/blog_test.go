package prompts

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestTemplateStore_Render(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "offer.txt",
		`{{.SiteName}}向け: {{.ProductName}} ({{join .Tags ", "}}) / {{.Persona}} / {{.Season.Label}} / {{index .Vars "angle"}}`)

	store := NewTemplateStore(dir)
	out, err := store.Render("offer.txt", BlogPromptData{
		SiteName:    "Kariraku",
		ProductName: "冷蔵庫",
		Tags:        []string{"家電", "レンタル"},
		Persona:     "単身赴任の人",
		Season:      SeasonalContext{Label: "梅雨どき"},
		Vars:        map[string]string{"angle": "比較"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Kariraku向け: 冷蔵庫 (家電, レンタル) / 単身赴任の人 / 梅雨どき / 比較", out)
}

func TestTemplateStore_MissingVarRendersEmpty(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "t.txt", `[{{index .Vars "missing"}}]`)

	out, err := NewTemplateStore(dir).Render("t.txt", BlogPromptData{})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestTemplateStore_CachesParsedTemplate(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "t.txt", "v1")
	store := NewTemplateStore(dir)

	out, err := store.Render("t.txt", BlogPromptData{})
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	writeTemplate(t, dir, "t.txt", "v2")
	out, err = store.Render("t.txt", BlogPromptData{})
	require.NoError(t, err)
	assert.Equal(t, "v1", out)
}

func TestTemplateStore_Errors(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "broken.txt", "{{.SiteName")
	store := NewTemplateStore(dir)

	_, err := store.Render("missing.txt", BlogPromptData{})
	assert.Error(t, err)

	_, err = store.Render("broken.txt", BlogPromptData{})
	assert.Error(t, err)

	for _, name := range []string{"", "../secrets.txt", "sub/t.txt", ".hidden"} {
		_, err = store.Render(name, BlogPromptData{})
		assert.Error(t, err, name)
	}
}

func TestTemplateStore_ConcurrentRender(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "t.txt", "{{.ProductName}}")
	store := NewTemplateStore(dir)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := store.Render("t.txt", BlogPromptData{ProductName: "x"})
			assert.NoError(t, err)
			assert.Equal(t, "x", out)
		}()
	}
	wg.Wait()
}

func TestBlogResponseFormat_MentionsAllFields(t *testing.T) {
	for _, field := range []string{`"title"`, `"body"`, `"excerpt"`, `"tags"`} {
		assert.Contains(t, BlogResponseFormat, field)
	}
}
