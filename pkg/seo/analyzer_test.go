package seo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const richArticle = `# 冷蔵庫レンタルと購入はどちらが得？料金と手間を比較

短期の単身赴任なら、レンタルの方が初期費用を抑えられます。

## 料金の比較

| プラン | 月額 | 設置 |
|--------|------|------|
| レンタル | 2,000円 | 無料 |
| 購入 | - | 有料 |

## メリット

- 初期費用が安い
- 回収まで任せられる

関連記事: [洗濯機レンタルの選び方](/blog/washer-rental)

## よくある質問

### 最短何ヶ月から借りられますか？

1ヶ月から利用できます。

:::cta[公式サイトで料金を見る](https://px.a8.net/svt/ejp?a8mat=xyz)
`

func TestAnalyzer_Score_RichArticle(t *testing.T) {
	a := NewAnalyzer()

	res, err := a.Score(richArticle)
	require.NoError(t, err)

	assert.True(t, res.Bool(CheckHasHeadings))
	assert.True(t, res.Bool(CheckHasList))
	assert.True(t, res.Bool(CheckHasInternalLinks))
	assert.True(t, res.Bool(CheckHasFAQ))
	assert.True(t, res.Bool(CheckHasCTA))
	assert.True(t, res.Bool(CheckHasTable))
	assert.Equal(t, 4, res.Checks[CheckHeadingCount])
	assert.Greater(t, res.Total, 80.0)
	assert.LessOrEqual(t, res.Total, 100.0)
}

func TestAnalyzer_Score_BareArticle(t *testing.T) {
	a := NewAnalyzer()

	res, err := a.Score("# 短い\n\n本文だけ。")
	require.NoError(t, err)

	for _, key := range []string{CheckHasHeadings, CheckHasList, CheckHasInternalLinks, CheckHasFAQ, CheckHasCTA, CheckHasTable} {
		assert.False(t, res.Bool(key), key)
	}
	assert.Equal(t, 2, res.Checks[CheckTitleLength])
	assert.Less(t, res.Total, 10.0)
}

func TestAnalyzer_Score_EmptyInput(t *testing.T) {
	a := NewAnalyzer()

	res, err := a.Score("")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Total)
	assert.Equal(t, 0, res.Checks[CheckCharCount])
}

func TestAnalyzer_Score_Deterministic(t *testing.T) {
	a := NewAnalyzer()

	first, err := a.Score(richArticle)
	require.NoError(t, err)
	second, err := a.Score(richArticle)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyzer_Score_SingleHeadingIsNotStructure(t *testing.T) {
	a := NewAnalyzer()

	res, err := a.Score("# タイトル\n\n## ひとつだけ\n\n本文")
	require.NoError(t, err)
	assert.False(t, res.Bool(CheckHasHeadings))
	assert.Equal(t, 1, res.Checks[CheckHeadingCount])
}

func TestAnalyzer_Score_PainDirectiveCountsAsInternalLink(t *testing.T) {
	a := NewAnalyzer()

	res, err := a.Score("# タイトル\n\n:::pain[設置が不安](install)\n")
	require.NoError(t, err)
	assert.True(t, res.Bool(CheckHasInternalLinks))
	assert.False(t, res.Bool(CheckHasCTA))
}

func TestAnalyzer_Score_ExternalLinkWithoutCTAWording(t *testing.T) {
	a := NewAnalyzer()

	res, err := a.Score("# タイトル\n\n出典は[こちら](https://example.com/source)。")
	require.NoError(t, err)
	assert.False(t, res.Bool(CheckHasCTA))
	assert.False(t, res.Bool(CheckHasInternalLinks))
}

func TestAnalyzer_Score_LengthSaturates(t *testing.T) {
	a := NewAnalyzer()

	short, err := a.Score("# タイトル\n\n" + strings.Repeat("あ", 1000))
	require.NoError(t, err)
	long, err := a.Score("# タイトル\n\n" + strings.Repeat("あ", 2000))
	require.NoError(t, err)
	longer, err := a.Score("# タイトル\n\n" + strings.Repeat("あ", 5000))
	require.NoError(t, err)

	assert.Less(t, short.Total, long.Total)
	assert.Equal(t, long.Total, longer.Total)
}

func TestIsInternalHref(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"/blog/x", true},
		{"related-post", true},
		{"#faq", false},
		{"https://example.com", false},
		{"HTTP://EXAMPLE.COM", false},
		{"//cdn.example.com/x", false},
		{"mailto:a@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, isInternalHref(tt.href))
		})
	}
}
