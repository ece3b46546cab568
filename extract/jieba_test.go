package extract

import (
	"testing"

	"github.com/pevans/newsdesk/textnorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a jieba tagger with the bundled dictionaries
func createTestJiebaTagger(t *testing.T) *JiebaTagger {
	t.Helper()
	tagger := NewJiebaTagger()
	t.Cleanup(tagger.Close)
	return tagger
}

// TestJiebaTagger_KeywordExtraction verifies a reporter title yields
// filtered, bounded and stable keywords
func TestJiebaTagger_KeywordExtraction(t *testing.T) {
	extractor := NewKeywordExtractor(createTestJiebaTagger(t), DefaultKeywordConfig())
	title := "記者王小明／台北報導 今日發生重大新聞"

	keywords := extractor.Extract(title)

	require.NotEmpty(t, keywords)
	assert.LessOrEqual(t, len(keywords), DefaultKeywordLimit)
	assert.Contains(t, keywords, "王小明")
	for _, stop := range []string{"記者", "台北", "今日"} {
		assert.NotContains(t, keywords, stop)
	}
	for _, k := range keywords {
		assert.Greater(t, textnorm.RuneLen(k), 1, k)
	}

	assert.Equal(t, keywords, extractor.Extract(title), "same title gives same keywords")
}

// TestJiebaTagger_Close verifies Close is idempotent and a closed tagger
// yields nothing
func TestJiebaTagger_Close(t *testing.T) {
	tagger := NewJiebaTagger()

	assert.NotEmpty(t, tagger.Extract("颱風來襲停班停課", 5))

	tagger.Close()
	assert.NotPanics(t, tagger.Close)
	assert.Nil(t, tagger.Extract("颱風來襲停班停課", 5))
}
