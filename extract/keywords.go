package extract

import (
	"strings"

	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/textnorm"
)

const (
	// DefaultCandidates is how many ranked terms are requested from the
	// tagger before filtering.
	DefaultCandidates = 20
	// DefaultKeywordLimit caps the keywords kept per article.
	DefaultKeywordLimit = 5
)

// DefaultStopWords are reporting boilerplate and filler terms that never
// make useful keywords.
var DefaultStopWords = []string{
	"記者", "報導", "翻攝", "圖文", "採訪", "綜合", "中心", "編輯", "來源",
	"畫面", "曝光", "指出", "表示", "認為", "今日", "昨日", "台灣", "台北",
	"ETtoday", "新聞雲", "可以", "我們", "應該",
}

// Tagger ranks candidate terms of a text by TF-IDF weight, best first.
type Tagger interface {
	Extract(text string, topK int) []string
}

// KeywordConfig holds the keyword filter settings.
type KeywordConfig struct {
	Candidates int      `yaml:"candidates"`
	Limit      int      `yaml:"limit"`
	StopWords  []string `yaml:"stop_words"`
}

// DefaultKeywordConfig returns the default keyword settings.
func DefaultKeywordConfig() KeywordConfig {
	return KeywordConfig{
		Candidates: DefaultCandidates,
		Limit:      DefaultKeywordLimit,
		StopWords:  DefaultStopWords,
	}
}

// KeywordExtractor filters tagger output down to a few topical terms.
type KeywordExtractor struct {
	tagger     Tagger
	stopWords  textnorm.Set
	candidates int
	limit      int
}

// NewKeywordExtractor creates an extractor over tagger. Zero values in cfg
// fall back to the defaults.
func NewKeywordExtractor(tagger Tagger, cfg KeywordConfig) *KeywordExtractor {
	if cfg.Candidates <= 0 {
		cfg.Candidates = DefaultCandidates
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultKeywordLimit
	}
	if cfg.StopWords == nil {
		cfg.StopWords = DefaultStopWords
	}

	return &KeywordExtractor{
		tagger:     tagger,
		stopWords:  textnorm.NewSet(cfg.StopWords...),
		candidates: cfg.Candidates,
		limit:      cfg.Limit,
	}
}

// Extract returns at most the configured number of keywords for title, in
// tagger rank order. An empty result is valid.
func (k *KeywordExtractor) Extract(title string) newsdesk.Keywords {
	keywords := newsdesk.Keywords{}
	if strings.TrimSpace(title) == "" {
		return keywords
	}

	seen := textnorm.NewSet()
	for _, term := range k.tagger.Extract(title, k.candidates) {
		term = strings.TrimSpace(term)
		if !k.keep(term) || seen.Has(term) {
			continue
		}
		seen[term] = struct{}{}
		keywords = append(keywords, term)
		if len(keywords) == k.limit {
			break
		}
	}

	return keywords
}

func (k *KeywordExtractor) keep(term string) bool {
	if textnorm.RuneLen(term) <= 1 {
		return false
	}
	if k.stopWords.Has(term) {
		return false
	}
	return !textnorm.IsDigits(term)
}
