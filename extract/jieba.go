package extract

import (
	"sync"

	"github.com/yanyiwu/gojieba"
)

// JiebaTagger ranks terms with the jieba TF-IDF extractor and its bundled
// dictionaries.
type JiebaTagger struct {
	mu sync.Mutex
	x  *gojieba.Jieba
}

// NewJiebaTagger loads the jieba dictionaries. Paths are optional and
// follow gojieba.NewJieba: dict, hmm, user dict, idf, stop words.
func NewJiebaTagger(paths ...string) *JiebaTagger {
	return &JiebaTagger{x: gojieba.NewJieba(paths...)}
}

// Extract implements Tagger.
func (j *JiebaTagger) Extract(text string, topK int) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.x == nil {
		return nil
	}
	return j.x.Extract(text, topK)
}

// Close frees the native dictionaries.
func (j *JiebaTagger) Close() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.x != nil {
		j.x.Free()
		j.x = nil
	}
}
