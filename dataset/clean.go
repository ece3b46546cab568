package dataset

import (
	"strings"

	"github.com/pevans/newsdesk"
)

// BylineExtractor recovers the author of an article body.
type BylineExtractor interface {
	Extract(body string) string
}

// KeywordExtractor recovers topical terms of an article title.
type KeywordExtractor interface {
	Extract(title string) newsdesk.Keywords
}

// CleanStats counts what Clean removed.
type CleanStats struct {
	Input      int
	Duplicates int
	Incomplete int
	Output     int
}

// Clean drops repeated addresses (the first row wins) and rows without a
// title or body, then fills byline and keywords.
func Clean(records []newsdesk.Record, bylines BylineExtractor, keywords KeywordExtractor) ([]newsdesk.Record, CleanStats) {
	stats := CleanStats{Input: len(records)}
	seen := make(map[string]struct{}, len(records))
	cleaned := make([]newsdesk.Record, 0, len(records))

	for _, r := range records {
		address := newsdesk.NormalizeAddress(r.Address)
		if _, dup := seen[address]; dup {
			stats.Duplicates++
			continue
		}
		seen[address] = struct{}{}

		if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Body) == "" {
			stats.Incomplete++
			continue
		}

		r.Byline = bylines.Extract(r.Body)
		r.Keywords = keywords.Extract(r.Title)
		cleaned = append(cleaned, r)
	}

	stats.Output = len(cleaned)
	return cleaned, stats
}
