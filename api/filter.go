package api

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/newsdesk"
)

// newsFilter narrows the table. Empty fields match everything. Days are
// inclusive.
type newsFilter struct {
	since    string
	until    string
	byline   string
	category string
	keyword  string
}

func parseFilter(c *gin.Context) (newsFilter, error) {
	f := newsFilter{
		byline:   strings.TrimSpace(c.Query("byline")),
		category: strings.TrimSpace(c.Query("category")),
		keyword:  strings.TrimSpace(c.Query("keyword")),
	}

	for _, p := range []struct {
		name string
		dst  *string
	}{{"since", &f.since}, {"until", &f.until}} {
		raw := strings.TrimSpace(c.Query(p.name))
		if raw == "" {
			continue
		}
		if _, err := time.Parse(newsdesk.DayLayout, raw); err != nil {
			return f, fmt.Errorf("invalid %s parameter: must be YYYY-MM-DD", p.name)
		}
		*p.dst = raw
	}

	if f.since != "" && f.until != "" && f.since > f.until {
		return f, fmt.Errorf("since must not be after until")
	}
	return f, nil
}

func (f newsFilter) match(r newsdesk.Record) bool {
	day := r.Day()
	if f.since != "" && day < f.since {
		return false
	}
	if f.until != "" && (day == "" || day > f.until) {
		return false
	}
	if f.byline != "" && r.Byline != f.byline {
		return false
	}
	if f.category != "" && r.Category != f.category {
		return false
	}
	if f.keyword != "" && !slices.Contains(r.Keywords, f.keyword) {
		return false
	}
	return true
}

func (f newsFilter) apply(records []newsdesk.Record) []newsdesk.Record {
	filtered := make([]newsdesk.Record, 0, len(records))
	for _, r := range records {
		if f.match(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
