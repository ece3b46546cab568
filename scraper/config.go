package scraper

import (
	"fmt"
	"time"
)

// ETtodayBase is the origin relative listing links are resolved against.
const ETtodayBase = "https://www.ettoday.net"

// ScraperConfig defines how to harvest and read articles from one site.
type ScraperConfig struct {
	BaseURL       string        `yaml:"base_url" json:"base_url"`
	ListConfig    ListConfig    `yaml:"list" json:"list_config"`
	ArticleConfig ArticleConfig `yaml:"article" json:"article_config"`
}

// ListConfig defines how to read the infinite-scroll listing view for one
// day.
type ListConfig struct {
	// URLPattern is a fmt pattern taking the base URL and a YYYY-MM-DD day.
	URLPattern       string `yaml:"url_pattern" json:"url_pattern"`
	ItemSelector     string `yaml:"item_selector" json:"item_selector"`
	DateSelector     string `yaml:"date_selector" json:"date_selector"`
	CategorySelector string `yaml:"category_selector" json:"category_selector"`
	LinkSelector     string `yaml:"link_selector" json:"link_selector"`
	// DateFormat is the Go time layout of the listing date labels.
	DateFormat string `yaml:"date_format" json:"date_format"`
}

// ArticleConfig defines how to extract the body from an article page.
type ArticleConfig struct {
	// BodySelectors are tried in order; the first one present wins.
	BodySelectors     []string `yaml:"body_selectors" json:"body_selectors"`
	ParagraphSelector string   `yaml:"paragraph_selector" json:"paragraph_selector"`
}

// NewScraperConfig returns the configuration for the ETtoday site.
func NewScraperConfig() *ScraperConfig {
	return &ScraperConfig{
		BaseURL: ETtodayBase,
		ListConfig: ListConfig{
			URLPattern:       "%s/news/news-list-%s-0.htm",
			ItemSelector:     ".part_list_2 > h3",
			DateSelector:     ".date",
			CategorySelector: "em",
			LinkSelector:     "a",
			DateFormat:       "2006/01/02 15:04",
		},
		ArticleConfig: ArticleConfig{
			BodySelectors:     []string{"div.story", "div.subject_article"},
			ParagraphSelector: "p",
		},
	}
}

// ListingURL returns the listing address for day.
func (c *ScraperConfig) ListingURL(day time.Time) string {
	return fmt.Sprintf(c.ListConfig.URLPattern, c.BaseURL, day.Format("2006-01-02"))
}

// Merge overrides the non-empty fields of c with those of other.
func (c *ScraperConfig) Merge(other *ScraperConfig) {
	if other == nil {
		return
	}
	if other.BaseURL != "" {
		c.BaseURL = other.BaseURL
	}

	l := other.ListConfig
	if l.URLPattern != "" {
		c.ListConfig.URLPattern = l.URLPattern
	}
	if l.ItemSelector != "" {
		c.ListConfig.ItemSelector = l.ItemSelector
	}
	if l.DateSelector != "" {
		c.ListConfig.DateSelector = l.DateSelector
	}
	if l.CategorySelector != "" {
		c.ListConfig.CategorySelector = l.CategorySelector
	}
	if l.LinkSelector != "" {
		c.ListConfig.LinkSelector = l.LinkSelector
	}
	if l.DateFormat != "" {
		c.ListConfig.DateFormat = l.DateFormat
	}

	if len(other.ArticleConfig.BodySelectors) > 0 {
		c.ArticleConfig.BodySelectors = other.ArticleConfig.BodySelectors
	}
	if other.ArticleConfig.ParagraphSelector != "" {
		c.ArticleConfig.ParagraphSelector = other.ArticleConfig.ParagraphSelector
	}
}
