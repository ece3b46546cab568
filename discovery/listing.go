package discovery

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/scraper"
	"github.com/pevans/newsdesk/textnorm"
)

// ListingResult is the outcome of parsing one listing snapshot.
type ListingResult struct {
	Stubs []newsdesk.ArticleStub
	// Skipped counts items missing a field or with an unreadable date.
	Skipped int
	// OtherDays counts well-formed items that belong to another day.
	OtherDays int
}

// ParseListing extracts the stubs dated on day from listing markup.
func ParseListing(markup string, cfg *scraper.ScraperConfig, day time.Time) (*ListingResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	list := cfg.ListConfig
	result := &ListingResult{Stubs: []newsdesk.ArticleStub{}}

	doc.Find(list.ItemSelector).Each(func(i int, item *goquery.Selection) {
		dateText := strings.TrimSpace(item.Find(list.DateSelector).First().Text())
		category := strings.TrimSpace(item.Find(list.CategorySelector).First().Text())
		link := item.Find(list.LinkSelector).First()
		title := textnorm.CollapseSpace(link.Text())
		href, hasHref := link.Attr("href")
		href = strings.TrimSpace(href)

		if dateText == "" || category == "" || title == "" || !hasHref || href == "" {
			result.Skipped++
			return
		}

		publishedAt, err := time.ParseInLocation(list.DateFormat, dateText, newsdesk.SourceZone)
		if err != nil {
			result.Skipped++
			return
		}

		if !newsdesk.SameDay(publishedAt, day) {
			result.OtherDays++
			return
		}

		address, err := resolveURL(base, href)
		if err != nil {
			result.Skipped++
			return
		}

		result.Stubs = append(result.Stubs, newsdesk.ArticleStub{
			PublishedAt: publishedAt,
			Category:    category,
			Title:       title,
			Address:     address,
		})
	})

	return result, nil
}

// resolveURL resolves href against base; absolute links are kept as they
// are.
func resolveURL(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}
