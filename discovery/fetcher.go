package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newsdesk/logger"
	"github.com/pevans/newsdesk/scraper"
)

// ErrEmptyBody is returned when an article page has no readable body.
var ErrEmptyBody = errors.New("article body not found")

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultReferer   = "https://www.ettoday.net/"
)

// FetcherConfig holds the article request settings.
type FetcherConfig struct {
	Timeout   time.Duration
	UserAgent string
	Referer   string
}

// DefaultFetcherConfig returns browser-like request settings with a 10
// second timeout.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:   10 * time.Second,
		UserAgent: defaultUserAgent,
		Referer:   defaultReferer,
	}
}

// Fetcher retrieves article pages and extracts their body text.
type Fetcher struct {
	client  *http.Client
	config  FetcherConfig
	article scraper.ArticleConfig
	log     *logger.Logger
}

// NewFetcher creates a fetcher. A nil site uses the ETtoday settings.
func NewFetcher(site *scraper.ScraperConfig, config FetcherConfig, log *logger.Logger) *Fetcher {
	if site == nil {
		site = scraper.NewScraperConfig()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultFetcherConfig().Timeout
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Fetcher{
		client:  &http.Client{Timeout: config.Timeout},
		config:  config,
		article: site.ArticleConfig,
		log:     log,
	}
}

// FetchBody returns the body of the article at address. Transport errors,
// non-200 responses and pages without a body are logged and reported as
// absent.
func (f *Fetcher) FetchBody(ctx context.Context, address string) (string, bool) {
	doc, err := f.FetchHTML(ctx, address)
	if err != nil {
		f.log.Warn("article fetch failed", "address", address, "error", err)
		return "", false
	}

	body, err := ExtractBody(doc, f.article)
	if err != nil {
		f.log.Warn("article body missing", "address", address, "error", err)
		return "", false
	}

	return body, true
}

// FetchHTML fetches and parses the page at address.
func (f *Fetcher) FetchHTML(ctx context.Context, address string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	if f.config.Referer != "" {
		req.Header.Set("Referer", f.config.Referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// ExtractBody returns the paragraph text of the first body container
// present, one trimmed paragraph per line.
func ExtractBody(doc *goquery.Document, config scraper.ArticleConfig) (string, error) {
	paragraphSelector := config.ParagraphSelector
	if paragraphSelector == "" {
		paragraphSelector = "p"
	}

	for _, selector := range config.BodySelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}

		var paragraphs []string
		container.Find(paragraphSelector).Each(func(i int, p *goquery.Selection) {
			if text := strings.TrimSpace(p.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) == 0 {
			return "", ErrEmptyBody
		}
		return strings.Join(paragraphs, "\n"), nil
	}

	return "", ErrEmptyBody
}
