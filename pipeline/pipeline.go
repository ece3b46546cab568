// Package pipeline ties the harvest, fetch and extraction stages into one
// crawl over one or more listing days.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/dataset"
	"github.com/pevans/newsdesk/discovery"
	"github.com/pevans/newsdesk/logger"
)

// DefaultProgressEvery is how many fetched articles pass between progress
// log lines.
const DefaultProgressEvery = 50

// Harvester lists the articles of one day.
type Harvester interface {
	Harvest(ctx context.Context, day time.Time) []newsdesk.ArticleStub
}

// Fetcher retrieves an article body, reporting false when it is absent.
type Fetcher interface {
	FetchBody(ctx context.Context, address string) (string, bool)
}

// Pipeline crawls listing days into enriched articles.
type Pipeline struct {
	harvester     Harvester
	fetcher       Fetcher
	bylines       dataset.BylineExtractor
	keywords      dataset.KeywordExtractor
	pacer         discovery.Pacer
	progressEvery int
	log           *logger.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPacer replaces the delay between article requests.
func WithPacer(p discovery.Pacer) Option {
	return func(pl *Pipeline) {
		pl.pacer = p
	}
}

// WithProgressEvery sets how often progress is logged. Values below one
// disable progress lines.
func WithProgressEvery(n int) Option {
	return func(pl *Pipeline) {
		pl.progressEvery = n
	}
}

// New creates a pipeline with the default pacer.
func New(h Harvester, f Fetcher, bylines dataset.BylineExtractor, keywords dataset.KeywordExtractor, log *logger.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}
	p := &Pipeline{
		harvester:     h,
		fetcher:       f,
		bylines:       bylines,
		keywords:      keywords,
		pacer:         discovery.DefaultPacer(),
		progressEvery: DefaultProgressEvery,
		log:           log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Report summarizes the crawl of one day.
type Report struct {
	Day      string
	Listed   int
	Fetched  int
	Missing  int
	Articles []newsdesk.Article
}

// Crawl harvests day, fetches every listed article and fills byline and
// keywords. Articles without a body are skipped. Cancellation returns the
// articles gathered so far together with the context error.
func (p *Pipeline) Crawl(ctx context.Context, day time.Time) (*Report, error) {
	report := &Report{Day: day.In(newsdesk.SourceZone).Format(newsdesk.DayLayout)}
	log := p.log.With("run_id", uuid.New().String(), "day", report.Day)

	stubs := p.harvester.Harvest(ctx, day)
	report.Listed = len(stubs)
	log.Info("listing harvested", "count", len(stubs))

	for i, stub := range stubs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		body, ok := p.fetcher.FetchBody(ctx, stub.Address)
		if ok {
			report.Articles = append(report.Articles, newsdesk.Article{
				ArticleStub: stub,
				Body:        body,
				Byline:      p.bylines.Extract(body),
				Keywords:    p.keywords.Extract(stub.Title),
			})
			report.Fetched++
		} else {
			report.Missing++
		}

		if p.progressEvery > 0 && (i+1)%p.progressEvery == 0 {
			log.Info("crawl progress", "done", i+1, "total", len(stubs))
		}

		if i < len(stubs)-1 {
			if err := p.pacer.Wait(ctx); err != nil {
				return report, err
			}
		}
	}

	log.Info("crawl finished", "fetched", report.Fetched, "missing", report.Missing)
	return report, nil
}

// CrawlDays crawls days consecutive days walking back from start, handing
// each report to sink as soon as it is complete. A sink error stops the
// walk.
func (p *Pipeline) CrawlDays(ctx context.Context, start time.Time, days int, sink func(*Report) error) error {
	if days < 1 {
		return fmt.Errorf("days must be at least 1, got %d", days)
	}

	for n := 0; n < days; n++ {
		day := start.AddDate(0, 0, -n)
		report, err := p.Crawl(ctx, day)
		if sink != nil && report != nil && len(report.Articles) > 0 {
			if sinkErr := sink(report); sinkErr != nil {
				return fmt.Errorf("failed to store %s: %w", report.Day, sinkErr)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
