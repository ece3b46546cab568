package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/dataset"
	"github.com/pevans/newsdesk/ingest"
	"github.com/pevans/newsdesk/pipeline"
)

// DayOptions select the listing days to crawl.
type DayOptions struct {
	Date string `long:"date" description:"Newest day to crawl, YYYY-MM-DD (default today)"`
	Days int    `long:"days" default:"1" description:"Number of days to crawl, walking backwards"`
}

func (d DayOptions) start() (time.Time, error) {
	if d.Date == "" {
		return time.Now().In(newsdesk.SourceZone), nil
	}
	day, err := time.ParseInLocation(newsdesk.DayLayout, d.Date, newsdesk.SourceZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: must be YYYY-MM-DD", d.Date)
	}
	return day, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

type crawlCommand struct {
	DayOptions
	Raw string `long:"raw" description:"Raw file to append to (default <data-dir>/ettoday_raw_data.csv)"`
}

func (c *crawlCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	start, err := c.start()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	p, free, err := a.newPipeline()
	if err != nil {
		return err
	}
	defer free()

	raw := c.Raw
	if raw == "" {
		raw = a.rawPath()
	}

	total := 0
	err = p.CrawlDays(ctx, start, c.Days, func(r *pipeline.Report) error {
		total += len(r.Articles)
		return dataset.AppendRaw(raw, r.Articles)
	})
	a.log.Info("crawl complete", "articles", total, "raw", raw)
	return err
}

type runCommand struct {
	DayOptions
	KeepRaw bool `long:"keep-raw" description:"Also append crawled articles to the raw file"`
}

func (c *runCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	start, err := c.start()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	live, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer live.Close()

	p, free, err := a.newPipeline()
	if err != nil {
		return err
	}
	defer free()

	batcher := ingest.NewBatcher(live, ingest.DefaultConfig(), a.log.With("component", "ingest"))
	return p.CrawlDays(ctx, start, c.Days, func(r *pipeline.Report) error {
		if c.KeepRaw {
			if err := dataset.AppendRaw(a.rawPath(), r.Articles); err != nil {
				return err
			}
		}
		return batcher.UpsertArticles(ctx, r.Articles).Err()
	})
}
