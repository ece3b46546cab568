package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/api"
	"github.com/pevans/newsdesk/ingest"
	"github.com/pevans/newsdesk/logger"
	"github.com/pevans/newsdesk/merge"
	"github.com/pevans/newsdesk/pipeline"
	"github.com/pevans/newsdesk/store"
	"github.com/robfig/cron/v3"
)

const defaultAdvanceSchedule = "0 4 * * *"

type serveCommand struct {
	Addr            string `long:"addr" env:"NEWSDESK_ADDR" description:"Listen address (default :8080)"`
	AdvanceSchedule string `long:"advance-schedule" env:"NEWSDESK_ADVANCE_SCHEDULE" description:"Cron schedule of the watermark advance (default 0 4 * * *)"`
	CrawlSchedule   string `long:"crawl-schedule" env:"NEWSDESK_CRAWL_SCHEDULE" description:"Cron schedule of the crawl of the previous day (disabled when empty)"`
}

func (c *serveCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	c.applyDefaults(a)

	ctx, cancel := signalContext()
	defer cancel()

	live, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer live.Close()

	merger, release, err := a.newMerger(ctx, live)
	if err != nil {
		return err
	}
	defer release()

	cronLog := cronLogger{a.log.With("component", "cron")}
	scheduler := cron.New(
		cron.WithLocation(newsdesk.SourceZone),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.SkipIfStillRunning(cronLog)),
	)
	if err := c.schedule(ctx, a, scheduler, live, merger); err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(merger, live, a.log.With("component", "api"))
	httpServer := &http.Server{
		Addr:         c.Addr,
		Handler:      server.SetupRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(a.log.Slog().Handler(), slog.LevelError),
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("serving read API", "addr", c.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (c *serveCommand) applyDefaults(a *app) {
	if c.Addr == "" {
		c.Addr = a.file.API.Addr
	}
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.AdvanceSchedule == "" {
		c.AdvanceSchedule = a.file.API.AdvanceSchedule
	}
	if c.AdvanceSchedule == "" {
		c.AdvanceSchedule = defaultAdvanceSchedule
	}
	if c.CrawlSchedule == "" {
		c.CrawlSchedule = a.file.API.CrawlSchedule
	}
}

func (c *serveCommand) schedule(ctx context.Context, a *app, scheduler *cron.Cron, live store.LiveStore, merger *merge.Merger) error {
	if _, err := scheduler.AddFunc(c.AdvanceSchedule, func() {
		result, err := merger.Advance(ctx)
		if err != nil {
			a.log.Error("scheduled advance failed", "error", err)
			return
		}
		a.log.Info("scheduled advance", "watermark", result.Watermark, "added", result.Added)
	}); err != nil {
		return fmt.Errorf("invalid advance schedule %q: %w", c.AdvanceSchedule, err)
	}

	if c.CrawlSchedule == "" {
		return nil
	}

	p, free, err := a.newPipeline()
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		free()
	}()

	batcher := ingest.NewBatcher(live, ingest.DefaultConfig(), a.log.With("component", "ingest"))
	if _, err := scheduler.AddFunc(c.CrawlSchedule, func() {
		day := time.Now().In(newsdesk.SourceZone).AddDate(0, 0, -1)
		err := p.CrawlDays(ctx, day, 1, func(r *pipeline.Report) error {
			return batcher.UpsertArticles(ctx, r.Articles).Err()
		})
		if err != nil {
			a.log.Error("scheduled crawl failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid crawl schedule %q: %w", c.CrawlSchedule, err)
	}

	a.log.Info("scheduled crawl enabled", "schedule", c.CrawlSchedule)
	return nil
}

// cronLogger routes scheduler messages into the structured log. Routine
// scheduler chatter is logged at debug.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Log(context.Background(), slog.LevelDebug, msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}
