package main

import (
	"github.com/pevans/newsdesk/dataset"
	"github.com/pevans/newsdesk/ingest"
)

type cleanCommand struct {
	Raw string `long:"raw" description:"Raw file to read (default <data-dir>/ettoday_raw_data.csv)"`
	Out string `long:"out" description:"Cleaned file to write (default <data-dir>/cleaned_news.json)"`
}

func (c *cleanCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if c.Raw == "" {
		c.Raw = a.rawPath()
	}
	if c.Out == "" {
		c.Out = a.cleanedPath()
	}

	records, err := dataset.ReadRaw(c.Raw)
	if err != nil {
		return err
	}

	bylines, keywords, free, err := a.extractors()
	if err != nil {
		return err
	}
	defer free()

	cleaned, stats := dataset.Clean(records, bylines, keywords)
	a.log.Info("dataset cleaned",
		"input", stats.Input,
		"duplicates", stats.Duplicates,
		"incomplete", stats.Incomplete,
		"output", stats.Output)

	return dataset.WriteCleaned(c.Out, cleaned)
}

type uploadCommand struct {
	In          string `long:"in" description:"Cleaned file to upload (default <data-dir>/cleaned_news.json)"`
	Concurrency int    `long:"concurrency" default:"4" description:"Groups written in parallel"`
}

func (c *uploadCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if c.In == "" {
		c.In = a.cleanedPath()
	}

	records, err := dataset.ReadCleaned(c.In)
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

	cfg := ingest.DefaultConfig()
	cfg.Concurrency = c.Concurrency
	result := ingest.NewBatcher(live, cfg, a.log.With("component", "ingest")).Upsert(ctx, records)
	return result.Err()
}
