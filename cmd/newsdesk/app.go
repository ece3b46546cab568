package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pevans/newsdesk/archive"
	"github.com/pevans/newsdesk/browser"
	"github.com/pevans/newsdesk/config"
	"github.com/pevans/newsdesk/dataset"
	"github.com/pevans/newsdesk/discovery"
	"github.com/pevans/newsdesk/extract"
	"github.com/pevans/newsdesk/logger"
	"github.com/pevans/newsdesk/merge"
	"github.com/pevans/newsdesk/pipeline"
	"github.com/pevans/newsdesk/store"
)

// app resolves settings from flags, environment and the config file, and
// builds the components commands need.
type app struct {
	file *config.FileConfig
	log  *logger.Logger
}

func newApp() (*app, error) {
	var (
		file *config.FileConfig
		err  error
	)
	if opts.ConfigPath != "" {
		file, err = config.LoadConfigPath(opts.ConfigPath)
	} else {
		file, err = config.LoadConfigFile()
	}
	if err != nil {
		return nil, err
	}
	if file == nil {
		file = &config.FileConfig{}
	}

	level := opts.LogLevel
	if level == "" {
		level = file.LogLevel
	}

	return &app{file: file, log: logger.NewLogger(level)}, nil
}

func (a *app) path(configured, name string) string {
	if configured != "" {
		return configured
	}
	return filepath.Join(opts.DataDir, name)
}

func (a *app) rawPath() string     { return a.path(a.file.Files.Raw, dataset.DefaultRawFile) }
func (a *app) cleanedPath() string { return a.path(a.file.Files.Cleaned, dataset.DefaultCleanedFile) }
func (a *app) archivePath() string { return a.path(a.file.Files.Archive, archive.DefaultFileName) }

func (a *app) storeType() string {
	switch {
	case opts.Store != "":
		return opts.Store
	case a.file.Store.Type != "":
		return a.file.Store.Type
	default:
		return config.StoreFirestore
	}
}

// openStore opens the configured live store. Missing Firestore credentials
// are fatal unless an emulator is configured.
func (a *app) openStore(ctx context.Context) (store.LiveStore, error) {
	if a.storeType() == config.StoreSQLite {
		dsn := opts.DSN
		if a.file.Store.DSN != "" && opts.DSN == "newsdesk.db" {
			dsn = a.file.Store.DSN
		}
		live, err := store.NewSQLiteStore(dsn)
		if err != nil {
			return nil, err
		}
		return live, nil
	}

	cfg := store.FirestoreConfig{Collection: a.file.Store.Collection}

	creds, err := config.ResolveCredentials(opts.KeyFile)
	switch {
	case err == nil:
		a.log.Info("using credentials", "source", creds.Source)
		cfg.ProjectID = creds.ProjectID
		cfg.CredentialsJSON = creds.JSON
	case errors.Is(err, config.ErrMissingCredentials) && os.Getenv("FIRESTORE_EMULATOR_HOST") != "":
		a.log.Info("no credentials, using firestore emulator")
	default:
		return nil, err
	}

	if opts.ProjectID != "" {
		cfg.ProjectID = opts.ProjectID
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("no project id: set --project-id or provide credentials")
	}

	live, err := store.NewFirestoreStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return live, nil
}

// extractors builds the byline rules and the jieba keyword extractor. The
// returned function frees the dictionaries.
func (a *app) extractors() (*extract.BylineRules, *extract.KeywordExtractor, func(), error) {
	bylines, err := extract.NewBylineRules(a.file.BylineConfig())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid byline config: %w", err)
	}

	tagger := extract.NewJiebaTagger(a.file.Keywords.DictPaths()...)
	keywords := extract.NewKeywordExtractor(tagger, a.file.Keywords.KeywordConfig)
	return bylines, keywords, tagger.Close, nil
}

// newPipeline wires Chrome, the fetcher and the extractors into a crawl
// pipeline.
func (a *app) newPipeline() (*pipeline.Pipeline, func(), error) {
	site := a.file.SiteConfig()
	h := a.file.Harvest

	harvestCfg := discovery.DefaultHarvesterConfig()
	if h.SettleInterval > 0 {
		harvestCfg.SettleInterval = h.SettleInterval
	}
	if h.MaxStagnation > 0 {
		harvestCfg.MaxStagnation = h.MaxStagnation
	}
	if h.MaxScrolls > 0 {
		harvestCfg.MaxScrolls = h.MaxScrolls
	}

	chromeCfg := browser.DefaultConfig()
	if h.Headless != nil {
		chromeCfg.Headless = *h.Headless
	}
	chromeCfg.ExecPath = h.ChromePath

	pacer := discovery.DefaultPacer()
	if h.PaceMin > 0 {
		pacer.Min = h.PaceMin
	}
	if h.PaceMax > 0 {
		pacer.Max = h.PaceMax
	}

	bylines, keywords, free, err := a.extractors()
	if err != nil {
		return nil, nil, err
	}

	chrome := browser.NewChrome(chromeCfg, a.log.With("component", "browser"))
	harvester := discovery.NewHarvester(chrome, site, harvestCfg, a.log.With("component", "harvester"))
	fetcher := discovery.NewFetcher(site, discovery.DefaultFetcherConfig(), a.log.With("component", "fetcher"))

	p := pipeline.New(harvester, fetcher, bylines, keywords, a.log, pipeline.WithPacer(pacer))
	return p, free, nil
}

// newMerger builds the archive merger with its cache and optional mirror.
// The returned function releases the cache connection.
func (a *app) newMerger(ctx context.Context, live store.LiveStore) (*merge.Merger, func(), error) {
	mopts := []merge.Option{}
	release := func() {}

	ttl := a.file.Redis.TTL
	if ttl <= 0 {
		ttl = merge.DefaultCacheTTL
	}

	redisAddr := opts.RedisAddr
	if redisAddr == "" {
		redisAddr = a.file.Redis.Addr
	}
	if redisAddr != "" {
		cache, err := merge.NewRedisCache(ctx, merge.RedisConfig{
			Addr:     redisAddr,
			Password: a.file.Redis.Password,
			DB:       a.file.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		mopts = append(mopts, merge.WithCache(cache, ttl))
		release = func() { cache.Close() }
	} else {
		mopts = append(mopts, merge.WithCache(merge.NewMemoryCache(), ttl))
	}

	if m := a.file.Mirror; m.Bucket != "" {
		mirror, err := archive.NewMirror(ctx, archive.MirrorConfig{
			Bucket:       m.Bucket,
			Key:          m.Key,
			Region:       m.Region,
			Endpoint:     m.Endpoint,
			UsePathStyle: m.UsePathStyle,
		})
		if err != nil {
			release()
			return nil, nil, err
		}
		mopts = append(mopts, merge.WithPublisher(mirror))
	}

	merger := merge.NewMerger(archive.New(a.archivePath()), live, a.log.With("component", "merge"), mopts...)
	return merger, release, nil
}
