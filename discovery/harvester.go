package discovery

import (
	"context"
	"time"

	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/logger"
	"github.com/pevans/newsdesk/scraper"
)

// HarvesterConfig holds the scroll loop settings.
type HarvesterConfig struct {
	// SettleInterval is waited after opening the view, after every scroll
	// and once more after every stagnant measurement.
	SettleInterval time.Duration
	// MaxStagnation is the number of consecutive unchanged extents that end
	// the harvest.
	MaxStagnation int
	// MaxScrolls caps scroll cycles for a view that never stops growing.
	MaxScrolls int
}

// DefaultHarvesterConfig returns the default scroll loop settings.
func DefaultHarvesterConfig() HarvesterConfig {
	return HarvesterConfig{
		SettleInterval: 2 * time.Second,
		MaxStagnation:  3,
		MaxScrolls:     500,
	}
}

// harvestState is the scroll loop state.
type harvestState int

const (
	stateLoading harvestState = iota
	stateDone
)

// Harvester drives an infinite-scroll listing view until it stops yielding
// items for the target day.
type Harvester struct {
	browser Browser
	site    *scraper.ScraperConfig
	config  HarvesterConfig
	log     *logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewHarvester creates a harvester. A nil site uses the ETtoday settings.
func NewHarvester(browser Browser, site *scraper.ScraperConfig, config HarvesterConfig, log *logger.Logger) *Harvester {
	if site == nil {
		site = scraper.NewScraperConfig()
	}
	defaults := DefaultHarvesterConfig()
	if config.SettleInterval < 0 {
		config.SettleInterval = 0
	}
	if config.MaxStagnation <= 0 {
		config.MaxStagnation = defaults.MaxStagnation
	}
	if config.MaxScrolls <= 0 {
		config.MaxScrolls = defaults.MaxScrolls
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Harvester{
		browser: browser,
		site:    site,
		config:  config,
		log:     log,
		sleep:   sleepContext,
	}
}

// Harvest returns every stub listed for day. Failures to open or read the
// view are logged and yield an empty result.
func (h *Harvester) Harvest(ctx context.Context, day time.Time) []newsdesk.ArticleStub {
	address := h.site.ListingURL(day)
	log := h.log.With("listing", address)

	markup, ok := h.capture(ctx, address, day, log)
	if !ok {
		return []newsdesk.ArticleStub{}
	}

	result, err := ParseListing(markup, h.site, day)
	if err != nil {
		log.Error("failed to parse listing", "error", err)
		return []newsdesk.ArticleStub{}
	}

	log.Info("listing harvested",
		"day", day.Format(newsdesk.DayLayout),
		"stubs", len(result.Stubs),
		"skipped", result.Skipped,
		"other_days", result.OtherDays)

	return result.Stubs
}

// capture opens the listing, scrolls it and returns its markup. The session
// is closed before capture returns, panics included.
func (h *Harvester) capture(ctx context.Context, address string, day time.Time, log *logger.Logger) (string, bool) {
	session, err := h.browser.Open(ctx, address)
	if err != nil {
		log.Error("failed to open listing", "error", err)
		return "", false
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("failed to close listing session", "error", err)
		}
	}()

	return h.scroll(ctx, session, day, log)
}

// scroll runs the Loading state until a stop signal, then takes the single
// snapshot of the view.
func (h *Harvester) scroll(ctx context.Context, session Session, day time.Time, log *logger.Logger) (string, bool) {
	if err := h.sleep(ctx, h.config.SettleInterval); err != nil {
		log.Warn("harvest cancelled", "error", err)
		return "", false
	}

	target := day.In(newsdesk.SourceZone).Format(newsdesk.DayLayout)
	lastExtent, err := session.CurrentExtent(ctx)
	if err != nil {
		log.Debug("initial extent unavailable", "error", err)
		lastExtent = -1
	}

	stagnant := 0
	scrolls := 0
	state := stateLoading

	for state == stateLoading {
		if err := session.ScrollToBottom(ctx); err != nil {
			log.Debug("scroll failed", "error", err)
		}
		scrolls++

		if err := h.sleep(ctx, h.config.SettleInterval); err != nil {
			log.Warn("harvest cancelled", "error", err)
			return "", false
		}

		if label, err := session.LastVisibleItemDate(ctx); err != nil {
			log.Debug("date label unavailable", "error", err)
		} else if labelDay := newsdesk.LabelDay(label); labelDay != "" && labelDay != target {
			log.Info("date boundary reached", "label", label, "scrolls", scrolls)
			state = stateDone
			continue
		}

		extent, err := session.CurrentExtent(ctx)
		switch {
		case err != nil:
			log.Debug("extent unavailable", "error", err)
		case extent == lastExtent:
			stagnant++
			log.Debug("extent unchanged", "attempt", stagnant, "max", h.config.MaxStagnation)
			if stagnant >= h.config.MaxStagnation {
				log.Info("listing stopped growing", "scrolls", scrolls)
				state = stateDone
				continue
			}
			if err := h.sleep(ctx, h.config.SettleInterval); err != nil {
				log.Warn("harvest cancelled", "error", err)
				return "", false
			}
		default:
			stagnant = 0
			lastExtent = extent
		}

		if scrolls >= h.config.MaxScrolls {
			log.Warn("scroll limit reached", "scrolls", scrolls)
			state = stateDone
		}
	}

	markup, err := session.Snapshot(ctx)
	if err != nil {
		log.Error("failed to snapshot listing", "error", err)
		return "", false
	}
	return markup, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
