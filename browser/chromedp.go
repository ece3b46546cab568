// Package browser implements listing sessions on a headless Chrome driven
// through the DevTools protocol.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pevans/newsdesk/discovery"
	"github.com/pevans/newsdesk/logger"
)

// Config holds the Chrome launch settings.
type Config struct {
	Headless bool
	// ExecPath overrides the Chrome binary lookup.
	ExecPath  string
	UserAgent string
	// DateSelector matches every loaded date label of the listing.
	DateSelector    string
	NavigateTimeout time.Duration
}

// DefaultConfig returns headless settings for the ETtoday listing.
func DefaultConfig() Config {
	return Config{
		Headless:        true,
		DateSelector:    ".part_list_2 .date",
		NavigateTimeout: 30 * time.Second,
	}
}

// Chrome opens one Chrome process per listing session.
type Chrome struct {
	config Config
	log    *logger.Logger
}

// NewChrome creates a Chrome session factory.
func NewChrome(config Config, log *logger.Logger) *Chrome {
	if config.DateSelector == "" {
		config.DateSelector = DefaultConfig().DateSelector
	}
	if config.NavigateTimeout <= 0 {
		config.NavigateTimeout = DefaultConfig().NavigateTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Chrome{config: config, log: log}
}

// Open launches Chrome and navigates to address.
func (c *Chrome) Open(ctx context.Context, address string) (discovery.Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.config.Headless),
		chromedp.DisableGPU,
	)
	if c.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.config.ExecPath))
	}
	if c.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.config.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, cancelTask := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			c.log.Debug(fmt.Sprintf(format, args...))
		}),
	)

	s := &session{
		ctx:          taskCtx,
		dateSelector: c.config.DateSelector,
		cancel: func() {
			cancelTask()
			cancelAlloc()
		},
	}

	navCtx, cancelNav := context.WithTimeout(taskCtx, c.config.NavigateTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(address)); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open %s: %w", address, err)
	}

	return s, nil
}

type session struct {
	ctx          context.Context
	dateSelector string
	cancel       func()
	once         sync.Once
}

// run executes actions on the browser tab unless the caller is already
// done.
func (s *session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(s.ctx, actions...)
}

func (s *session) ScrollToBottom(ctx context.Context) error {
	var scrolled bool
	return s.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight); true`, &scrolled))
}

func (s *session) CurrentExtent(ctx context.Context) (int64, error) {
	var height int64
	if err := s.run(ctx, chromedp.Evaluate(`document.body.scrollHeight`, &height)); err != nil {
		return 0, err
	}
	return height, nil
}

func (s *session) LastVisibleItemDate(ctx context.Context) (string, error) {
	var label string
	if err := s.run(ctx, chromedp.Evaluate(lastLabelScript(s.dateSelector), &label)); err != nil {
		return "", err
	}
	return label, nil
}

func (s *session) Snapshot(ctx context.Context) (string, error) {
	var markup string
	if err := s.run(ctx, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return markup, nil
}

func (s *session) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// lastLabelScript returns a script yielding the trimmed text of the last
// element matching selector, or "".
func lastLabelScript(selector string) string {
	quoted, _ := json.Marshal(selector)
	return fmt.Sprintf(`(() => {
	const labels = document.querySelectorAll(%s);
	return labels.length ? labels[labels.length - 1].textContent.trim() : "";
})()`, quoted)
}
