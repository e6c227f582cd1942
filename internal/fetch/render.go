package fetch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/matheuskafuri/prepmine/internal/cache"
)

const (
	// DefaultAttemptTimeout bounds a single render attempt, browser
	// navigation and network-idle wait included.
	DefaultAttemptTimeout = 30 * time.Second

	// DefaultSettleDelay is the extra pause after the network goes idle,
	// giving client-side frameworks time to paint.
	DefaultSettleDelay = 2 * time.Second

	// DefaultIdleWindow is how long the network must stay quiet before a
	// page counts as loaded.
	DefaultIdleWindow = 500 * time.Millisecond
)

// DefaultDelays is the pause schedule between failed render attempts.
// Its length fixes the number of attempts.
func DefaultDelays() []time.Duration {
	return []time.Duration{time.Second, 3 * time.Second, 7 * time.Second}
}

// RenderConfig tunes the headless-browser fetcher.
type RenderConfig struct {
	AttemptTimeout time.Duration
	Delays         []time.Duration
	SettleDelay    time.Duration
	IdleWindow     time.Duration
	MaxBodyLen     int
	UserAgent      string
}

func (c RenderConfig) withDefaults() RenderConfig {
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	if len(c.Delays) == 0 {
		c.Delays = DefaultDelays()
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.IdleWindow <= 0 {
		c.IdleWindow = DefaultIdleWindow
	}
	if c.MaxBodyLen <= 0 {
		c.MaxBodyLen = DefaultMaxBodyLen
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// Renderer fetches pages through a headless browser so that
// JavaScript-built content is visible. One browser process is shared by
// all fetches and launched lazily on first use; each fetch runs in its
// own tab, which is closed when the fetch ends.
type Renderer struct {
	cfg RenderConfig
	log *log.Logger

	mu            sync.Mutex
	started       bool
	closed        bool
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	closeOnce     sync.Once

	// navigate runs one render attempt. Tests swap it out.
	navigate func(ctx context.Context, rawURL string) (title, body string, err error)
}

// NewRenderer builds a renderer. The browser is not launched until the
// first Fetch call.
func NewRenderer(cfg RenderConfig, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	r := &Renderer{cfg: cfg.withDefaults(), log: logger}
	r.navigate = r.navigateChrome
	return r
}

// Name implements Strategy.
func (r *Renderer) Name() string { return "dynamic" }

func (r *Renderer) ensureStarted() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return &SetupError{Err: errors.New("renderer is closed")}
	}
	if r.started {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.UserAgent(r.cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser process now so a broken environment surfaces
	// here rather than on the first page load.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return &SetupError{Err: err}
	}

	r.allocCancel = allocCancel
	r.browserCtx = browserCtx
	r.browserCancel = browserCancel
	r.started = true
	r.log.Debug("headless browser started")
	return nil
}

// Close shuts down the shared browser. Safe to call more than once and
// before any page was rendered; the renderer cannot be reused afterwards.
func (r *Renderer) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.closed = true
		if !r.started {
			return
		}
		r.browserCancel()
		r.allocCancel()
		r.log.Debug("headless browser stopped")
	})
}

// Fetch implements Strategy. It renders the page, retrying failed
// attempts on a fixed delay schedule. A delay follows every failed
// attempt, the final one included.
func (r *Renderer) Fetch(ctx context.Context, rawURL, sourceLabel string) (cache.Record, error) {
	if err := r.ensureStarted(); err != nil {
		return cache.Record{}, err
	}

	var lastErr error
	for attempt := 1; attempt <= len(r.cfg.Delays); attempt++ {
		title, body, err := r.navigate(ctx, rawURL)
		if err == nil {
			return newRecord(rawURL, title, body, sourceLabel, r.cfg.MaxBodyLen), nil
		}
		lastErr = err
		r.log.Debug("render attempt failed", "url", rawURL, "attempt", attempt, "err", err)

		if err := sleepCtx(ctx, r.cfg.Delays[attempt-1]); err != nil {
			return cache.Record{}, &RenderError{URL: rawURL, Attempts: attempt, Err: err}
		}
	}
	return cache.Record{}, &RenderError{URL: rawURL, Attempts: len(r.cfg.Delays), Err: lastErr}
}

func (r *Renderer) navigateChrome(ctx context.Context, rawURL string) (string, string, error) {
	r.mu.Lock()
	browserCtx := r.browserCtx
	r.mu.Unlock()

	// Fresh tab per attempt; cancel closes it whatever happens below.
	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()

	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, r.cfg.AttemptTimeout)
	defer timeoutCancel()

	// The tab context descends from the browser, not the caller, so
	// caller cancellation has to be wired up by hand.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var pageTitle, pageHTML string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(rawURL),
		waitNetworkIdle(r.cfg.IdleWindow),
		chromedp.Sleep(r.cfg.SettleDelay),
		chromedp.Title(&pageTitle),
		chromedp.OuterHTML("html", &pageHTML),
	)
	if err != nil {
		return "", "", err
	}

	_, body, err := extractDoc(strings.NewReader(pageHTML))
	if err != nil {
		return "", "", err
	}
	return pageTitle, body, nil
}

// waitNetworkIdle blocks until no request has been in flight for the
// given window, or the tab context ends.
func waitNetworkIdle(window time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var (
			mu       sync.Mutex
			inflight = make(map[network.RequestID]struct{})
			once     sync.Once
			idle     = make(chan struct{})
		)
		timer := time.AfterFunc(window, func() {
			once.Do(func() { close(idle) })
		})
		defer timer.Stop()

		chromedp.ListenTarget(ctx, func(ev interface{}) {
			mu.Lock()
			defer mu.Unlock()
			switch e := ev.(type) {
			case *network.EventRequestWillBeSent:
				inflight[e.RequestID] = struct{}{}
				timer.Stop()
			case *network.EventLoadingFinished:
				delete(inflight, e.RequestID)
				if len(inflight) == 0 {
					timer.Reset(window)
				}
			case *network.EventLoadingFailed:
				delete(inflight, e.RequestID)
				if len(inflight) == 0 {
					timer.Reset(window)
				}
			}
		})

		select {
		case <-idle:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
