package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matheuskafuri/prepmine/internal/cache"
	"github.com/matheuskafuri/prepmine/internal/limiter"
)

const (
	DefaultStaticTimeout = 10 * time.Second

	// maxReadBytes bounds how much of a response body is read before parsing.
	maxReadBytes = 2 << 20
)

type StaticConfig struct {
	Timeout    time.Duration
	MaxBodyLen int
	UserAgent  string
}

func (c StaticConfig) withDefaults() StaticConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultStaticTimeout
	}
	if c.MaxBodyLen <= 0 {
		c.MaxBodyLen = DefaultMaxBodyLen
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// Static issues one GET per candidate through a single shared client. No
// internal retry: a failure is the orchestrator's cue to escalate.
type Static struct {
	client  *http.Client
	limiter *limiter.Limiter
	cfg     StaticConfig
	log     *log.Logger
}

func NewStatic(lim *limiter.Limiter, transport http.RoundTripper, cfg StaticConfig, logger *log.Logger) *Static {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &Static{
		client:  &http.Client{Transport: transport, Timeout: cfg.Timeout},
		limiter: lim,
		cfg:     cfg,
		log:     logger,
	}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Fetch(ctx context.Context, rawURL, sourceLabel string) (cache.Record, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return cache.Record{}, fmt.Errorf("parsing %s: %w", rawURL, err)
	}

	release, err := s.limiter.Acquire(ctx, u.Hostname())
	if err != nil {
		return cache.Record{}, fmt.Errorf("acquiring slot for %s: %w", rawURL, err)
	}
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return cache.Record{}, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return cache.Record{}, &TransientError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return cache.Record{}, &TransientError{URL: rawURL, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	title, body, err := extractDoc(io.LimitReader(resp.Body, maxReadBytes))
	if err != nil {
		return cache.Record{}, &TransientError{URL: rawURL, Err: err}
	}

	s.log.Debug("static fetch ok", "url", rawURL, "bytes", len(body))
	return newRecord(rawURL, title, body, sourceLabel, s.cfg.MaxBodyLen), nil
}
