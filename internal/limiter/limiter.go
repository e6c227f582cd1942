// Package limiter enforces the outbound network discipline for a mining run:
// a global requests-per-second ceiling, caps on total and per-host concurrent
// connections, and DNS resolution caching for the shared HTTP transport.
package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	DefaultRequestsPerSecond = 2.0
	DefaultMaxConnections    = 10
	DefaultMaxPerHost        = 5
	DefaultDNSCacheTTL       = 300 * time.Second
)

type Config struct {
	RequestsPerSecond float64
	MaxConnections    int64
	MaxPerHost        int64
	DNSCacheTTL       time.Duration
}

func (c Config) withDefaults() Config {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.MaxPerHost <= 0 {
		c.MaxPerHost = DefaultMaxPerHost
	}
	if c.DNSCacheTTL <= 0 {
		c.DNSCacheTTL = DefaultDNSCacheTTL
	}
	return c
}

// Limiter hands out scoped request slots. A fetch holds its slot for the
// whole in-flight request and releases it on every exit path.
type Limiter struct {
	rate       *rate.Limiter
	global     *semaphore.Weighted
	maxPerHost int64

	mu    sync.Mutex
	hosts map[string]*semaphore.Weighted
}

func New(cfg Config) *Limiter {
	cfg = cfg.withDefaults()
	return &Limiter{
		rate:       rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		global:     semaphore.NewWeighted(cfg.MaxConnections),
		maxPerHost: cfg.MaxPerHost,
		hosts:      make(map[string]*semaphore.Weighted),
	}
}

// Acquire blocks until a rate token, a global slot, and a slot for host are
// all held, then returns the release func. Release is safe to call more than
// once; only the first call returns the slots.
func (l *Limiter) Acquire(ctx context.Context, host string) (func(), error) {
	if err := l.rate.Wait(ctx); err != nil {
		return nil, err
	}
	if err := l.global.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	sem := l.hostSem(host)
	if err := sem.Acquire(ctx, 1); err != nil {
		l.global.Release(1)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			sem.Release(1)
			l.global.Release(1)
		})
	}, nil
}

func (l *Limiter) hostSem(host string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.hosts[host]
	if !ok {
		sem = semaphore.NewWeighted(l.maxPerHost)
		l.hosts[host] = sem
	}
	return sem
}
