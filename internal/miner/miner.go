// Package miner resolves candidate URLs into scored content records. Each
// candidate consults the cache first, then the fetch strategies in order;
// successful fetches are written through to the cache and the surviving
// records are ranked by relevance before being returned.
package miner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matheuskafuri/prepmine/internal/cache"
	"github.com/matheuskafuri/prepmine/internal/fetch"
	"github.com/matheuskafuri/prepmine/internal/relevance"
)

// Candidate is one URL to mine plus a human-readable source label.
type Candidate struct {
	URL         string
	SourceLabel string
}

// Store is the slice of the cache the miner needs. Errors from it degrade
// to cache misses or skipped writes, never to a failed run.
type Store interface {
	Lookup(url string) (cache.Record, bool, error)
	Store(url string, rec cache.Record) error
	UpdateScore(url string, score float64) error
}

const (
	DefaultMinScore   = 0.3
	DefaultMaxResults = 20
)

// Options tune a mining run. Zero values mean the defaults; a negative
// MinScore keeps every record and a negative MaxResults lifts the cap.
type Options struct {
	MinScore   float64
	MaxResults int
	Scoring    relevance.Params
}

func (o Options) withDefaults() Options {
	if o.MinScore == 0 {
		o.MinScore = DefaultMinScore
	}
	if o.MaxResults == 0 {
		o.MaxResults = DefaultMaxResults
	}
	return o
}

type Miner struct {
	store      Store
	strategies []fetch.Strategy
	opts       Options
	log        *log.Logger
}

// New builds a miner over an ordered strategy list. Strategies are tried
// in slice order; the first success wins.
func New(store Store, strategies []fetch.Strategy, opts Options, logger *log.Logger) *Miner {
	if logger == nil {
		logger = log.Default()
	}
	return &Miner{
		store:      store,
		strategies: strategies,
		opts:       opts.withDefaults(),
		log:        logger,
	}
}

// Mine resolves every candidate concurrently and returns records ranked by
// relevance, highest first. Per-candidate failures drop that candidate and
// never abort the run; only a strategy setup failure is fatal. The result
// list may be empty.
func (m *Miner) Mine(ctx context.Context, candidates []Candidate, subj relevance.Subject) ([]cache.Record, error) {
	candidates = dedupe(candidates)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		records []cache.Record
		fatal   error
		wg      sync.WaitGroup
	)

	for _, cand := range candidates {
		wg.Add(1)
		go func(c Candidate) {
			defer wg.Done()
			rec, err := m.resolve(ctx, c)
			if err != nil {
				var serr *fetch.SetupError
				if errors.As(err, &serr) {
					mu.Lock()
					if fatal == nil {
						fatal = err
					}
					mu.Unlock()
					cancel()
					return
				}
				m.log.Warn("candidate dropped", "url", c.URL, "err", err)
				return
			}
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
		}(cand)
	}
	wg.Wait()

	if fatal != nil {
		return nil, fatal
	}

	m.score(records, subj)
	return m.rank(records), nil
}

// resolve walks one candidate through cache lookup and the strategy list.
func (m *Miner) resolve(ctx context.Context, c Candidate) (cache.Record, error) {
	if rec, ok, err := m.store.Lookup(c.URL); err != nil {
		m.log.Warn("cache lookup failed", "url", c.URL, "err", err)
	} else if ok {
		m.log.Debug("cache hit", "url", c.URL)
		return rec, nil
	}

	var lastErr error
	for _, strat := range m.strategies {
		if err := ctx.Err(); err != nil {
			return cache.Record{}, err
		}
		rec, err := strat.Fetch(ctx, c.URL, c.SourceLabel)
		if err != nil {
			var serr *fetch.SetupError
			if errors.As(err, &serr) {
				return cache.Record{}, err
			}
			m.log.Debug("strategy failed", "strategy", strat.Name(), "url", c.URL, "err", err)
			lastErr = err
			continue
		}
		if err := m.store.Store(c.URL, rec); err != nil {
			// A failed write-through is not a failed fetch.
			m.log.Warn("cache write failed", "url", c.URL, "err", err)
		}
		m.log.Debug("fetched", "strategy", strat.Name(), "url", c.URL)
		return rec, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no fetch strategy configured")
	}
	return cache.Record{}, fmt.Errorf("all strategies exhausted for %s: %w", c.URL, lastErr)
}

// score sets each record's relevance in place and persists it so the
// browse surfaces see the same ranking as the caller.
func (m *Miner) score(records []cache.Record, subj relevance.Subject) {
	for i := range records {
		records[i].RelevanceScore = relevance.Score(relevance.Input{
			Title:       records[i].Title,
			Body:        records[i].Body,
			SourceLabel: records[i].SourceLabel,
			URL:         records[i].URL,
		}, subj, m.opts.Scoring)

		if err := m.store.UpdateScore(records[i].URL, records[i].RelevanceScore); err != nil {
			m.log.Warn("persisting score failed", "url", records[i].URL, "err", err)
		}
	}
}

// rank thresholds, orders by score descending, and caps the list.
func (m *Miner) rank(records []cache.Record) []cache.Record {
	ranked := make([]cache.Record, 0, len(records))
	for _, rec := range records {
		if rec.RelevanceScore > m.opts.MinScore {
			ranked = append(ranked, rec)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	if m.opts.MaxResults > 0 && len(ranked) > m.opts.MaxResults {
		ranked = ranked[:m.opts.MaxResults]
	}
	return ranked
}

// dedupe keeps the first occurrence of each URL.
func dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.URL]; ok {
			continue
		}
		seen[c.URL] = struct{}{}
		out = append(out, c)
	}
	return out
}
