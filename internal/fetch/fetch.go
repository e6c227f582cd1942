// Package fetch turns candidate URLs into content records. Two strategies
// implement the same interface: a lightweight HTTP fetch and a headless
// browser render for pages the static path cannot handle.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/matheuskafuri/prepmine/internal/cache"
)

const (
	// DefaultMaxBodyLen bounds a record body in runes.
	DefaultMaxBodyLen = 5000

	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Strategy is one way of resolving a URL. The orchestrator tries strategies
// in order; any failure escalates to the next.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, url, sourceLabel string) (cache.Record, error)
}

// TransientError covers non-2xx responses, transport errors, and timeouts on
// the static path.
type TransientError struct {
	URL string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("fetching %s: %v", e.URL, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// RenderError means every render attempt for a URL failed.
type RenderError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}
func (e *RenderError) Unwrap() error { return e.Err }

// SetupError means a shared resource could not be initialized at all. It is
// the only error class that aborts a whole mining run.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string { return fmt.Sprintf("fetch setup: %v", e.Err) }
func (e *SetupError) Unwrap() error { return e.Err }

// clip bounds s to max runes. Truncation is a hard cut; display-layer
// ellipses are someone else's concern.
func clip(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func newRecord(url, title, body, sourceLabel string, maxBody int) cache.Record {
	return cache.Record{
		URL:         url,
		Title:       title,
		Body:        clip(body, maxBody),
		SourceLabel: sourceLabel,
		FetchedAt:   time.Now(),
	}
}
