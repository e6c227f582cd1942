// Package discover turns a subject into the candidate list for a mining
// run: catalog URLs that are always worth checking, pattern URLs derived
// from the role, and search feeds queried per subject.
package discover

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/mmcdole/gofeed"

	"github.com/matheuskafuri/prepmine/internal/config"
	"github.com/matheuskafuri/prepmine/internal/miner"
	"github.com/matheuskafuri/prepmine/internal/relevance"
)

// maxFeedItems bounds how many items one feed search contributes.
const maxFeedItems = 3

// Candidates assembles the full candidate list for one run. Feed searches
// that fail are logged and skipped; discovery never fails a run.
func Candidates(ctx context.Context, cfg *config.Config, subj relevance.Subject, logger *log.Logger) []miner.Candidate {
	if logger == nil {
		logger = log.Default()
	}
	out := FromCatalog(cfg.EnabledSources())
	out = append(out, FromPatterns(cfg.EnabledPatterns(), subj)...)
	out = append(out, FromFeeds(ctx, cfg.EnabledFeeds(), subj, logger)...)
	return out
}

// FromCatalog flattens the fixed source catalog.
func FromCatalog(sources []config.Source) []miner.Candidate {
	var out []miner.Candidate
	for _, src := range sources {
		for _, u := range src.URLs {
			out = append(out, miner.Candidate{URL: u, SourceLabel: src.Name})
		}
	}
	return out
}

// FromPatterns fills each pattern's {role} placeholder with the slugged
// role keywords.
func FromPatterns(patterns []config.Pattern, subj relevance.Subject) []miner.Candidate {
	var out []miner.Candidate
	for _, role := range subj.RoleKeywords {
		slug := Slug(role)
		if slug == "" {
			continue
		}
		for _, p := range patterns {
			out = append(out, miner.Candidate{
				URL:         strings.ReplaceAll(p.URL, "{role}", slug),
				SourceLabel: p.Name,
			})
		}
	}
	return out
}

// FromFeeds runs the subject's search query through every feed
// concurrently and collects the top items as candidates.
func FromFeeds(ctx context.Context, feeds []config.Feed, subj relevance.Subject, logger *log.Logger) []miner.Candidate {
	query := searchQuery(subj)
	if query == "" || len(feeds) == 0 {
		return nil
	}

	var (
		mu  sync.Mutex
		out []miner.Candidate
		wg  sync.WaitGroup
	)

	parser := gofeed.NewParser()
	for _, f := range feeds {
		wg.Add(1)
		go func(f config.Feed) {
			defer wg.Done()
			feedURL := strings.ReplaceAll(f.URL, "{query}", url.QueryEscape(query))
			parsed, err := parser.ParseURLWithContext(feedURL, ctx)
			if err != nil {
				logger.Warn("feed search failed", "feed", f.Name, "err", err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			for i, item := range parsed.Items {
				if i >= maxFeedItems {
					break
				}
				if item.Link == "" {
					continue
				}
				out = append(out, miner.Candidate{URL: item.Link, SourceLabel: Label(item.Link)})
			}
		}(f)
	}
	wg.Wait()
	return out
}

// searchQuery derives the feed search terms from the subject: the role if
// present, else the first skill.
func searchQuery(subj relevance.Subject) string {
	base := strings.TrimSpace(strings.Join(subj.RoleKeywords, " "))
	if base == "" && len(subj.SkillKeywords) > 0 {
		base = strings.TrimSpace(subj.SkillKeywords[0])
	}
	if base == "" {
		return ""
	}
	return base + " interview"
}

// Slug lowercases and hyphenates a phrase for use in path templates.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	pending := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

var sourceLabels = []struct {
	domain string
	label  string
}{
	{"github.com", "GitHub"},
	{"medium.com", "Medium"},
	{"reddit.com", "Reddit"},
	{"leetcode.com", "LeetCode"},
	{"hackerrank.com", "HackerRank"},
	{"stratascratch.com", "StrataScratch"},
	{"geeksforgeeks.org", "GeeksforGeeks"},
	{"w3schools.com", "W3Schools"},
	{"kaggle.com", "Kaggle"},
}

// Label maps a URL to a human-readable source name, falling back to the
// bare host.
func Label(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "Web"
	}
	host := strings.ToLower(u.Hostname())
	for _, m := range sourceLabels {
		if host == m.domain || strings.HasSuffix(host, "."+m.domain) {
			return m.label
		}
	}
	return host
}
